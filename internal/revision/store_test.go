package revision

import (
	"errors"
	"testing"
)

func chainStore(t *testing.T, revs ...*Revision) *Store {
	t.Helper()

	store := NewStore()
	for _, rev := range revs {
		if err := store.Add(rev); err != nil {
			t.Fatalf("Add(%s) failed: %v", rev.ID, err)
		}
	}
	return store
}

func linear(ids ...string) []*Revision {
	revs := make([]*Revision, len(ids))
	for i, id := range ids {
		rev := &Revision{ID: id, Label: "step " + id, UpSQL: "SELECT 1", DownSQL: "SELECT 1"}
		if i > 0 {
			rev.Down = []string{ids[i-1]}
		}
		revs[i] = rev
	}
	return revs
}

func TestStore_AddRejectsDuplicates(t *testing.T) {
	store := chainStore(t, linear("a")...)

	err := store.Add(&Revision{ID: "a", UpSQL: "SELECT 1", DownSQL: "SELECT 1"})
	if !errors.Is(err, ErrDuplicateRevision) {
		t.Errorf("expected ErrDuplicateRevision, got %v", err)
	}
}

func TestStore_AddRejectsEmptyID(t *testing.T) {
	store := NewStore()

	err := store.Add(&Revision{ID: "  "})
	if !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("expected ErrInvalidGraph for empty id, got %v", err)
	}
}

func TestStore_AddRejectsSelfReference(t *testing.T) {
	store := NewStore()

	err := store.Add(&Revision{ID: "a", Down: []string{"a"}})
	if !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("expected ErrInvalidGraph for self reference, got %v", err)
	}
}

func TestStore_GetUnknownRevision(t *testing.T) {
	store := chainStore(t, linear("a", "b")...)

	if _, err := store.Get("missing"); !errors.Is(err, ErrUnknownRevision) {
		t.Errorf("expected ErrUnknownRevision, got %v", err)
	}
}

func TestStore_ListTopologicalOrder(t *testing.T) {
	store := chainStore(t, linear("c", "a", "b")...)

	ordered, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"c", "a", "b"}
	if len(ordered) != len(want) {
		t.Fatalf("expected %d revisions, got %d", len(want), len(ordered))
	}
	for i, id := range want {
		if ordered[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, ordered[i].ID)
		}
	}
}

func TestStore_ListDetectsCycle(t *testing.T) {
	store := chainStore(t,
		&Revision{ID: "a", Down: []string{"b"}, UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
		&Revision{ID: "b", Down: []string{"a"}, UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
	)

	if _, err := store.List(); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("expected ErrInvalidGraph for cycle, got %v", err)
	}
}

func TestStore_HeadsOnLinearChain(t *testing.T) {
	store := chainStore(t, linear("a", "b", "c")...)

	heads := store.Heads()
	if len(heads) != 1 || heads[0].ID != "c" {
		t.Fatalf("expected single head c, got %v", headIDs(heads))
	}
}

func TestStore_HeadsOnBranch(t *testing.T) {
	revs := linear("a")
	revs = append(revs,
		&Revision{ID: "b1", Down: []string{"a"}, UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
		&Revision{ID: "b2", Down: []string{"a"}, UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
	)
	store := chainStore(t, revs...)

	heads := store.Heads()
	if len(heads) != 2 {
		t.Fatalf("expected two heads, got %v", headIDs(heads))
	}
	if heads[0].ID != "b1" || heads[1].ID != "b2" {
		t.Errorf("expected heads b1, b2, got %v", headIDs(heads))
	}
}

func TestStore_MergeRevisionJoinsBranches(t *testing.T) {
	revs := linear("a")
	revs = append(revs,
		&Revision{ID: "b1", Down: []string{"a"}, UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
		&Revision{ID: "b2", Down: []string{"a"}, UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
		&Revision{ID: "m", Down: []string{"b1", "b2"}, UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
	)
	store := chainStore(t, revs...)

	heads := store.Heads()
	if len(heads) != 1 || heads[0].ID != "m" {
		t.Fatalf("expected merge revision as single head, got %v", headIDs(heads))
	}

	if err := store.Validate(); err != nil {
		t.Errorf("merged history should validate, got %v", err)
	}
}

func TestStore_RootDetection(t *testing.T) {
	store := chainStore(t, linear("a", "b")...)

	root, err := store.Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if root.ID != "a" {
		t.Errorf("expected root a, got %s", root.ID)
	}
}

func TestStore_MultipleRootsRejected(t *testing.T) {
	store := chainStore(t,
		&Revision{ID: "a", UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
		&Revision{ID: "z", UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
	)

	if _, err := store.Root(); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("expected ErrInvalidGraph for multiple roots, got %v", err)
	}
}

func TestStore_ValidateDanglingPredecessor(t *testing.T) {
	store := chainStore(t,
		&Revision{ID: "a", UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
		&Revision{ID: "b", Down: []string{"ghost"}, UpSQL: "SELECT 1", DownSQL: "SELECT 1"},
	)

	if err := store.Validate(); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("expected ErrInvalidGraph for dangling predecessor, got %v", err)
	}
}

func TestStore_Ancestors(t *testing.T) {
	store := chainStore(t, linear("a", "b", "c")...)

	ancestors, err := store.Ancestors("b")
	if err != nil {
		t.Fatalf("Ancestors failed: %v", err)
	}

	if !ancestors["a"] || !ancestors["b"] {
		t.Errorf("expected a and b in ancestry, got %v", ancestors)
	}
	if ancestors["c"] {
		t.Errorf("c must not be an ancestor of b")
	}
}

func headIDs(heads []*Revision) []string {
	ids := make([]string, len(heads))
	for i, rev := range heads {
		ids[i] = rev.ID
	}
	return ids
}
