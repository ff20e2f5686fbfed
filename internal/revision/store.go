package revision

import (
	"fmt"
	"sort"
	"strings"
)

// Store is a read-only view over the authored revision definitions, indexed
// by identifier and by predecessor link. Revisions are registered at process
// start and the store is not mutated afterwards; it performs no I/O.
type Store struct {
	revisions map[string]*Revision
	order     []string // registration order, for stable iteration
}

// NewStore returns an empty revision store.
func NewStore() *Store {
	return &Store{revisions: make(map[string]*Revision)}
}

// Add registers a revision definition. Identifiers must be unique and
// non-empty, and a revision may not name itself as predecessor.
func (s *Store) Add(rev *Revision) error {
	if rev == nil {
		return fmt.Errorf("revision is nil")
	}
	if strings.TrimSpace(rev.ID) == "" {
		return fmt.Errorf("%w: empty revision id", ErrInvalidGraph)
	}
	if _, exists := s.revisions[rev.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRevision, rev.ID)
	}
	for _, down := range rev.Down {
		if down == rev.ID {
			return fmt.Errorf("%w: revision %s names itself as predecessor", ErrInvalidGraph, rev.ID)
		}
	}

	s.revisions[rev.ID] = rev
	s.order = append(s.order, rev.ID)
	return nil
}

// Get returns the revision with the given identifier.
func (s *Store) Get(id string) (*Revision, error) {
	rev, ok := s.revisions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRevision, id)
	}
	return rev, nil
}

// Len returns the number of registered revisions.
func (s *Store) Len() int {
	return len(s.revisions)
}

// Heads returns the revisions no other revision names as predecessor, sorted
// by identifier. More than one head signals an unresolved branch.
func (s *Store) Heads() []*Revision {
	hasSuccessor := make(map[string]bool, len(s.revisions))
	for _, rev := range s.revisions {
		for _, down := range rev.Down {
			hasSuccessor[down] = true
		}
	}

	var heads []*Revision
	for _, id := range s.order {
		if !hasSuccessor[id] {
			heads = append(heads, s.revisions[id])
		}
	}

	sort.Slice(heads, func(i, j int) bool { return heads[i].ID < heads[j].ID })
	return heads
}

// Root returns the single revision with no predecessor. An empty store or a
// store with more than one root is an invalid history.
func (s *Store) Root() (*Revision, error) {
	var roots []*Revision
	for _, id := range s.order {
		if s.revisions[id].IsRoot() {
			roots = append(roots, s.revisions[id])
		}
	}

	switch len(roots) {
	case 0:
		return nil, fmt.Errorf("%w: no root revision", ErrInvalidGraph)
	case 1:
		return roots[0], nil
	default:
		ids := make([]string, len(roots))
		for i, rev := range roots {
			ids[i] = rev.ID
		}
		sort.Strings(ids)
		return nil, fmt.Errorf("%w: multiple roots: %s", ErrInvalidGraph, strings.Join(ids, ", "))
	}
}

// Validate checks the registered revisions form a usable history: every
// predecessor link resolves, there is at most one root, and the predecessor
// links are acyclic.
func (s *Store) Validate() error {
	if len(s.revisions) == 0 {
		return nil
	}

	for _, id := range s.order {
		for _, down := range s.revisions[id].Down {
			if _, ok := s.revisions[down]; !ok {
				return fmt.Errorf("%w: revision %s references unknown predecessor %q", ErrInvalidGraph, id, down)
			}
		}
	}

	if _, err := s.Root(); err != nil {
		return err
	}

	if _, err := s.List(); err != nil {
		return err
	}

	return nil
}

// List returns all revisions topologically sorted by predecessor links, root
// first. Ties are broken by identifier so the order is deterministic.
func (s *Store) List() ([]*Revision, error) {
	// Kahn's algorithm over the predecessor links.
	indegree := make(map[string]int, len(s.revisions))
	successors := make(map[string][]string, len(s.revisions))
	for _, id := range s.order {
		indegree[id] = len(s.revisions[id].Down)
		for _, down := range s.revisions[id].Down {
			if _, ok := s.revisions[down]; ok {
				successors[down] = append(successors[down], id)
			}
		}
	}

	var ready []string
	for _, id := range s.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	ordered := make([]*Revision, 0, len(s.revisions))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, s.revisions[id])

		var woken []string
		for _, succ := range successors[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				woken = append(woken, succ)
			}
		}
		if len(woken) > 0 {
			ready = append(ready, woken...)
			sort.Strings(ready)
		}
	}

	if len(ordered) != len(s.revisions) {
		return nil, fmt.Errorf("%w: predecessor links contain a cycle", ErrInvalidGraph)
	}

	return ordered, nil
}

// Ancestors returns the set of identifiers reachable from id by following
// predecessor links, including id itself.
func (s *Store) Ancestors(id string) (map[string]bool, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	stack := []string{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[current] {
			continue
		}
		seen[current] = true

		rev, err := s.Get(current)
		if err != nil {
			return nil, err
		}
		stack = append(stack, rev.Down...)
	}

	return seen, nil
}
