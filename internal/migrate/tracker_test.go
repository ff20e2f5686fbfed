package migrate

import (
	"context"
	"testing"

	"github.com/example/schemakit/internal/revision"
	"github.com/example/schemakit/internal/testfixtures"
)

func TestTracker_ReadBeforeAnyWrite(t *testing.T) {
	db := testfixtures.OpenSQLite(t)
	tracker := NewTracker(db)
	ctx := context.Background()

	if err := tracker.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	// Ensure is idempotent.
	if err := tracker.Ensure(ctx); err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}

	current, err := tracker.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if current != revision.Base {
		t.Errorf("expected base sentinel, got %q", current)
	}
}

func TestTracker_WriteInsideTransaction(t *testing.T) {
	db := testfixtures.OpenSQLite(t)
	tracker := NewTracker(db)
	ctx := context.Background()

	if err := tracker.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := tracker.Write(ctx, tx, "abc123"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	current, err := tracker.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if current != "abc123" {
		t.Errorf("expected abc123, got %q", current)
	}
}

func TestTracker_WriteOverwritesSingleRow(t *testing.T) {
	db := testfixtures.OpenSQLite(t)
	tracker := NewTracker(db)
	ctx := context.Background()

	if err := tracker.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	for _, id := range []string{"first", "second", "third"} {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx failed: %v", err)
		}
		if err := tracker.Write(ctx, tx, id); err != nil {
			t.Fatalf("Write(%s) failed: %v", id, err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_revision`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("marker must stay a single row, got %d", count)
	}

	current, err := tracker.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if current != "third" {
		t.Errorf("expected third, got %q", current)
	}
}

func TestTracker_RollbackLeavesMarkerUntouched(t *testing.T) {
	db := testfixtures.OpenSQLite(t)
	tracker := NewTracker(db)
	ctx := context.Background()

	if err := tracker.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := tracker.Write(ctx, tx, "doomed"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	current, err := tracker.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if current != revision.Base {
		t.Errorf("rolled back write must not persist, got %q", current)
	}
}

func TestTracker_WriteBaseClearsMarker(t *testing.T) {
	db := testfixtures.OpenSQLite(t)
	tracker := NewTracker(db)
	ctx := context.Background()

	if err := tracker.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := tracker.Write(ctx, tx, "abc123"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := tracker.Write(ctx, tx, revision.Base); err != nil {
		t.Fatalf("Write(base) failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	current, err := tracker.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if current != revision.Base {
		t.Errorf("expected base sentinel after clear, got %q", current)
	}
}
