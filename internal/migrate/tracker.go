package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/schemakit/internal/revision"
)

// Tracker persists the identifier of the revision currently applied to the
// live schema as a single-row table. The row is mutated only by the Engine,
// inside the same transaction as the schema change it records.
type Tracker struct {
	db *sql.DB
}

// NewTracker returns a tracker over db.
func NewTracker(db *sql.DB) *Tracker {
	return &Tracker{db: db}
}

// Ensure creates the marker table if it does not exist. Idempotent.
func (t *Tracker) Ensure(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS schema_revision (
			row_guard   INTEGER PRIMARY KEY CHECK (row_guard = 1),
			revision_id TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)
	`
	if _, err := t.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema_revision table: %w", err)
	}
	return nil
}

// Read returns the currently applied revision identifier, or revision.Base
// when no revisions have been applied.
func (t *Tracker) Read(ctx context.Context) (string, error) {
	var id string
	err := t.db.QueryRowContext(ctx,
		`SELECT revision_id FROM schema_revision WHERE row_guard = 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return revision.Base, nil
	}
	if err != nil {
		return revision.Base, fmt.Errorf("read schema revision: %w", err)
	}
	return id, nil
}

// Write records id as the current revision inside the caller's transaction.
// Writing revision.Base removes the row, returning the marker to the
// "no revisions applied" sentinel.
func (t *Tracker) Write(ctx context.Context, tx *sql.Tx, id string) error {
	if id == revision.Base {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_revision WHERE row_guard = 1`); err != nil {
			return fmt.Errorf("clear schema revision: %w", err)
		}
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO schema_revision (row_guard, revision_id, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (row_guard) DO UPDATE SET revision_id = excluded.revision_id, updated_at = excluded.updated_at`,
		id, now)
	if err != nil {
		return fmt.Errorf("write schema revision %s: %w", id, err)
	}
	return nil
}
