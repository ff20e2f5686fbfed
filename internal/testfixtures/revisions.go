package testfixtures

import (
	"testing"

	"github.com/example/schemakit/internal/revision"
)

// Canonical revision identifiers used by the widget history fixtures.
const (
	WidgetRoot  = "a1f0c3"
	WidgetColor = "b2e1d4"
	WidgetIndex = "c3d2e5"
)

// WidgetRevisions returns the canonical three-step history used across
// migration tests: create a widgets table, add a color column, then index it.
func WidgetRevisions() []*revision.Revision {
	return []*revision.Revision{
		{
			ID:      WidgetRoot,
			Label:   "create widgets",
			UpSQL:   "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);",
			DownSQL: "DROP TABLE widgets;",
		},
		{
			ID:      WidgetColor,
			Down:    []string{WidgetRoot},
			Label:   "add widget color",
			UpSQL:   "ALTER TABLE widgets ADD COLUMN color TEXT;",
			DownSQL: "ALTER TABLE widgets DROP COLUMN color;",
		},
		{
			ID:      WidgetIndex,
			Down:    []string{WidgetColor},
			Label:   "index widget names",
			UpSQL:   "CREATE INDEX idx_widgets_name ON widgets (name);",
			DownSQL: "DROP INDEX idx_widgets_name;",
		},
	}
}

// WidgetStore builds a validated store holding the widget history.
func WidgetStore(tb testing.TB) *revision.Store {
	tb.Helper()

	store := revision.NewStore()
	for _, rev := range WidgetRevisions() {
		if err := store.Add(rev); err != nil {
			tb.Fatalf("failed to add fixture revision %s: %v", rev.ID, err)
		}
	}
	if err := store.Validate(); err != nil {
		tb.Fatalf("fixture history is invalid: %v", err)
	}
	return store
}
