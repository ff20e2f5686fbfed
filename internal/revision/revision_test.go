package revision

import (
	"context"
	"reflect"
	"testing"
)

func TestApply_EmptyScriptIsNoOp(t *testing.T) {
	rev := &Revision{ID: "merge1", Down: []string{"left1", "right1"}, Label: "join branches"}

	// No statements means the transaction is never touched.
	if err := rev.Apply(context.Background(), nil); err != nil {
		t.Errorf("Apply of empty script failed: %v", err)
	}
	if err := rev.Revert(context.Background(), nil); err != nil {
		t.Errorf("Revert of empty script failed: %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "empty body",
			body: "   \n\t",
			want: nil,
		},
		{
			name: "two statements",
			body: "CREATE TABLE a (id INTEGER);\nCREATE TABLE b (id INTEGER);",
			want: []string{"CREATE TABLE a (id INTEGER)", "CREATE TABLE b (id INTEGER)"},
		},
		{
			name: "semicolon in literal",
			body: "INSERT INTO t (body) VALUES ('a; b');",
			want: []string{"INSERT INTO t (body) VALUES ('a; b')"},
		},
		{
			name: "semicolon in line comment",
			body: "-- drop old rows; keep schema\nDELETE FROM t;",
			want: []string{"-- drop old rows; keep schema\nDELETE FROM t"},
		},
		{
			name: "semicolon in block comment",
			body: "/* step one; step two */ DELETE FROM t;",
			want: []string{"/* step one; step two */ DELETE FROM t"},
		},
		{
			name: "trigger body stays one statement",
			body: `CREATE TRIGGER trg_touch AFTER UPDATE ON t
BEGIN
    UPDATE t SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
END;
DROP TABLE old_t;`,
			want: []string{
				`CREATE TRIGGER trg_touch AFTER UPDATE ON t
BEGIN
    UPDATE t SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
END`,
				"DROP TABLE old_t",
			},
		},
		{
			name: "case expression inside trigger",
			body: `CREATE TRIGGER trg_flag AFTER INSERT ON t
BEGIN
    UPDATE t SET flag = CASE WHEN NEW.n > 0 THEN 1 ELSE 0 END WHERE id = NEW.id;
END;`,
			want: []string{
				`CREATE TRIGGER trg_flag AFTER INSERT ON t
BEGIN
    UPDATE t SET flag = CASE WHEN NEW.n > 0 THEN 1 ELSE 0 END WHERE id = NEW.id;
END`,
			},
		},
		{
			name: "identifier containing keyword",
			body: "UPDATE t SET case_id = 1; DELETE FROM t;",
			want: []string{"UPDATE t SET case_id = 1", "DELETE FROM t"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := splitStatements(tc.body)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("splitStatements(%q):\n got %q\nwant %q", tc.body, got, tc.want)
			}
		})
	}
}
