package testfixtures

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// OpenSQLite returns an in-memory SQLite database for integration-style
// tests. The connection pool is pinned to a single connection so the
// in-memory database survives across connections, and the handle is closed
// automatically when the test finishes.
func OpenSQLite(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		tb.Fatalf("failed to enable foreign keys: %v", err)
	}

	tb.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// OpenSQLiteFile returns a file-backed SQLite database in a temporary
// directory. Use it for tests that hold several transactions open at once;
// the in-memory helper is pinned to one connection and would serialize them.
func OpenSQLiteFile(tb testing.TB) *sql.DB {
	tb.Helper()

	path := tb.TempDir() + "/schemakit.db"
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		tb.Fatalf("failed to open test database file: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		tb.Fatalf("failed to enable foreign keys: %v", err)
	}

	tb.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// TableExists reports whether a table is present in the test database.
func TableExists(tb testing.TB, db *sql.DB, name string) bool {
	tb.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	if err != nil {
		tb.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count > 0
}

// ColumnExists reports whether a column is present on a table.
func ColumnExists(tb testing.TB, db *sql.DB, table, column string) bool {
	tb.Helper()

	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		tb.Fatalf("failed to query table info for %s: %v", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			tb.Fatalf("failed to scan column name: %v", err)
		}
		if name == column {
			return true
		}
	}
	if err := rows.Err(); err != nil {
		tb.Fatalf("failed to iterate table info: %v", err)
	}
	return false
}
