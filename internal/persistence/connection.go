package persistence

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// StoreConfig holds the SQLite connection settings shared by the session
// manager and the migration engine.
type StoreConfig struct {
	// DSN is the database file path or connection string.
	DSN string

	// BusyTimeout sets how long SQLite waits on a locked database.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, ...).
	JournalMode string

	// ForeignKeys enables foreign key constraint checking.
	ForeignKeys bool

	// MaxOpenConns and MaxIdleConns bound the database/sql pool.
	MaxOpenConns int
	MaxIdleConns int

	// ConnMaxLifetime recycles connections older than this.
	ConnMaxLifetime time.Duration
}

// DefaultStoreConfig returns the connection settings used when fields are
// left zero.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DSN:         "file:schemakit.db",
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
		ForeignKeys: true,
	}
}

// OpenStore opens and configures the SQLite database described by cfg: the
// parent directory is created for file DSNs, pool limits and pragmas are
// applied, and the connection is verified with a ping.
func OpenStore(cfg StoreConfig) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("store DSN is empty")
	}

	if dir := databaseDir(cfg.DSN); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DSN, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := applyPragmas(db, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func applyPragmas(db *sql.DB, cfg StoreConfig) error {
	if cfg.BusyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set busy timeout: %w", err)
		}
	}
	if cfg.ForeignKeys {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	if mode := strings.TrimSpace(cfg.JournalMode); mode != "" {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA journal_mode = %s", mode)); err != nil {
			return fmt.Errorf("set journal mode %s: %w", mode, err)
		}
	}
	return nil
}

// databaseDir extracts the directory of a file-backed DSN. In-memory DSNs
// have no directory.
func databaseDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.HasPrefix(path, ":") {
		return ""
	}
	return filepath.Dir(path)
}
