package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"SCHEMAKIT_DSN",
			"SCHEMAKIT_REVISION_DIR",
			"SCHEMAKIT_JOURNAL_MODE",
			"SCHEMAKIT_BUSY_TIMEOUT",
			"SCHEMAKIT_MAX_SESSIONS",
			"SCHEMAKIT_ACQUIRE_TIMEOUT",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.DSN != "file:schemakit.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.DSN)
		}
		if cfg.RevisionDir != "revisions" {
			t.Fatalf("unexpected default revision dir: %q", cfg.RevisionDir)
		}
		if cfg.JournalMode != "WAL" {
			t.Fatalf("unexpected default journal mode: %q", cfg.JournalMode)
		}
		if cfg.MaxSessions != 8 {
			t.Fatalf("unexpected default max sessions: %d", cfg.MaxSessions)
		}
		if cfg.BusyTimeout != 5*time.Second {
			t.Fatalf("unexpected default busy timeout: %v", cfg.BusyTimeout)
		}
	})

	t.Run("reads overrides from the environment", func(t *testing.T) {
		t.Setenv("SCHEMAKIT_DSN", "file:/tmp/custom.db")
		t.Setenv("SCHEMAKIT_REVISION_DIR", "db/revisions")
		t.Setenv("SCHEMAKIT_MAX_SESSIONS", "32")
		t.Setenv("SCHEMAKIT_ACQUIRE_TIMEOUT", "250ms")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.DSN != "file:/tmp/custom.db" {
			t.Fatalf("expected DSN override, got %q", cfg.DSN)
		}
		if cfg.RevisionDir != "db/revisions" {
			t.Fatalf("expected revision dir override, got %q", cfg.RevisionDir)
		}
		if cfg.MaxSessions != 32 {
			t.Fatalf("expected 32 max sessions, got %d", cfg.MaxSessions)
		}
		if cfg.AcquireTimeout != 250*time.Millisecond {
			t.Fatalf("expected 250ms acquire timeout, got %v", cfg.AcquireTimeout)
		}
	})

	t.Run("collects invalid values into one error", func(t *testing.T) {
		t.Setenv("SCHEMAKIT_MAX_SESSIONS", "zero")
		t.Setenv("SCHEMAKIT_BUSY_TIMEOUT", "-3s")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, key := range []string{"SCHEMAKIT_MAX_SESSIONS", "SCHEMAKIT_BUSY_TIMEOUT"} {
			if !strings.Contains(err.Error(), key) {
				t.Errorf("error should mention %s, got %v", key, err)
			}
		}
	})

	t.Run("rejects non positive session bound", func(t *testing.T) {
		t.Setenv("SCHEMAKIT_MAX_SESSIONS", "0")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for zero session bound")
		}
	})
}
