package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the schema
// toolkit.
type Config struct {
	DSN            string
	RevisionDir    string
	JournalMode    string
	BusyTimeout    time.Duration
	MaxSessions    int
	AcquireTimeout time.Duration
}

// Load parses configuration values from the current process environment. A
// .env file in the working directory is read first when present, matching
// how deployments ship local overrides.
//
// The loader applies sensible defaults for optional fields while collecting
// every invalid value into a single error so misconfiguration is reported in
// one pass.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DSN:            "file:schemakit.db",
		RevisionDir:    "revisions",
		JournalMode:    "WAL",
		BusyTimeout:    5 * time.Second,
		MaxSessions:    8,
		AcquireTimeout: 5 * time.Second,
	}

	var invalid []string

	if dsn := strings.TrimSpace(os.Getenv("SCHEMAKIT_DSN")); dsn != "" {
		cfg.DSN = dsn
	}

	if dir := strings.TrimSpace(os.Getenv("SCHEMAKIT_REVISION_DIR")); dir != "" {
		cfg.RevisionDir = dir
	}

	if mode := strings.TrimSpace(os.Getenv("SCHEMAKIT_JOURNAL_MODE")); mode != "" {
		cfg.JournalMode = mode
	}

	if value := strings.TrimSpace(os.Getenv("SCHEMAKIT_BUSY_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "SCHEMAKIT_BUSY_TIMEOUT")
		} else {
			cfg.BusyTimeout = timeout
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEMAKIT_MAX_SESSIONS")); value != "" {
		sessions, err := strconv.Atoi(value)
		if err != nil || sessions <= 0 {
			invalid = append(invalid, "SCHEMAKIT_MAX_SESSIONS")
		} else {
			cfg.MaxSessions = sessions
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEMAKIT_ACQUIRE_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "SCHEMAKIT_ACQUIRE_TIMEOUT")
		} else {
			cfg.AcquireTimeout = timeout
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
