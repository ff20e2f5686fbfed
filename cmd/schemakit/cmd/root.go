// Package cmd implements the schemakit command tree.
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/schemakit/internal/config"
	"github.com/example/schemakit/internal/logging"
	"github.com/example/schemakit/internal/migrate"
	"github.com/example/schemakit/internal/persistence"
	"github.com/example/schemakit/internal/revision"
)

var logLevel string

// rootCmd is the base command when schemakit is called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "schemakit",
	Short: "Schema revision management",
	Long: `Schemakit manages a database schema through an ordered, revertible
sequence of revisions. Revisions are authored as YAML files in a revision
directory; the currently applied revision is tracked in the database itself
and every migration step runs in its own transaction.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Every subcommand and the engine below it read the logger back
		// out of the command context.
		logger := logging.New(os.Stderr, logLevel)
		cmd.SetContext(logging.ContextWithLogger(cmd.Context(), logger))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// Execute runs the command tree. It returns a non-nil error on any planning
// or execution failure, which main maps to a non-zero exit code.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// environment bundles everything a subcommand needs to talk to the store.
type environment struct {
	cfg    config.Config
	db     *sql.DB
	store  *revision.Store
	engine *migrate.Engine
	logger *slog.Logger
}

func (e *environment) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
}

// setupEnvironment loads configuration, opens the store and loads the
// revision directory. Callers must close the returned environment.
func setupEnvironment(cmd *cobra.Command) (*environment, error) {
	logger := logging.FromContext(cmd.Context())

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	store, err := revision.LoadDir(cfg.RevisionDir)
	if err != nil {
		return nil, err
	}

	db, err := persistence.OpenStore(persistence.StoreConfig{
		DSN:          cfg.DSN,
		BusyTimeout:  cfg.BusyTimeout,
		JournalMode:  cfg.JournalMode,
		ForeignKeys:  true,
		MaxOpenConns: cfg.MaxSessions,
	})
	if err != nil {
		return nil, err
	}

	return &environment{
		cfg:    cfg,
		db:     db,
		store:  store,
		engine: migrate.NewEngine(db, store, nil, logger),
		logger: logger,
	}, nil
}

func displayID(id string) string {
	if id == revision.Base {
		return "<base>"
	}
	return id
}
