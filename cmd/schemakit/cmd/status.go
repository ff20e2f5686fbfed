package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/schemakit/internal/migrate"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the currently applied revision",
	RunE:  runCurrent,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the full revision history in application order",
	RunE:  runHistory,
}

var headsCmd = &cobra.Command{
	Use:   "heads",
	Short: "Print the head revisions of the graph",
	Long: `Heads prints every revision without a successor. More than one head
means the history has branched and needs a merge revision before it can be
migrated.`,
	RunE: runHeads,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the schema state against the revision directory",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(currentCmd, historyCmd, headsCmd, statusCmd)
}

func runCurrent(cmd *cobra.Command, args []string) error {
	env, err := setupEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	current, err := env.engine.Current(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), displayID(current))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	env, err := setupEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ordered, err := env.store.List()
	if err != nil {
		return err
	}

	current, err := env.engine.Current(cmd.Context())
	if err != nil {
		return err
	}

	if len(ordered) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no revisions")
		return nil
	}

	for _, rev := range ordered {
		marker := " "
		if rev.ID == current {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", marker, rev.ID, rev.Label)
	}
	return nil
}

func runHeads(cmd *cobra.Command, args []string) error {
	env, err := setupEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	heads := env.store.Heads()
	if len(heads) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no revisions")
		return nil
	}

	for _, rev := range heads {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", rev.ID, rev.Label)
	}
	if len(heads) > 1 {
		return fmt.Errorf("%w: %d heads, author a merge revision", migrate.ErrAmbiguousHistory, len(heads))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := setupEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	current, err := env.engine.Current(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "current:  %s\n", displayID(current))

	heads := env.store.Heads()
	for _, rev := range heads {
		fmt.Fprintf(cmd.OutOrStdout(), "head:     %s  %s\n", rev.ID, rev.Label)
	}

	if len(heads) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "pending:  0")
		return nil
	}
	if len(heads) > 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "history has %d heads and needs a merge revision\n", len(heads))
		return nil
	}

	plan, err := env.engine.PlanTo(cmd.Context(), migrate.TargetHead)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pending:  %d\n", len(plan.Steps))
	return nil
}
