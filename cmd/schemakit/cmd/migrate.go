package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade <target>",
	Short: "Apply revisions forward until the target revision",
	Long: `Upgrade applies every unapplied ancestor of the target in order.
The target is a revision id or the symbolic name "head".`,
	Args: cobra.ExactArgs(1),
	RunE: runUpgrade,
}

var downgradeCmd = &cobra.Command{
	Use:   "downgrade <target>",
	Short: "Revert revisions back until the target revision",
	Long: `Downgrade reverts applied revisions newest first until the target
is the current revision. The target is a revision id or the symbolic
name "base", which reverts everything.`,
	Args: cobra.ExactArgs(1),
	RunE: runDowngrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd, downgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	return runMigrate(cmd, args[0])
}

func runDowngrade(cmd *cobra.Command, args []string) error {
	return runMigrate(cmd, args[0])
}

func runMigrate(cmd *cobra.Command, target string) error {
	env, err := setupEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx := cmd.Context()

	plan, err := env.engine.PlanTo(ctx, target)
	if err != nil {
		return err
	}
	if plan.Empty() {
		fmt.Fprintln(cmd.OutOrStdout(), "already at target, nothing to do")
		return nil
	}

	for _, rev := range plan.Steps {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", plan.Direction, rev.ID, rev.Label)
	}

	if err := env.engine.Migrate(ctx, target); err != nil {
		return err
	}

	current, err := env.engine.Current(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "now at %s\n", displayID(current))
	return nil
}
