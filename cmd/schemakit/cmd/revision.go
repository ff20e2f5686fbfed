package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/schemakit/internal/migrate"
)

var (
	revisionLabel string
	diffLabel     string
	diffSchema    string
)

var revisionCmd = &cobra.Command{
	Use:   "revision",
	Short: "Author revision files",
}

var revisionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Draft an empty revision parented on the current heads",
	Long: `New writes a draft revision file with empty upgrade and downgrade
scripts into the revision directory. The draft is parented on every current
head, so drafting against a branched history produces a merge revision.`,
	RunE: runRevisionNew,
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Draft a revision from the difference against a target schema",
	Long: `Diff compares the schema implied by the revision history with the
DDL in the given schema file and drafts a revision holding the structural
difference. The draft is a starting point and must be reviewed before use.`,
	RunE: runDiff,
}

func init() {
	revisionNewCmd.Flags().StringVarP(&revisionLabel, "message", "m", "", "label for the drafted revision")
	_ = revisionNewCmd.MarkFlagRequired("message")

	diffCmd.Flags().StringVarP(&diffLabel, "message", "m", "", "label for the drafted revision")
	diffCmd.Flags().StringVar(&diffSchema, "schema", "", "path to the target schema DDL file")
	_ = diffCmd.MarkFlagRequired("message")
	_ = diffCmd.MarkFlagRequired("schema")

	revisionCmd.AddCommand(revisionNewCmd)
	rootCmd.AddCommand(revisionCmd, diffCmd)
}

func runRevisionNew(cmd *cobra.Command, args []string) error {
	env, err := setupEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	var down []string
	for _, head := range env.store.Heads() {
		down = append(down, head.ID)
	}

	path, err := migrate.WriteDraft(env.cfg.RevisionDir, revisionLabel, down, "", "")
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "drafted %s\n", path)
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	env, err := setupEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	heads := env.store.Heads()
	if len(heads) > 1 {
		return fmt.Errorf("%w: %d heads, merge the history before diffing", migrate.ErrAmbiguousHistory, len(heads))
	}

	var down []string
	historyTop := ""
	if len(heads) == 1 {
		down = []string{heads[0].ID}
		historyTop = heads[0].ID
	}

	oldDDL, err := migrate.HistoryDDL(env.store, historyTop)
	if err != nil {
		return err
	}

	target, err := os.ReadFile(diffSchema)
	if err != nil {
		return fmt.Errorf("read schema file %s: %w", diffSchema, err)
	}

	upSQL, downSQL := migrate.DiffSchemas(oldDDL, string(target))
	if upSQL == "" && downSQL == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no schema differences detected")
		return nil
	}

	path, err := migrate.WriteDraft(env.cfg.RevisionDir, diffLabel, down, upSQL, downSQL)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "drafted %s\n", path)
	return nil
}
