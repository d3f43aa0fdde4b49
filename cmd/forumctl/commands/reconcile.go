package commands

import (
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-votes",
	Short: "Repair vote sets and recompute vote counters",
	Long: `Deduplicate the vote sets of every question and answer, drop downvotes of
users who also upvoted, and recompute the counters from the set sizes.

Examples:
  forumctl reconcile-votes
  forumctl reconcile-votes --mongo-uri mongodb://localhost:27017 --database forum`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repos, release, err := openSet(ctx, loadConfig())
		if err != nil {
			return err
		}
		defer release()

		questions, err := repos.Questions.ReconcileVotes(ctx)
		if err != nil {
			return err
		}
		answers, err := repos.Answers.ReconcileVotes(ctx)
		if err != nil {
			return err
		}
		printf(cmd.OutOrStdout(), "questions updated: %d\nanswers updated: %d\n", questions, answers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
