package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/runtime"
)

var fileIssueCmd = &cobra.Command{
	Use:   "file-issue DIR CHAPTER",
	Short: "File a chapter's tracking issue without its starter pull",
	Long: `file-issue copies the chapter at the given zero-based index's tracking
issue onto the origin, without touching its starter pull request. Useful
for no-starter chapters or for re-filing an issue a learner closed early.`,
	Args: cobra.ExactArgs(2),
	RunE: runFileIssue,
}

func init() {
	rootCmd.AddCommand(fileIssueCmd)
}

func runFileIssue(cmd *cobra.Command, args []string) error {
	return runChapterOp(args, func(ctx context.Context, e *runtime.Engine, chapter int) error {
		return e.FileIssue(ctx, chapter)
	})
}
