package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/runtime"
)

var fileSolutionCmd = &cobra.Command{
	Use:   "file-solution DIR CHAPTER",
	Short: "File a chapter's solution pull request",
	Long: `file-solution files the solution pull for the chapter at the given
zero-based index. The watch loop never files pulls itself; this command is
how a chapter's solution pull gets filed.`,
	Args: cobra.ExactArgs(2),
	RunE: runFileSolution,
}

func init() {
	rootCmd.AddCommand(fileSolutionCmd)
}

func runFileSolution(cmd *cobra.Command, args []string) error {
	return runChapterOp(args, func(ctx context.Context, e *runtime.Engine, chapter int) error {
		return e.FileSolution(ctx, chapter)
	})
}
