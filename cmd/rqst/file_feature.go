package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/runtime"
)

var fileFeatureCmd = &cobra.Command{
	Use:   "file-feature DIR CHAPTER",
	Short: "File a chapter's starter pull request and tracking issue",
	Long: `file-feature files the starter pull and issue for the chapter at the
given zero-based index. The watch loop never files pulls or issues itself;
this command is how a chapter's starter gets filed.`,
	Args: cobra.ExactArgs(2),
	RunE: runFileFeature,
}

func init() {
	rootCmd.AddCommand(fileFeatureCmd)
}

func runFileFeature(cmd *cobra.Command, args []string) error {
	return runChapterOp(args, func(ctx context.Context, e *runtime.Engine, chapter int) error {
		return e.FileFeatureAndIssue(ctx, chapter)
	})
}
