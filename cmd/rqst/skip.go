package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/runtime"
)

var skipCmd = &cobra.Command{
	Use:   "skip DIR CHAPTER",
	Short: "Skip ahead to a chapter",
	Long: `skip resets local main to the previous chapter's reference solution,
closes that chapter out on the origin, and advances the visible progression
to the given zero-based chapter index's starter. Only available on quests
built from a live upstream template — a quest seeded from a Quest Package
cannot skip, and this command returns an error instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runSkip,
}

func init() {
	rootCmd.AddCommand(skipCmd)
}

func runSkip(cmd *cobra.Command, args []string) error {
	return runChapterOp(args, func(ctx context.Context, e *runtime.Engine, chapter int) error {
		return e.SkipToStage(ctx, chapter)
	})
}
