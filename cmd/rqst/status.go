package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/runtime"
)

var statusCmd = &cobra.Command{
	Use:   "status DIR",
	Short: "Show where a quest currently stands",
	Long: `status re-opens the quest cloned at DIR, refreshes its state from the
origin repository's current pulls and issues, and prints the result.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	dir := args[0]

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	var last runtime.StateDescriptor
	emitter := runtime.EmitterFunc(func(d runtime.StateDescriptor) { last = d })

	if _, err := sess.LoadQuest(ctx, dir, emitter); err != nil {
		return err
	}

	return emitDescriptor(cfg.Output, last)
}
