package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/runtime"
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Watch a quest's progress as chapters merge",
	Long: `watch loads the quest cloned at DIR, prints its current state, and then
runs the engine's 10-second background poll loop: each tick re-fetches the
origin, infers progress from merged pulls and closed issues, and prints the
resulting state. It only observes — filing the next chapter's starter pull
and issue is still a separate command. Runs until interrupted (Ctrl-C) or
the loop hits an unrecoverable error.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchEmitter prints every published state and forwards a poll-loop's
// fatal error onto a channel instead of panicking, since EmitterFunc's
// default Fatal hook is only meant for callers that never start the loop.
type watchEmitter struct {
	output string
	fatal  chan error
}

func (w *watchEmitter) StateEvent(d runtime.StateDescriptor) {
	if err := emitDescriptor(w.output, d); err != nil {
		fmt.Fprintf(os.Stderr, "rqst: render state: %v\n", err)
	}
	fmt.Println()
}

func (w *watchEmitter) Fatal(err error) {
	w.fatal <- err
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := args[0]

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	emitter := &watchEmitter{output: cfg.Output, fatal: make(chan error, 1)}

	e, err := sess.LoadQuest(ctx, dir, emitter)
	if err != nil {
		return err
	}
	e.Start(ctx)
	defer e.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Println("watching for chapter progress, Ctrl-C to stop...")

	select {
	case <-sigCh:
		fmt.Println("stopped")
		return nil
	case err := <-emitter.fatal:
		return err
	}
}
