package main

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/repoquest/rqst/internal/runtime"
)

func parseChapterArg(s string) (int, error) {
	return strconv.Atoi(s)
}

// runChapterOp loads the quest at args[0], parses args[1] as a zero-based
// chapter index, runs op against the loaded Engine, and prints the
// resulting state. Every file-* and skip command shares this shape.
func runChapterOp(args []string, op func(ctx context.Context, e *runtime.Engine, chapter int) error) error {
	ctx := context.Background()
	dir := args[0]

	chapter, err := parseChapterArg(args[1])
	if err != nil {
		return errors.Wrapf(err, "rqst: parse chapter index %q", args[1])
	}

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

	e, err := sess.LoadQuest(ctx, dir, emitter)
	if err != nil {
		return err
	}
	if err := op(ctx, e, chapter); err != nil {
		return err
	}

	return emitDescriptor(cfg.Output, last)
}
