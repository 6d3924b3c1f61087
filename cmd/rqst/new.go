package main

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/runtime"
)

var (
	newRemote  string
	newPackage string
)

var newCmd = &cobra.Command{
	Use:   "new DIR",
	Short: "Start a new quest in DIR",
	Long: `new starts a quest: it either template-generates a fresh repository
from a live upstream (--remote owner/repo) or seeds one from an offline
Quest Package (--package file), clones it into a directory named after the
repository inside DIR, installs its git hooks, and prints its initial state.
Nothing is filed yet; use file-issue or file-feature for the first chapter.

Examples:
  rqst new --remote acme/go-tutorial ./my-quest
  rqst new --package go-tutorial.json.gz ./my-quest`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().StringVar(&newRemote, "remote", "", "Upstream repository to learn from, as owner/repo")
	newCmd.Flags().StringVar(&newPackage, "package", "", "Quest Package file to seed the quest from")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	dir := args[0]

	location, err := parseNewLocation()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	var last runtime.StateDescriptor
	emitter := runtime.EmitterFunc(func(d runtime.StateDescriptor) { last = d })

	if _, err := sess.NewQuest(ctx, dir, location, emitter); err != nil {
		return err
	}

	return emitDescriptor(cfg.Output, last)
}

func parseNewLocation() (runtime.Location, error) {
	switch {
	case newRemote != "" && newPackage != "":
		return runtime.Location{}, errors.New("rqst: use exactly one of --remote or --package")
	case newRemote != "":
		owner, repo, ok := strings.Cut(newRemote, "/")
		if !ok {
			return runtime.Location{}, errors.Errorf("rqst: --remote wants owner/repo, got %q", newRemote)
		}
		return runtime.RemoteLocation(owner, repo), nil
	case newPackage != "":
		return runtime.PackageLocation(newPackage), nil
	default:
		return runtime.Location{}, errors.New("rqst: one of --remote or --package is required")
	}
}

// newSession builds a Session authenticated with the resolved credential,
// shared by every command that talks to the forge.
func newSession(ctx context.Context) (*runtime.Session, error) {
	token, err := runtime.GetCredential(ctx)
	if err != nil {
		return nil, err
	}
	sess := &runtime.Session{}
	sess.InitAPI(token)
	return sess, nil
}
