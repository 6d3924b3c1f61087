package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repoquest/rqst/internal/forge"
	"github.com/repoquest/rqst/internal/questpkg"
	"github.com/repoquest/rqst/internal/runtime"
	"github.com/repoquest/rqst/internal/vcs"
)

var packCmd = &cobra.Command{
	Use:   "pack <path>",
	Short: "Snapshot a local quest working copy into a Quest Package",
	Long: `pack reads a quest author's local working copy, fetches the matching
live repository (the "origin" git remote), and writes a gzip-compressed
Quest Package named <repo>.json.gz into the current directory.

The resulting package lets learners start this quest with "rqst new
--package" even after the live repository is gone or unreachable.`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	token, err := runtime.GetCredential(ctx)
	if err != nil {
		return err
	}
	client := forge.NewClient(ctx, token)

	local := vcs.Open(path)
	originURL, err := local.RemoteURL(ctx, "origin")
	if err != nil {
		return err
	}
	owner, name, err := runtime.ParseOwnerRepo(originURL)
	if err != nil {
		return err
	}

	remote, err := forge.Load(ctx, client, owner, name)
	if err != nil {
		return err
	}

	builder := questpkg.Builder{LocalVCS: local, Remote: remote}
	pkg, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	outPath := name + ".json.gz"
	if err := pkg.Save(outPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", outPath)
	return nil
}
