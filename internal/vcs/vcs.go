// Package vcs is the Local VCS Adapter: every git operation RepoQuest needs
// against one working directory, each run as its own subprocess through
// internal/runner.
package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/repoquest/rqst/embedded"
	"github.com/repoquest/rqst/internal/questcfg"
	"github.com/repoquest/rqst/internal/questpkg"
	"github.com/repoquest/rqst/internal/runner"
)

// MergeType is the tagged variant describing which fallback path the merge
// engine took to produce a chapter's branch.
type MergeType int

const (
	// Success means the patch or cherry-pick range applied cleanly.
	Success MergeType = iota
	// StarterReset means the package-flavor engine fell back to replaying
	// the full patch chain from the initial commit.
	StarterReset
	// SolutionReset means the cherry-pick-flavor engine fell back to
	// overriding the branch with the reference solution outright.
	SolutionReset
)

func (m MergeType) String() string {
	switch m {
	case Success:
		return "success"
	case StarterReset:
		return "starter-reset"
	case SolutionReset:
		return "solution-reset"
	default:
		panic(fmt.Sprintf("vcs: unreachable MergeType variant %d", int(m)))
	}
}

// Adapter wraps a single git working directory.
type Adapter struct {
	dir string
}

// Open wraps an existing working directory without cloning.
func Open(dir string) *Adapter {
	return &Adapter{dir: dir}
}

// Dir returns the adapter's working directory.
func (a *Adapter) Dir() string { return a.dir }

// Clone clones url into a new directory named name inside parentDir and
// returns an adapter over it.
func Clone(ctx context.Context, url, parentDir, name string) (*Adapter, error) {
	if err := runner.Void(ctx, parentDir, "git", "clone", url, name); err != nil {
		return nil, errors.Wrapf(err, "vcs: clone %s", url)
	}
	return &Adapter{dir: filepath.Join(parentDir, name)}, nil
}

// SetupUpstream adds remoteURL as the "upstream" remote and fetches it.
func (a *Adapter) SetupUpstream(ctx context.Context, remoteURL string) error {
	if err := runner.Void(ctx, a.dir, "git", "remote", "add", "upstream", remoteURL); err != nil {
		return errors.Wrap(err, "vcs: add upstream remote")
	}
	if err := runner.Void(ctx, a.dir, "git", "fetch", "upstream"); err != nil {
		return errors.Wrap(err, "vcs: fetch upstream")
	}
	return nil
}

// HasUpstream reports whether the "upstream" remote is configured.
func (a *Adapter) HasUpstream(ctx context.Context) bool {
	out, err := runner.Capture(ctx, a.dir, "git", "remote")
	if err != nil {
		return false
	}
	for _, name := range strings.Fields(out) {
		if name == "upstream" {
			return true
		}
	}
	return false
}

// CheckoutMainAndPull switches to main and fast-forwards it from origin.
func (a *Adapter) CheckoutMainAndPull(ctx context.Context) error {
	if err := runner.Void(ctx, a.dir, "git", "checkout", "main"); err != nil {
		return errors.Wrap(err, "vcs: checkout main")
	}
	if err := runner.Void(ctx, a.dir, "git", "pull", "origin", "main"); err != nil {
		return errors.Wrap(err, "vcs: pull main")
	}
	return nil
}

// HeadCommit returns HEAD's full commit SHA.
func (a *Adapter) HeadCommit(ctx context.Context) (string, error) {
	sha, err := runner.Capture(ctx, a.dir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", errors.Wrap(err, "vcs: resolve HEAD")
	}
	return sha, nil
}

// RevParse resolves ref (a branch, tag, or HEAD) to its full commit SHA
// without changing what is checked out.
func (a *Adapter) RevParse(ctx context.Context, ref string) (string, error) {
	sha, err := runner.Capture(ctx, a.dir, "git", "rev-parse", ref)
	if err != nil {
		return "", errors.Wrapf(err, "vcs: resolve %s", ref)
	}
	return sha, nil
}

// RemoteURL returns the configured fetch URL for the named remote.
func (a *Adapter) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := runner.Capture(ctx, a.dir, "git", "remote", "get-url", remote)
	if err != nil {
		return "", errors.Wrapf(err, "vcs: get-url %s", remote)
	}
	return out, nil
}

// Reset hard-resets the current branch to ref and force-pushes it.
func (a *Adapter) Reset(ctx context.Context, ref string) error {
	if err := runner.Void(ctx, a.dir, "git", "reset", "--hard", ref); err != nil {
		return errors.Wrapf(err, "vcs: reset --hard %s", ref)
	}
	if err := runner.Void(ctx, a.dir, "git", "push", "--force", "origin", "HEAD"); err != nil {
		return errors.Wrap(err, "vcs: force-push after reset")
	}
	return nil
}

// Diff returns the unified diff between base and head.
func (a *Adapter) Diff(ctx context.Context, base, head string) (string, error) {
	out, err := runner.Capture(ctx, a.dir, "git", "diff", base, head)
	if err != nil {
		return "", errors.Wrapf(err, "vcs: diff %s..%s", base, head)
	}
	return out, nil
}

// Show returns path's text content at ref.
func (a *Adapter) Show(ctx context.Context, ref, path string) (string, error) {
	out, err := runner.Capture(ctx, a.dir, "git", "show", ref+":"+path)
	if err != nil {
		return "", errors.Wrapf(err, "vcs: show %s:%s", ref, path)
	}
	return out, nil
}

// ShowBinary returns path's raw content at ref.
func (a *Adapter) ShowBinary(ctx context.Context, ref, path string) ([]byte, error) {
	res, err := runner.Run(ctx, a.dir, "git", "show", ref+":"+path)
	if err != nil {
		return nil, errors.Wrapf(err, "vcs: show %s:%s", ref, path)
	}
	return []byte(res.Stdout), nil
}

// LsTree lists every file path tracked at ref.
func (a *Adapter) LsTree(ctx context.Context, ref string) ([]string, error) {
	out, err := runner.Capture(ctx, a.dir, "git", "ls-tree", "-r", "--name-only", ref)
	if err != nil {
		return nil, errors.Wrapf(err, "vcs: ls-tree %s", ref)
	}
	if out == "" {
		return nil, nil
	}
	paths := strings.Split(out, "\n")
	sort.Strings(paths)
	return paths, nil
}

// ReadInitialFiles reads every tracked file at main into a path→text map.
func (a *Adapter) ReadInitialFiles(ctx context.Context) (map[string]string, error) {
	paths, err := a.LsTree(ctx, "main")
	if err != nil {
		return nil, err
	}
	files := make(map[string]string, len(paths))
	for _, p := range paths {
		text, err := a.Show(ctx, "main", p)
		if err != nil {
			return nil, err
		}
		files[p] = text
	}
	return files, nil
}

// CreateBranch creates and checks out a new branch from the current HEAD.
func (a *Adapter) CreateBranch(ctx context.Context, name string) error {
	if err := runner.Void(ctx, a.dir, "git", "checkout", "-b", name); err != nil {
		return errors.Wrapf(err, "vcs: create branch %s", name)
	}
	return nil
}

// CherryPickRange implements the cherry-pick-flavor merge engine: a range
// cherry-pick of upstream/base..upstream/target onto the current branch. On
// conflict, aborts, hard-resets to upstream/target, soft-resets to main to
// stage the contents as one change, and commits "Override with reference
// solution".
func (a *Adapter) CherryPickRange(ctx context.Context, base, target string) (MergeType, error) {
	rangeSpec := fmt.Sprintf("upstream/%s..upstream/%s", base, target)
	if err := runner.Void(ctx, a.dir, "git", "cherry-pick", rangeSpec); err == nil {
		return Success, nil
	}

	logrus.WithFields(logrus.Fields{
		"component": "vcs",
		"base":      base,
		"target":    target,
	}).Warn("cherry-pick conflict, falling back to reference solution")

	if err := runner.Void(ctx, a.dir, "git", "cherry-pick", "--abort"); err != nil {
		return Success, errors.Wrap(err, "vcs: abort conflicted cherry-pick")
	}
	if err := runner.Void(ctx, a.dir, "git", "reset", "--hard", "upstream/"+target); err != nil {
		return Success, errors.Wrap(err, "vcs: hard-reset to upstream reference solution")
	}
	if err := runner.Void(ctx, a.dir, "git", "reset", "--soft", "main"); err != nil {
		return Success, errors.Wrap(err, "vcs: soft-reset to stage reference solution")
	}
	if err := runner.Void(ctx, a.dir, "git", "commit", "-m", "Override with reference solution"); err != nil {
		return Success, errors.Wrap(err, "vcs: commit reference solution override")
	}
	return SolutionReset, nil
}

// ApplyPatchChain implements the package-flavor merge engine. It attempts
// `git apply` of only the chain's final patch; on failure it hard-resets to
// the "initial" tag and replays every patch in the chain from the start.
// Either path finishes with `git add . && git commit -m "Starter code"`.
func (a *Adapter) ApplyPatchChain(ctx context.Context, chain []questpkg.Patch) (MergeType, error) {
	if len(chain) == 0 {
		return Success, errors.New("vcs: empty patch chain")
	}

	mergeType := Success
	final := chain[len(chain)-1]
	if err := a.applyPatchText(ctx, final.Diff); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "vcs",
			"base":      final.Base,
			"head":      final.Head,
		}).Warn("patch apply failed, replaying chain from initial commit")

		if err := runner.Void(ctx, a.dir, "git", "reset", "--hard", "initial"); err != nil {
			return Success, errors.Wrap(err, "vcs: hard-reset to initial tag")
		}
		for _, patch := range chain {
			if err := a.applyPatchText(ctx, patch.Diff); err != nil {
				return Success, errors.Wrapf(err, "vcs: replay patch %s..%s", patch.Base, patch.Head)
			}
		}
		mergeType = StarterReset
	}

	if err := runner.Void(ctx, a.dir, "git", "add", "."); err != nil {
		return Success, errors.Wrap(err, "vcs: stage starter code")
	}
	if err := runner.Void(ctx, a.dir, "git", "commit", "-m", "Starter code"); err != nil {
		return Success, errors.Wrap(err, "vcs: commit starter code")
	}
	return mergeType, nil
}

func (a *Adapter) applyPatchText(ctx context.Context, diff string) error {
	path := filepath.Join(a.dir, ".rqst-patch.diff")
	// Diff text captured through runner.Capture loses its final newline,
	// which git apply rejects as a corrupt patch.
	if !strings.HasSuffix(diff, "\n") {
		diff += "\n"
	}
	if err := os.WriteFile(path, []byte(diff), 0o644); err != nil {
		return errors.Wrap(err, "vcs: write patch file")
	}
	defer os.Remove(path)
	return runner.Void(ctx, a.dir, "git", "apply", path)
}

// PushBranchTracking pushes branch with upstream tracking set and returns
// the post-commit head SHA, then checks out main.
func (a *Adapter) PushBranchTracking(ctx context.Context, branch string) (string, error) {
	if err := runner.Void(ctx, a.dir, "git", "push", "-u", "origin", branch); err != nil {
		return "", errors.Wrapf(err, "vcs: push %s with tracking", branch)
	}
	sha, err := a.HeadCommit(ctx)
	if err != nil {
		return "", err
	}
	if err := runner.Void(ctx, a.dir, "git", "checkout", "main"); err != nil {
		return "", errors.Wrap(err, "vcs: return to main")
	}
	return sha, nil
}

// WriteInitialFiles materializes a package's initial file tree on main,
// commits it, tags it "initial", pushes main, then writes rqst.toml and the
// compressed package blob on a fresh "meta" branch.
func (a *Adapter) WriteInitialFiles(ctx context.Context, pkg *questpkg.Package) error {
	for path, text := range pkg.Initial {
		full := filepath.Join(a.dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return errors.Wrapf(err, "vcs: create directory for %s", path)
		}
		mode := os.FileMode(0o644)
		if strings.HasPrefix(path, ".githooks/") {
			mode = 0o755
		}
		if err := os.WriteFile(full, []byte(text), mode); err != nil {
			return errors.Wrapf(err, "vcs: write initial file %s", path)
		}
	}

	if err := runner.Void(ctx, a.dir, "git", "add", "."); err != nil {
		return errors.Wrap(err, "vcs: stage initial files")
	}
	if err := runner.Void(ctx, a.dir, "git", "commit", "-m", "Initial commit"); err != nil {
		return errors.Wrap(err, "vcs: commit initial files")
	}
	if err := runner.Void(ctx, a.dir, "git", "tag", "initial"); err != nil {
		return errors.Wrap(err, "vcs: tag initial commit")
	}
	if err := runner.Void(ctx, a.dir, "git", "push", "origin", "main"); err != nil {
		return errors.Wrap(err, "vcs: push main")
	}

	return a.writeMetaBranch(ctx, &pkg.Config, pkg)
}

// writeMetaBranch checks out a fresh "meta" branch, writes rqst.toml and
// (when pkg is non-nil) the compressed package blob, commits, pushes, and
// returns to main.
func (a *Adapter) writeMetaBranch(ctx context.Context, cfg *questcfg.Config, pkg *questpkg.Package) error {
	if err := runner.Void(ctx, a.dir, "git", "checkout", "--orphan", "meta"); err != nil {
		return errors.Wrap(err, "vcs: create meta branch")
	}
	if err := runner.Void(ctx, a.dir, "git", "rm", "-rf", "--cached", "."); err != nil {
		return errors.Wrap(err, "vcs: clear meta branch staging")
	}

	cfgBytes, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(a.dir, "rqst.toml"), cfgBytes, 0o644); err != nil {
		return errors.Wrap(err, "vcs: write rqst.toml on meta branch")
	}

	if pkg != nil {
		pkgBytes, err := pkg.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(a.dir, "package.json.gz"), pkgBytes, 0o644); err != nil {
			return errors.Wrap(err, "vcs: write package.json.gz on meta branch")
		}
	}

	if err := runner.Void(ctx, a.dir, "git", "add", "rqst.toml", "package.json.gz"); err != nil {
		// package.json.gz may not exist for repo-template quests; retry with just rqst.toml.
		if err := runner.Void(ctx, a.dir, "git", "add", "rqst.toml"); err != nil {
			return errors.Wrap(err, "vcs: stage meta branch files")
		}
	}
	if err := runner.Void(ctx, a.dir, "git", "commit", "-m", "Quest metadata"); err != nil {
		return errors.Wrap(err, "vcs: commit meta branch")
	}
	if err := runner.Void(ctx, a.dir, "git", "push", "-u", "origin", "meta"); err != nil {
		return errors.Wrap(err, "vcs: push meta branch")
	}
	if err := runner.Void(ctx, a.dir, "git", "checkout", "main"); err != nil {
		return errors.Wrap(err, "vcs: return to main")
	}
	return nil
}

// WriteConfigOnly writes rqst.toml to the meta branch without a package
// blob, used by repo-template quests (which have no Quest Package).
func (a *Adapter) WriteConfigOnly(ctx context.Context, cfg *questcfg.Config) error {
	return a.writeMetaBranch(ctx, cfg, nil)
}

// InstallHooks writes the bundled post-checkout reminder hook into
// .githooks if the clone doesn't already carry its own, runs it once, and
// points core.hooksPath at the .githooks directory for future checkouts.
func (a *Adapter) InstallHooks(ctx context.Context) error {
	hookDir := filepath.Join(a.dir, ".githooks")
	hookPath := filepath.Join(hookDir, "post-checkout")
	if _, err := os.Stat(hookPath); err != nil {
		if err := os.MkdirAll(hookDir, 0o755); err != nil {
			return errors.Wrap(err, "vcs: create .githooks")
		}
		if err := os.WriteFile(hookPath, embedded.PostCheckoutHook, 0o755); err != nil {
			return errors.Wrap(err, "vcs: write default post-checkout hook")
		}
	}
	if err := runner.Void(ctx, a.dir, hookPath); err != nil {
		return errors.Wrap(err, "vcs: run post-checkout hook")
	}
	if err := runner.Void(ctx, a.dir, "git", "config", "core.hooksPath", ".githooks"); err != nil {
		return errors.Wrap(err, "vcs: set core.hooksPath")
	}
	return nil
}

// ReadMetaFile reads a file's text content from the meta branch, local or
// via a fetched remote-tracking ref (e.g. "meta" or "origin/meta").
func (a *Adapter) ReadMetaFile(ctx context.Context, ref, path string) (string, error) {
	return a.Show(ctx, ref, path)
}
