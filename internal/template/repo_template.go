package template

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/repoquest/rqst/internal/entity"
	"github.com/repoquest/rqst/internal/questcfg"
	"github.com/repoquest/rqst/internal/vcs"
)

// UpstreamRemote is the subset of the Remote Service Adapter RepoTemplate
// needs from a live upstream.
type UpstreamRemote interface {
	Remote
	InstantiateFromRepo(ctx context.Context, newOwner, newName string) (Remote, error)
	PR(selector entity.PullSelector) (entity.FullPullRequest, bool)
	Issue(label string) (entity.Issue, bool)
}

// RepoTemplate seeds a quest from a live upstream repository: chapters are
// materialized by cherry-picking real commit ranges out of the upstream's
// own branch history.
type RepoTemplate struct {
	upstream UpstreamRemote
	// owner is the learner's own account the generated origin is created
	// under — distinct from the upstream template's owner, which the
	// learner cannot write to.
	owner string
}

// NewRepoTemplate wraps an already-loaded upstream adapter and the learner
// account the generated origin repository is created under.
func NewRepoTemplate(upstream UpstreamRemote, owner string) *RepoTemplate {
	return &RepoTemplate{upstream: upstream, owner: owner}
}

// Instantiate generates a new origin from the upstream template under the
// learner's own account, clones it, attaches the upstream as a git remote,
// and loads the quest configuration from upstream/meta:rqst.toml.
func (t *RepoTemplate) Instantiate(ctx context.Context, localParentDir string) (Instantiation, error) {
	origin, err := t.upstream.InstantiateFromRepo(ctx, t.owner, t.upstream.Name())
	if err != nil {
		return Instantiation{}, errors.Wrap(err, "template: generate origin from upstream")
	}

	local, err := origin.Clone(ctx, localParentDir)
	if err != nil {
		return Instantiation{}, errors.Wrap(err, "template: clone generated origin")
	}

	if err := local.SetupUpstream(ctx, t.upstream.HTMLURL()+".git"); err != nil {
		return Instantiation{}, err
	}

	raw, err := local.ReadMetaFile(ctx, "upstream/meta", "rqst.toml")
	if err != nil {
		return Instantiation{}, errors.Wrap(err, "template: load upstream/meta:rqst.toml")
	}
	cfg, err := questcfg.Decode([]byte(raw))
	if err != nil {
		return Instantiation{}, err
	}

	return Instantiation{Origin: origin, Local: local, Config: cfg}, nil
}

// PullRequest reads a pull request from the upstream's cache.
func (t *RepoTemplate) PullRequest(selector entity.PullSelector) (entity.FullPullRequest, error) {
	pr, ok := t.upstream.PR(selector)
	if !ok {
		return entity.FullPullRequest{}, errors.Errorf("template: no upstream pull request matching %s", selector)
	}
	return pr, nil
}

// Issue reads an issue from the upstream's cache.
func (t *RepoTemplate) Issue(label string) (entity.Issue, error) {
	iss, ok := t.upstream.Issue(label)
	if !ok {
		return entity.Issue{}, errors.Errorf("template: no upstream issue labeled %q", label)
	}
	return iss, nil
}

// ApplyPatch creates the target branch and cherry-picks the real commit
// range upstream/base..upstream/target onto it.
func (t *RepoTemplate) ApplyPatch(ctx context.Context, local *vcs.Adapter, base, target string) (vcs.MergeType, error) {
	if err := local.CreateBranch(ctx, target); err != nil {
		return vcs.Success, err
	}
	mergeType, err := local.CherryPickRange(ctx, base, target)
	if err != nil {
		return vcs.Success, err
	}
	if _, err := local.PushBranchTracking(ctx, target); err != nil {
		return vcs.Success, err
	}
	return mergeType, nil
}

// ReferenceSolutionPRURL returns the upstream solution pull request's URL
// for the given chapter, if one exists.
func (t *RepoTemplate) ReferenceSolutionPRURL(chapterLabel string) (string, bool) {
	pr, ok := t.upstream.PR(entity.ByLabel(chapterLabel))
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s/pull/%d", t.upstream.HTMLURL(), pr.Number), true
}

// CanSkip reports that chapter-skipping is supported against a live
// upstream (its reference solution branches always exist).
func (t *RepoTemplate) CanSkip() bool { return true }
