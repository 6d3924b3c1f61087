package template

import (
	"context"

	"github.com/pkg/errors"

	"github.com/repoquest/rqst/internal/engineerr"
	"github.com/repoquest/rqst/internal/entity"
	"github.com/repoquest/rqst/internal/questpkg"
	"github.com/repoquest/rqst/internal/vcs"
)

// OriginFactory is the subset of the Remote Service Adapter PackageTemplate
// needs to seed a brand new, empty origin repository.
type OriginFactory interface {
	InstantiateFromPackage(ctx context.Context, newOwner, newName string, pkg *questpkg.Package) (Remote, error)
}

// PackageTemplate seeds a quest from a previously built, offline Quest
// Package: chapters are materialized by replaying recorded unified diffs
// rather than cherry-picking live commits.
type PackageTemplate struct {
	factory OriginFactory
	// owner is the learner's own account the new origin is created under —
	// distinct from pkg.Config.Author, which names the original quest's
	// upstream author and has no bearing on where this playthrough lives.
	owner string
	pkg   *questpkg.Package
}

// NewPackageTemplate wraps a loaded package, the learner account the new
// origin repository is created under, and the factory used to create it.
func NewPackageTemplate(factory OriginFactory, owner string, pkg *questpkg.Package) *PackageTemplate {
	return &PackageTemplate{factory: factory, owner: owner, pkg: pkg}
}

// Instantiate creates a new empty origin, clones it, then writes the
// package's initial file tree and the meta branch (config plus the package
// blob itself) in the clone and pushes them.
func (t *PackageTemplate) Instantiate(ctx context.Context, localParentDir string) (Instantiation, error) {
	origin, err := t.factory.InstantiateFromPackage(ctx, t.owner, t.pkg.Config.Repo, t.pkg)
	if err != nil {
		return Instantiation{}, errors.Wrap(err, "template: create empty origin for package")
	}

	local, err := origin.Clone(ctx, localParentDir)
	if err != nil {
		return Instantiation{}, errors.Wrap(err, "template: clone new origin")
	}

	if err := local.WriteInitialFiles(ctx, t.pkg); err != nil {
		return Instantiation{}, err
	}

	cfg := t.pkg.Config
	return Instantiation{Origin: origin, Local: local, Config: &cfg}, nil
}

// PullRequest serves a pull request from the in-memory package snapshot.
func (t *PackageTemplate) PullRequest(selector entity.PullSelector) (entity.FullPullRequest, error) {
	for _, pr := range t.pkg.Pulls {
		if selector.Matches(pr) {
			return pr, nil
		}
	}
	return entity.FullPullRequest{}, errors.Errorf("template: no packaged pull request matching %s", selector)
}

// Issue serves an issue from the in-memory package snapshot.
func (t *PackageTemplate) Issue(label string) (entity.Issue, error) {
	for _, iss := range t.pkg.Issues {
		if iss.Label == label {
			return iss, nil
		}
	}
	return entity.Issue{}, errors.Errorf("template: no packaged issue labeled %q", label)
}

// ApplyPatch creates the target branch, applies the packaged patch chain
// ending at (base, target)'s index through vcs.Adapter.ApplyPatchChain, and
// pushes the branch.
func (t *PackageTemplate) ApplyPatch(ctx context.Context, local *vcs.Adapter, base, target string) (vcs.MergeType, error) {
	index, ok := t.pkg.PatchIndex(base, target)
	if !ok {
		return vcs.Success, errors.Wrapf(engineerr.ErrNoPatchForChapter, "template: %s..%s", base, target)
	}

	if err := local.CreateBranch(ctx, target); err != nil {
		return vcs.Success, err
	}
	mergeType, err := local.ApplyPatchChain(ctx, t.pkg.Patches[:index+1])
	if err != nil {
		return vcs.Success, err
	}
	if _, err := local.PushBranchTracking(ctx, target); err != nil {
		return vcs.Success, err
	}
	return mergeType, nil
}

// ReferenceSolutionPRURL always reports absent: a package-seeded quest has
// no live upstream pull request to link to.
func (t *PackageTemplate) ReferenceSolutionPRURL(chapterLabel string) (string, bool) {
	return "", false
}

// CanSkip reports that chapter-skipping is not supported: skipping forward
// needs a live upstream's reference solution, which a package-seeded quest
// does not have.
func (t *PackageTemplate) CanSkip() bool { return false }
