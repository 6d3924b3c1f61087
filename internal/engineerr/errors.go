// Package engineerr defines the error kinds shared across the RepoQuest
// engine. Sentinels are matched with errors.Is; call sites wrap them with
// github.com/pkg/errors so the chain keeps file/line and argument context.
package engineerr

import "errors"

var (
	// ErrCredentialNotFound means neither ~/.rqst-token nor `gh auth token`
	// produced a usable token. Recoverable: the UI surface should prompt
	// the learner to authenticate rather than treating this as a failure.
	ErrCredentialNotFound = errors.New("no credential found in ~/.rqst-token or gh auth token")

	// ErrRepoNotFound is returned when the forge reports 404 for a repo
	// that the caller expected to already exist.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrBadBranchName names a branch that does not parse as
	// <chapter-label>-<a|b> against the quest's known chapter labels. No
	// engine function returns it: stage.List.ParseBranch reports that case
	// with ok == false.
	ErrBadBranchName = errors.New("branch name does not match <label>-a or <label>-b")

	// ErrUnknownChapterLabel names a branch or placeholder that refers to a
	// chapter label absent from the quest config. No engine function
	// returns it: such branches are skipped during state inference and such
	// placeholders are left untouched by substitution.
	ErrUnknownChapterLabel = errors.New("unknown chapter label")

	// ErrNoPatchForChapter is returned when a package's patch list is
	// missing an entry a starter-bearing chapter requires.
	ErrNoPatchForChapter = errors.New("no patch indexed for chapter")

	// ErrPackageVersionMismatch is the warning questpkg.Decode logs for an
	// incompatible package version; it is never returned to a caller.
	ErrPackageVersionMismatch = errors.New("package version does not satisfy engine's compatibility range")

	// ErrCannotSkip is returned when SkipToStage is invoked against a
	// template variant whose CanSkip() is false (package-seeded quests).
	ErrCannotSkip = errors.New("this quest's template does not support skipping chapters")

	// ErrMissingTitleOrBody is an Invariant-kind error: the author supplied
	// a pull or issue with no title or no body. A programmer/author fault,
	// not a runtime condition a learner can trigger.
	ErrMissingTitleOrBody = errors.New("pull or issue is missing a title or body")

	// ErrUnknownPlaceholderKind is an Invariant-kind error: an issue body
	// substitution placeholder named a kind other than "pr" or "issue".
	ErrUnknownPlaceholderKind = errors.New("unknown substitution placeholder kind")
)

// NotFounder is implemented by remote-API errors that can classify
// themselves as a 404 without the caller needing to inspect transport
// internals.
type NotFounder interface {
	NotFound() bool
}

// IsNotFound reports whether err (or anything in its chain) represents a
// 404 from the forge.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf NotFounder
	for {
		if n, ok := err.(NotFounder); ok {
			nf = n
			return nf.NotFound()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
		if err == nil {
			return false
		}
	}
}
