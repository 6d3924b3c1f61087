// Package forge adapts RepoQuest's chapter-filing operations onto a
// concrete code-hosting API (GitHub via github.com/google/go-github/v27).
package forge

import "github.com/repoquest/rqst/internal/entity"

// These aliases let forge's own API read in domain terms (forge.Issue,
// forge.FullPullRequest, ...) while the underlying types live in
// internal/entity, shared with internal/questpkg without a dependency cycle
// between the two.
type (
	Label             = entity.Label
	Comment           = entity.Comment
	Issue             = entity.Issue
	PullRef           = entity.PullRef
	FullPullRequest   = entity.FullPullRequest
	RepoContentStatus = entity.RepoContentStatus
	PullSelector      = entity.PullSelector
)

const (
	StatusHasContent = entity.StatusHasContent
	StatusNoContent  = entity.StatusNoContent
	StatusNotFound   = entity.StatusNotFound
)

// ByBranch selects a pull request by its head branch name.
func ByBranch(name string) PullSelector { return entity.ByBranch(name) }

// ByLabel selects a pull request by the chapter label it was filed under.
func ByLabel(name string) PullSelector { return entity.ByLabel(name) }
