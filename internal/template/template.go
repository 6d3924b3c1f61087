// Package template implements the Template Source: the closed sum of the
// two ways a quest can be seeded, a live upstream repository or a loaded
// Quest Package.
package template

import (
	"context"

	"github.com/repoquest/rqst/internal/entity"
	"github.com/repoquest/rqst/internal/questcfg"
	"github.com/repoquest/rqst/internal/vcs"
)

// Instantiation is what Instantiate produces: a freshly created origin
// repository and a local clone of it, ready for the runtime to work on.
type Instantiation struct {
	Origin Remote
	Local  *vcs.Adapter
	Config *questcfg.Config
}

// Remote is the subset of the Remote Service Adapter a Source needs.
type Remote interface {
	Owner() string
	Name() string
	HTMLURL() string
	Clone(ctx context.Context, parentDir string) (*vcs.Adapter, error)
}

// Source is the closed, two-variant Template Source interface. Every
// operation except Instantiate is synchronous.
type Source interface {
	Instantiate(ctx context.Context, localParentDir string) (Instantiation, error)
	PullRequest(selector entity.PullSelector) (entity.FullPullRequest, error)
	Issue(label string) (entity.Issue, error)
	ApplyPatch(ctx context.Context, local *vcs.Adapter, base, target string) (vcs.MergeType, error)
	ReferenceSolutionPRURL(chapterLabel string) (url string, ok bool)
	CanSkip() bool
}
