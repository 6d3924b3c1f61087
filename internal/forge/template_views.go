package forge

import (
	"context"

	"github.com/repoquest/rqst/internal/questpkg"
	"github.com/repoquest/rqst/internal/template"
)

// upstreamView adapts an *Adapter to template.UpstreamRemote. Adapter's own
// InstantiateFromRepo returns a concrete *Adapter for callers that need the
// full forge vocabulary; template.Source only needs the narrower Remote
// surface, so the view overrides it to return the interface instead.
type upstreamView struct{ *Adapter }

func (u upstreamView) InstantiateFromRepo(ctx context.Context, newOwner, newName string) (template.Remote, error) {
	repo, err := u.Adapter.InstantiateFromRepo(ctx, newOwner, newName)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// AsUpstream exposes an Adapter as a template.UpstreamRemote for RepoTemplate.
func AsUpstream(a *Adapter) template.UpstreamRemote { return upstreamView{a} }

// originFactoryView adapts an *Adapter to template.OriginFactory, for the
// same reason upstreamView exists: narrowing a concrete return type down to
// the interface template.Source expects.
type originFactoryView struct{ *Adapter }

func (f originFactoryView) InstantiateFromPackage(ctx context.Context, newOwner, newName string, pkg *questpkg.Package) (template.Remote, error) {
	repo, err := f.Adapter.InstantiateFromPackage(ctx, newOwner, newName, pkg)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// AsOriginFactory exposes an Adapter as a template.OriginFactory for PackageTemplate.
func AsOriginFactory(a *Adapter) template.OriginFactory { return originFactoryView{a} }
