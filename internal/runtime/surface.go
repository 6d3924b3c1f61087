package runtime

import (
	"context"
	"os"

	"github.com/google/go-github/v27/github"
	"github.com/pkg/errors"

	"github.com/repoquest/rqst/internal/credential"
	"github.com/repoquest/rqst/internal/forge"
	"github.com/repoquest/rqst/internal/questpkg"
	"github.com/repoquest/rqst/internal/template"
)

// Session holds the process-wide state a hosted UI shell needs before any
// particular quest is opened: the API client, authenticated with the token
// passed to InitAPI. Every Engine a Session creates or loads shares the one
// client.
type Session struct {
	client *github.Client
}

// GetCredential resolves a usable API token via the ~/.rqst-token /
// `gh auth token` cascade, without storing or using it yet.
func GetCredential(ctx context.Context) (string, error) {
	return credential.Resolve(ctx)
}

// InitAPI constructs the API client this Session will hand to every Engine
// it creates or loads.
func (s *Session) InitAPI(token string) {
	s.client = forge.NewClient(context.Background(), token)
}

// CurrentDir reports the process's working directory, the default root a
// hosted UI offers when prompting where to place a new quest.
func CurrentDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "runtime: get working directory")
	}
	return dir, nil
}

// Location selects what a new quest is seeded from: a live upstream
// repository, or an offline Quest Package file. It is a closed sum in the
// same style as QuestState: construct with RemoteLocation or
// PackageLocation, never the zero value.
type Location struct {
	owner, repo string
	packagePath string
	isPackage   bool
}

// RemoteLocation seeds a new quest from a live upstream repository
// identified by owner/repo, generated via the code host's repository
// template mechanism.
func RemoteLocation(owner, repo string) Location {
	return Location{owner: owner, repo: repo}
}

// PackageLocation seeds a new quest from a previously built, offline Quest
// Package file on disk.
func PackageLocation(packagePath string) Location {
	return Location{packagePath: packagePath, isPackage: true}
}

// NewQuest materializes source from location, then creates a new quest at
// dir. For a RemoteLocation this generates a repository from the named
// upstream template; for a PackageLocation this creates an empty private
// repository under the authenticated user's own account and seeds it from
// the package.
func (s *Session) NewQuest(ctx context.Context, dir string, location Location, emitter Emitter) (*Engine, error) {
	if s.client == nil {
		return nil, errors.New("runtime: InitAPI must be called before NewQuest")
	}

	source, err := s.resolveSource(ctx, location)
	if err != nil {
		return nil, err
	}
	return Create(ctx, dir, source, emitter)
}

func (s *Session) resolveSource(ctx context.Context, location Location) (template.Source, error) {
	if !location.isPackage {
		upstream, err := forge.Load(ctx, s.client, location.owner, location.repo)
		if err != nil {
			return nil, err
		}
		login, err := s.currentLogin(ctx)
		if err != nil {
			return nil, err
		}
		return template.NewRepoTemplate(forge.AsUpstream(upstream), login), nil
	}

	pkg, err := questpkg.Load(location.packagePath)
	if err != nil {
		return nil, err
	}
	login, err := s.currentLogin(ctx)
	if err != nil {
		return nil, err
	}
	factory := forge.Open(s.client, "", "")
	return template.NewPackageTemplate(forge.AsOriginFactory(factory), login, pkg), nil
}

// currentLogin resolves the authenticated user's own account name, the
// owner a new quest's origin repository is created under, whether it is
// generated from an upstream or seeded from a package.
func (s *Session) currentLogin(ctx context.Context) (string, error) {
	user, _, err := s.client.Users.Get(ctx, "")
	if err != nil {
		return "", errors.Wrap(err, "runtime: resolve authenticated user")
	}
	return user.GetLogin(), nil
}

// LoadQuest re-opens an existing local quest working copy.
func (s *Session) LoadQuest(ctx context.Context, dir string, emitter Emitter) (*Engine, error) {
	if s.client == nil {
		return nil, errors.New("runtime: InitAPI must be called before LoadQuest")
	}
	return Load(ctx, dir, s.client, emitter)
}
