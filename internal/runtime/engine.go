// Package runtime is the Quest Runtime: the orchestrator that composes the
// Remote Service Adapter, the Local VCS Adapter, and a Template Source into
// the state-inference loop and chapter-filing sequence a learner drives.
package runtime

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/go-github/v27/github"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/repoquest/rqst/internal/engineerr"
	"github.com/repoquest/rqst/internal/entity"
	"github.com/repoquest/rqst/internal/forge"
	"github.com/repoquest/rqst/internal/questcfg"
	"github.com/repoquest/rqst/internal/questpkg"
	"github.com/repoquest/rqst/internal/stage"
	"github.com/repoquest/rqst/internal/template"
	"github.com/repoquest/rqst/internal/vcs"
)

// Origin is the subset of the Remote Service Adapter the runtime needs
// against the quest's own origin repository — as opposed to the upstream
// template a RepoTemplate additionally reads from, which stays hidden
// behind template.Source.
type Origin interface {
	template.Remote
	Fetch(ctx context.Context) (bool, error)
	Issues() []entity.Issue
	FullPulls() []entity.FullPullRequest
	PR(selector entity.PullSelector) (entity.FullPullRequest, bool)
	Issue(label string) (entity.Issue, bool)
	CopyPR(ctx context.Context, fullPR entity.FullPullRequest, headSHA string, mergeType vcs.MergeType) (entity.FullPullRequest, error)
	CopyIssue(ctx context.Context, issue entity.Issue) (entity.Issue, error)
	CloseIssue(ctx context.Context, issue entity.Issue) error
	MergePR(ctx context.Context, pull entity.FullPullRequest) error
	PackageBlob(ctx context.Context) ([]byte, error)
}

// Engine is the Quest Runtime for one local quest working copy. Construct
// it with Create (new quest) or Load (existing one); every other operation
// is an exported method.
type Engine struct {
	dir      string
	source   template.Source
	origin   Origin
	local    *vcs.Adapter
	chapters *stage.List
	config   *questcfg.Config
	emitter  Emitter

	pollMu     sync.Mutex
	cancelPoll context.CancelFunc
}

// Create instantiates a brand new quest: it runs source.Instantiate (which
// creates the origin and seeds it), installs local git hooks, and performs
// the first state refresh.
func Create(ctx context.Context, dir string, source template.Source, emitter Emitter) (*Engine, error) {
	inst, err := source.Instantiate(ctx, dir)
	if err != nil {
		return nil, errors.Wrap(err, "runtime: instantiate quest")
	}
	origin, ok := inst.Origin.(Origin)
	if !ok {
		return nil, errors.New("runtime: origin remote does not implement the full Remote Service Adapter surface")
	}
	if err := inst.Local.InstallHooks(ctx); err != nil {
		return nil, err
	}
	chapters, err := inst.Config.Chapters()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dir: dir, source: source, origin: origin, local: inst.Local,
		chapters: chapters, config: inst.Config, emitter: emitter,
	}
	if err := e.RefreshState(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Load re-opens an existing local quest working copy: it reads config off
// the local meta branch, loads the origin from the remote, and — based on
// whether an "upstream" remote is configured — reconstructs either a
// RepoTemplate (re-fetching the live upstream) or a PackageTemplate
// (reading the package blob back off origin/meta:package.json.gz).
func Load(ctx context.Context, dir string, client *github.Client, emitter Emitter) (*Engine, error) {
	local := vcs.Open(dir)

	raw, err := local.ReadMetaFile(ctx, "meta", "rqst.toml")
	if err != nil {
		return nil, errors.Wrap(err, "runtime: load local meta:rqst.toml")
	}
	cfg, err := questcfg.Decode([]byte(raw))
	if err != nil {
		return nil, err
	}
	chapters, err := cfg.Chapters()
	if err != nil {
		return nil, err
	}

	originURL, err := local.RemoteURL(ctx, "origin")
	if err != nil {
		return nil, errors.Wrap(err, "runtime: resolve origin remote")
	}
	originOwner, originName, err := parseOwnerRepo(originURL)
	if err != nil {
		return nil, err
	}
	originAdapter, err := forge.Load(ctx, client, originOwner, originName)
	if err != nil {
		return nil, err
	}

	source, err := loadSource(ctx, client, local, originAdapter, originOwner)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dir: dir, source: source, origin: originAdapter, local: local,
		chapters: chapters, config: cfg, emitter: emitter,
	}
	if err := e.RefreshState(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// loadSource reconstructs the template.Source used to create this quest.
// originOwner is the learner's own account — the origin repository already
// lives there by construction, so it doubles as the owner a reconstructed
// RepoTemplate would generate future repositories under.
func loadSource(ctx context.Context, client *github.Client, local *vcs.Adapter, origin *forge.Adapter, originOwner string) (template.Source, error) {
	if local.HasUpstream(ctx) {
		upstreamURL, err := local.RemoteURL(ctx, "upstream")
		if err != nil {
			return nil, errors.Wrap(err, "runtime: resolve upstream remote")
		}
		upstreamOwner, upstreamName, err := parseOwnerRepo(upstreamURL)
		if err != nil {
			return nil, err
		}
		upstreamAdapter, err := forge.Load(ctx, client, upstreamOwner, upstreamName)
		if err != nil {
			return nil, err
		}
		return template.NewRepoTemplate(forge.AsUpstream(upstreamAdapter), originOwner), nil
	}

	blob, err := origin.PackageBlob(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "runtime: load origin/meta:package.json.gz")
	}
	pkg, err := questpkg.Decode(blob)
	if err != nil {
		return nil, err
	}
	return template.NewPackageTemplate(forge.AsOriginFactory(origin), origin.Owner(), pkg), nil
}

var remoteURLPattern = regexp.MustCompile(`(?:github\.com[:/])([^/]+)/([^/]+?)(?:\.git)?/?$`)

// parseOwnerRepo extracts an (owner, name) pair from a git remote's fetch
// URL, accepting both the https:// and git@ forms.
func parseOwnerRepo(remoteURL string) (owner, name string, err error) {
	m := remoteURLPattern.FindStringSubmatch(remoteURL)
	if m == nil {
		return "", "", errors.Errorf("runtime: cannot parse owner/repo from remote URL %q", remoteURL)
	}
	return m[1], m[2], nil
}

// ParseOwnerRepo is the exported form of parseOwnerRepo, for callers outside
// this package (the `rqst pack` command resolves a working copy's "origin"
// remote the same way Load resolves a quest clone's).
func ParseOwnerRepo(remoteURL string) (owner, name string, err error) {
	return parseOwnerRepo(remoteURL)
}

// baseBranchFor resolves the base branch a chapter's pull should be filed
// from, for either stage part. Unifies the duplicated rule that otherwise
// appears separately in FileFeatureAndIssue and FileSolution.
func (e *Engine) baseBranchFor(chapterIndex int, part stage.Part) string {
	chapter := e.chapters.At(chapterIndex)
	switch part {
	case stage.Starter:
		if chapterIndex == 0 {
			return "main"
		}
		return e.chapters.At(chapterIndex - 1).SolutionBranch()
	case stage.Solution:
		if !chapter.NoStarter {
			return chapter.StarterBranch()
		}
		if chapterIndex == 0 {
			return "main"
		}
		return e.chapters.At(chapterIndex - 1).SolutionBranch()
	default:
		panic(fmt.Sprintf("runtime: unreachable Part variant %d", int(part)))
	}
}

// filePR checks out and pulls main, asks the template to materialize
// target's branch from base (cherry-pick or patch-chain, depending on the
// Source variant), then copies the template's pull onto the origin.
func (e *Engine) filePR(ctx context.Context, base, target string) (vcs.MergeType, error) {
	if err := e.local.CheckoutMainAndPull(ctx); err != nil {
		return vcs.Success, err
	}

	mergeType, err := e.source.ApplyPatch(ctx, e.local, base, target)
	if err != nil {
		return vcs.Success, err
	}

	headSHA, err := e.local.RevParse(ctx, target)
	if err != nil {
		return vcs.Success, err
	}

	templatePR, err := e.source.PullRequest(entity.ByBranch(target))
	if err != nil {
		return vcs.Success, err
	}

	if _, err := e.origin.CopyPR(ctx, templatePR, headSHA, mergeType); err != nil {
		return vcs.Success, err
	}
	return mergeType, nil
}

// FileIssue copies chapter i's issue from the template onto the origin,
// then refreshes state.
func (e *Engine) FileIssue(ctx context.Context, chapterIndex int) error {
	chapter := e.chapters.At(chapterIndex)
	templateIssue, err := e.source.Issue(chapter.Label)
	if err != nil {
		return err
	}
	if _, err := e.origin.CopyIssue(ctx, templateIssue); err != nil {
		return err
	}
	return e.RefreshState(ctx)
}

// FileFeatureAndIssue files chapter i's starter pull (unless the chapter
// has no starter, in which case this step is a no-op) and, after a state
// refresh makes the pull visible for substitution, files its issue.
func (e *Engine) FileFeatureAndIssue(ctx context.Context, chapterIndex int) error {
	chapter := e.chapters.At(chapterIndex)
	if !chapter.NoStarter {
		base := e.baseBranchFor(chapterIndex, stage.Starter)
		if _, err := e.filePR(ctx, base, chapter.StarterBranch()); err != nil {
			return err
		}
		if err := e.RefreshState(ctx); err != nil {
			return err
		}
	}
	return e.FileIssue(ctx, chapterIndex)
}

// FileSolution files chapter i's solution pull.
func (e *Engine) FileSolution(ctx context.Context, chapterIndex int) error {
	chapter := e.chapters.At(chapterIndex)
	base := e.baseBranchFor(chapterIndex, stage.Solution)
	if _, err := e.filePR(ctx, base, chapter.SolutionBranch()); err != nil {
		return err
	}
	return e.RefreshState(ctx)
}

// SkipToStage hard-resets local main to the previous chapter's reference
// solution, files and immediately closes that chapter's issue on the
// origin, then refreshes state — advancing the visible progression to
// chapter i's starter. Only permitted when the template supports skipping.
func (e *Engine) SkipToStage(ctx context.Context, chapterIndex int) error {
	if !e.source.CanSkip() {
		return errors.Wrap(engineerr.ErrCannotSkip, "runtime: skip to stage")
	}
	if chapterIndex <= 0 || chapterIndex > e.chapters.Len() {
		return errors.Errorf("runtime: cannot skip to chapter %d", chapterIndex)
	}

	previous := e.chapters.At(chapterIndex - 1)
	if err := e.local.CheckoutMainAndPull(ctx); err != nil {
		return err
	}
	if err := e.local.Reset(ctx, "upstream/"+previous.SolutionBranch()); err != nil {
		return err
	}

	templateIssue, err := e.source.Issue(previous.Label)
	if err != nil {
		return err
	}
	createdIssue, err := e.origin.CopyIssue(ctx, templateIssue)
	if err != nil {
		return err
	}
	if err := e.origin.CloseIssue(ctx, createdIssue); err != nil {
		return err
	}
	return e.RefreshState(ctx)
}

// RefreshState re-fetches the origin's snapshot, re-infers the quest
// state, and publishes a StateDescriptor to the emitter. A 404 from the
// origin is not an error: it yields the ground state (the origin has not
// finished being seeded yet).
func (e *Engine) RefreshState(ctx context.Context) error {
	found, err := e.origin.Fetch(ctx)
	if err != nil {
		return errors.Wrap(err, "runtime: refresh origin snapshot")
	}

	var state QuestState
	var issues []entity.Issue
	var pulls []entity.FullPullRequest
	if found {
		issues = e.origin.Issues()
		pulls = e.origin.FullPulls()
		state = inferState(e.chapters, pulls, issues)
	} else {
		state = groundState()
	}

	if e.emitter != nil {
		e.emitter.StateEvent(e.describe(state, issues, pulls))
	}
	return nil
}

// Start begins the 10s background poll loop. A fatal refresh error is
// surfaced to the emitter's Fatal hook and the loop's goroutine exits;
// manual RefreshState calls still work afterward. Cancelling ctx, or
// calling Stop, also terminates the loop.
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.pollMu.Lock()
	e.cancelPoll = cancel
	e.pollMu.Unlock()

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.RefreshState(ctx); err != nil {
					logrus.WithFields(logrus.Fields{"component": "runtime"}).WithError(err).Error("poll loop refresh failed, stopping")
					e.emitter.Fatal(err)
					return
				}
			}
		}
	}()
}

// Stop cancels the background poll loop if one is running.
func (e *Engine) Stop() {
	e.pollMu.Lock()
	cancel := e.cancelPoll
	e.cancelPoll = nil
	e.pollMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Dir returns the local working directory this engine was opened against.
func (e *Engine) Dir() string { return e.dir }
