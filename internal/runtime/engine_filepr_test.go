package runtime

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/repoquest/rqst/internal/entity"
	"github.com/repoquest/rqst/internal/stage"
	"github.com/repoquest/rqst/internal/vcs"
)

// The filePR chain (CheckoutMainAndPull, RevParse) shells out to git for
// real, so exercising its success path needs an actual clone rather than
// the zero-value vcs.Adapter the other engine tests open against an empty
// temp dir.

func runGit(t *testing.T, cwd string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = cwd
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, string(out))
	}
}

func initBareOrigin(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "origin.git")
	runGit(t, filepath.Dir(dir), "init", "--bare", dir)
	return dir
}

func cloneWorking(t *testing.T, originPath string) string {
	t.Helper()
	parent := t.TempDir()
	runGit(t, parent, "clone", originPath, "work")
	dir := filepath.Join(parent, "work")
	runGit(t, dir, "config", "user.email", "quest@example.com")
	runGit(t, dir, "config", "user.name", "Quest")
	return dir
}

func seedInitialCommit(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# quest\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", "README.md")
	runGit(t, dir, "commit", "-m", "initial")
	runGit(t, dir, "branch", "-M", "main")
	runGit(t, dir, "push", "-u", "origin", "main")
}

// branchingSource behaves like fakeSource but actually creates the target
// branch in the real clone it's handed, so filePR's subsequent RevParse
// resolves against a real ref instead of erroring on a nonexistent branch.
type branchingSource struct {
	fakeSource
}

func (b *branchingSource) ApplyPatch(ctx context.Context, local *vcs.Adapter, base, target string) (vcs.MergeType, error) {
	if err := local.CreateBranch(ctx, target); err != nil {
		return vcs.Success, err
	}
	return vcs.Success, nil
}

func newGitTestEngine(t *testing.T, origin *fakeOrigin, source *branchingSource) *Engine {
	t.Helper()
	bare := initBareOrigin(t)
	dir := cloneWorking(t, bare)
	seedInitialCommit(t, dir)

	chapters, err := stage.NewList([]stage.Chapter{{Label: "intro"}, {Label: "followup"}})
	if err != nil {
		t.Fatalf("stage.NewList() error = %v", err)
	}
	return &Engine{
		dir: dir, source: source, origin: origin,
		local: vcs.Open(dir), chapters: chapters,
	}
}

func TestEngineFileFeatureAndIssueSuccessPath(t *testing.T) {
	origin := &fakeOrigin{found: true}
	source := &branchingSource{fakeSource: fakeSource{
		issues: map[string]entity.Issue{"intro": {Label: "intro", Number: 1}},
		pulls: map[string]entity.FullPullRequest{
			"intro-a": {Head: entity.PullRef{Ref: "intro-a"}},
		},
	}}
	e := newGitTestEngine(t, origin, source)
	e.emitter = EmitterFunc(func(StateDescriptor) {})

	if err := e.FileFeatureAndIssue(context.Background(), 0); err != nil {
		t.Fatalf("FileFeatureAndIssue() error = %v", err)
	}
	if len(origin.copiedPR) != 1 || origin.copiedPR[0].Head.Ref != "intro-a" {
		t.Fatalf("origin.copiedPR = %+v", origin.copiedPR)
	}
	if len(origin.copiedIss) != 1 || origin.copiedIss[0].Label != "intro" {
		t.Fatalf("origin.copiedIss = %+v", origin.copiedIss)
	}
}

func TestEngineFileFeatureAndIssueSkipsStarterWhenChapterHasNone(t *testing.T) {
	origin := &fakeOrigin{found: true}
	source := &branchingSource{fakeSource: fakeSource{
		issues: map[string]entity.Issue{"intro": {Label: "intro", Number: 1}},
	}}
	bare := initBareOrigin(t)
	dir := cloneWorking(t, bare)
	seedInitialCommit(t, dir)
	chapters, err := stage.NewList([]stage.Chapter{{Label: "intro", NoStarter: true}})
	if err != nil {
		t.Fatalf("stage.NewList() error = %v", err)
	}
	e := &Engine{dir: dir, source: source, origin: origin, local: vcs.Open(dir), chapters: chapters}
	e.emitter = EmitterFunc(func(StateDescriptor) {})

	if err := e.FileFeatureAndIssue(context.Background(), 0); err != nil {
		t.Fatalf("FileFeatureAndIssue() error = %v", err)
	}
	if len(origin.copiedPR) != 0 {
		t.Fatalf("origin.copiedPR = %+v, want none for a no-starter chapter", origin.copiedPR)
	}
	if len(origin.copiedIss) != 1 {
		t.Fatalf("origin.copiedIss = %+v, want the issue still filed", origin.copiedIss)
	}
}

func TestEngineFileSolutionSuccessPath(t *testing.T) {
	origin := &fakeOrigin{found: true}
	source := &branchingSource{fakeSource: fakeSource{
		pulls: map[string]entity.FullPullRequest{
			"intro-b": {Head: entity.PullRef{Ref: "intro-b"}},
		},
	}}
	e := newGitTestEngine(t, origin, source)
	e.emitter = EmitterFunc(func(StateDescriptor) {})

	// FileSolution's base branch for chapter 0 is intro-a (the starter
	// branch), so it must exist locally before the solution is filed.
	if err := e.local.CreateBranch(context.Background(), "intro-a"); err != nil {
		t.Fatalf("seed intro-a: %v", err)
	}
	runGit(t, e.dir, "checkout", "main")

	if err := e.FileSolution(context.Background(), 0); err != nil {
		t.Fatalf("FileSolution() error = %v", err)
	}
	if len(origin.copiedPR) != 1 || origin.copiedPR[0].Head.Ref != "intro-b" {
		t.Fatalf("origin.copiedPR = %+v", origin.copiedPR)
	}
}

func TestEngineSkipToStageSuccessPath(t *testing.T) {
	origin := &fakeOrigin{found: true}
	source := &branchingSource{fakeSource: fakeSource{
		canSkip: true,
		issues:  map[string]entity.Issue{"intro": {Label: "intro", Number: 3}},
	}}
	e := newGitTestEngine(t, origin, source)
	e.emitter = EmitterFunc(func(StateDescriptor) {})

	// SkipToStage resets onto upstream/<previous solution branch>, so seed
	// that ref the way SetupUpstream would: an "upstream" remote pointing
	// back at the same bare repo, carrying the solution branch.
	if err := e.local.CreateBranch(context.Background(), "intro-b"); err != nil {
		t.Fatalf("seed intro-b: %v", err)
	}
	runGit(t, e.dir, "push", "origin", "intro-b")
	runGit(t, e.dir, "checkout", "main")
	runGit(t, e.dir, "remote", "add", "upstream", e.dir+"/.git")
	runGit(t, e.dir, "fetch", "upstream")

	if err := e.SkipToStage(context.Background(), 1); err != nil {
		t.Fatalf("SkipToStage() error = %v", err)
	}
	if len(origin.copiedIss) != 1 || origin.copiedIss[0].Label != "intro" {
		t.Fatalf("origin.copiedIss = %+v", origin.copiedIss)
	}
	if len(origin.closedIss) != 1 {
		t.Fatalf("origin.closedIss = %+v, want the same issue closed", origin.closedIss)
	}
}
