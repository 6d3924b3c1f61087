package questpkg

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/repoquest/rqst/internal/entity"
)

const fixtureTOML = `
title = "Learn Go Channels"
author = "repoquest-demo"
repo = "go-channels-quest"

[[stages]]
label = "intro"
name = "Introduction"

[[stages]]
label = "buffered"
name = "Buffered Channels"
no-starter = true
`

type fakeLocalVCS struct {
	diffs map[string]string
	files map[string]string
}

func (f *fakeLocalVCS) Diff(ctx context.Context, base, head string) (string, error) {
	return f.diffs[base+".."+head], nil
}

func (f *fakeLocalVCS) ReadInitialFiles(ctx context.Context) (map[string]string, error) {
	return f.files, nil
}

type fakeRemote struct {
	issues []entity.Issue
	pulls  []entity.FullPullRequest
	labels []entity.Label
	config []byte
	found  bool
}

func (f *fakeRemote) Fetch(ctx context.Context) (bool, error)             { return f.found, nil }
func (f *fakeRemote) Issues() []entity.Issue                               { return f.issues }
func (f *fakeRemote) FullPulls() []entity.FullPullRequest                  { return f.pulls }
func (f *fakeRemote) Labels() []entity.Label                               { return f.labels }
func (f *fakeRemote) ConfigTOML(ctx context.Context) ([]byte, error)      { return f.config, nil }

func newFixtureBuilder() *Builder {
	return &Builder{
		LocalVCS: &fakeLocalVCS{
			diffs: map[string]string{
				"main..intro-a": "diff --git a/main.go b/main.go\n+package main\n",
			},
			files: map[string]string{"main.go": "package main\n"},
		},
		Remote: &fakeRemote{
			found:  true,
			config: []byte(fixtureTOML),
			issues: []entity.Issue{{Number: 1, Title: "Intro", Body: "Get started.", Label: "intro"}},
			pulls:  []entity.FullPullRequest{{Number: 2, Title: "Intro starter", Body: "Starter code.", Label: "intro", Head: entity.PullRef{Ref: "intro-a"}}},
			labels: []entity.Label{{Name: "quest", Color: "00ff00"}},
		},
	}
}

func TestBuildSkipsNoStarterChapters(t *testing.T) {
	b := newFixtureBuilder()
	pkg, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(pkg.Patches) != 1 {
		t.Fatalf("Patches = %d, want 1 (buffered is no-starter and contributes no patch)", len(pkg.Patches))
	}
}

func TestBuildFailsWhenRemoteNotFound(t *testing.T) {
	b := newFixtureBuilder()
	b.Remote.(*fakeRemote).found = false
	if _, err := b.Build(context.Background()); err == nil {
		t.Fatal("expected error when remote repo not found")
	}
}

func TestEncodeSaveLoadRoundTrip(t *testing.T) {
	b := newFixtureBuilder()
	pkg, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "package.json.gz")
	if err := pkg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Config.Title != pkg.Config.Title {
		t.Errorf("Title = %q, want %q", loaded.Config.Title, pkg.Config.Title)
	}
	if len(loaded.Issues) != 1 || loaded.Issues[0].Number != 1 {
		t.Errorf("Issues = %+v", loaded.Issues)
	}
	if len(loaded.Patches) != len(pkg.Patches) {
		t.Errorf("Patches = %d, want %d", len(loaded.Patches), len(pkg.Patches))
	}
}

func TestPatchIndexLookup(t *testing.T) {
	b := newFixtureBuilder()
	pkg, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idx, ok := pkg.PatchIndex("main", "intro-a")
	if !ok || idx != 0 {
		t.Errorf("PatchIndex(main, intro-a) = (%d, %v), want (0, true)", idx, ok)
	}
	if _, ok := pkg.PatchIndex("nope", "nowhere"); ok {
		t.Error("PatchIndex for unknown pair returned ok=true")
	}
}

func TestDecodeRejectsPullMissingTitleOrBody(t *testing.T) {
	t.Setenv("RQST_RELEASE", "1")

	b := newFixtureBuilder()
	pkg, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pkg.Pulls[0].Body = ""

	data, err := pkg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(data); err == nil {
		t.Fatal("Decode() expected an error for a pull with no body")
	}
}

func TestDecodeWarnsButDoesNotRejectVersionMismatch(t *testing.T) {
	b := newFixtureBuilder()
	pkg, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pkg.Version = "v99.0.0"

	data, err := pkg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	loaded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode should warn, not fail, on version mismatch: %v", err)
	}
	if loaded.Version != "v99.0.0" {
		t.Errorf("Version = %q, want v99.0.0", loaded.Version)
	}
}
