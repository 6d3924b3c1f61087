// Package questpkg builds, serializes, and loads Quest Packages: versioned,
// self-contained snapshots of a quest's upstream repository, used to seed
// new quests without a live upstream.
package questpkg

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/repoquest/rqst/embedded"
	"github.com/repoquest/rqst/internal/buildinfo"
	"github.com/repoquest/rqst/internal/engineerr"
	"github.com/repoquest/rqst/internal/entity"
	"github.com/repoquest/rqst/internal/invariant"
	"github.com/repoquest/rqst/internal/questcfg"
)

// Patch is one unified diff in a package's replay chain, keyed by the
// branch pair it transforms between.
type Patch struct {
	Base string `json:"base"`
	Head string `json:"head"`
	Diff string `json:"patch"`
}

// Package is the full serializable snapshot of a quest's upstream state.
type Package struct {
	// Version is the engine semver that built this package, checked
	// against buildinfo.CompatibleRange on load.
	Version string `json:"version"`

	Config  questcfg.Config          `json:"config"`
	Issues  []entity.Issue           `json:"issues"`
	Pulls   []entity.FullPullRequest `json:"prs"`
	Initial map[string]string        `json:"initial"`
	Patches []Patch                  `json:"patches"`
	Labels  []entity.Label           `json:"labels"`

	// index maps a (base, head) pair to its position in Patches. Rebuilt
	// on Load, never serialized.
	index map[patchKey]int `json:"-"`
}

type patchKey struct{ base, head string }

// PatchIndex reports the position of the patch transforming base into head,
// if the package carries one.
func (p *Package) PatchIndex(base, head string) (int, bool) {
	if p.index == nil {
		p.rebuildIndex()
	}
	i, ok := p.index[patchKey{base, head}]
	return i, ok
}

func (p *Package) rebuildIndex() {
	p.index = make(map[patchKey]int, len(p.Patches))
	for i, patch := range p.Patches {
		p.index[patchKey{patch.Base, patch.Head}] = i
	}
}

// Builder captures the collaborators Build needs to assemble a package:
// a local working copy and the live remote it tracks.
type Builder struct {
	LocalVCS LocalVCS
	Remote   Remote
}

// LocalVCS is the subset of the Local VCS Adapter that package building
// depends on.
type LocalVCS interface {
	Diff(ctx context.Context, base, head string) (string, error)
	ReadInitialFiles(ctx context.Context) (map[string]string, error)
}

// Remote is the subset of the Remote Service Adapter that package building
// depends on.
type Remote interface {
	Fetch(ctx context.Context) (bool, error)
	Issues() []entity.Issue
	FullPulls() []entity.FullPullRequest
	Labels() []entity.Label
	ConfigTOML(ctx context.Context) ([]byte, error)
}

// Build assembles a Quest Package from a local working copy and its live
// remote: config, issues, pulls with comments, labels, the main branch's
// file tree, and a starter-branch patch chain.
func (b *Builder) Build(ctx context.Context) (*Package, error) {
	cfgBytes, err := b.Remote.ConfigTOML(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "questpkg: load origin/meta:rqst.toml")
	}
	cfg, err := questcfg.Decode(cfgBytes)
	if err != nil {
		return nil, err
	}

	if found, err := b.Remote.Fetch(ctx); err != nil {
		return nil, errors.Wrap(err, "questpkg: fetch remote snapshot")
	} else if !found {
		return nil, errors.New("questpkg: upstream repository not found")
	}

	chapters, err := cfg.Chapters()
	if err != nil {
		return nil, err
	}

	patches := make([]Patch, 0, chapters.Len())
	previousSolution := "main"
	for i := 0; i < chapters.Len(); i++ {
		ch := chapters.At(i)
		if ch.NoStarter {
			continue
		}
		diff, err := b.LocalVCS.Diff(ctx, previousSolution, ch.StarterBranch())
		if err != nil {
			return nil, errors.Wrapf(err, "questpkg: diff chapter %q starter", ch.Label)
		}
		patches = append(patches, Patch{Base: previousSolution, Head: ch.StarterBranch(), Diff: diff})
		previousSolution = ch.SolutionBranch()
	}

	initial, err := b.LocalVCS.ReadInitialFiles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "questpkg: capture main file tree")
	}

	labels := b.Remote.Labels()
	if len(labels) == 0 {
		labels = embedded.DefaultLabels()
	}

	pkg := &Package{
		Version: buildinfo.Version,
		Config:  *cfg,
		Issues:  b.Remote.Issues(),
		Pulls:   b.Remote.FullPulls(),
		Initial: initial,
		Patches: patches,
		Labels:  labels,
	}
	pkg.rebuildIndex()
	return pkg, nil
}

// validateAuthoredContent guards against a hand-edited or corrupted package
// carrying a pull or issue with no title or body — an author fault, not a
// condition any learner action could produce.
func (p *Package) validateAuthoredContent() error {
	for _, pr := range p.Pulls {
		if err := invariant.Check(pr.Title != "" && pr.Body != "", engineerr.ErrMissingTitleOrBody); err != nil {
			return errors.Wrapf(err, "questpkg: pull %q", pr.Label)
		}
	}
	for _, iss := range p.Issues {
		if err := invariant.Check(iss.Title != "" && iss.Body != "", engineerr.ErrMissingTitleOrBody); err != nil {
			return errors.Wrapf(err, "questpkg: issue %q", iss.Label)
		}
	}
	return nil
}

// Save gzip-compresses the package's JSON encoding to path.
func (p *Package) Save(path string) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "questpkg: write package file")
}

// Encode gzip-compresses the package's JSON encoding into a byte slice.
func (p *Package) Encode() ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(p); err != nil {
		return nil, errors.Wrap(err, "questpkg: encode package JSON")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "questpkg: flush gzip writer")
	}
	return buf.Bytes(), nil
}

// Load reads and decompresses a package from path.
func Load(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "questpkg: read package file")
	}
	return Decode(data)
}

// Decode decompresses and decodes a package from raw gzip-compressed JSON,
// warning (not failing) if its version falls outside the engine's
// compatible range.
func Decode(data []byte) (*Package, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "questpkg: open gzip stream")
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, errors.Wrap(err, "questpkg: decompress package")
	}

	var pkg Package
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return nil, errors.Wrap(err, "questpkg: decode package JSON")
	}
	if err := pkg.validateAuthoredContent(); err != nil {
		return nil, err
	}

	if !buildinfo.IsCompatible(pkg.Version) {
		logrus.WithFields(logrus.Fields{
			"component":       "questpkg",
			"package_version": pkg.Version,
			"engine_version":  buildinfo.Version,
		}).Warn(engineerr.ErrPackageVersionMismatch.Error())
	}

	pkg.rebuildIndex()
	return &pkg, nil
}
