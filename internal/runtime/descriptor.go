package runtime

import "github.com/repoquest/rqst/internal/entity"

// ChapterURLs projects one chapter's observable links: its issue, its
// starter and solution pulls (once filed), and a reference-solution pull on
// the upstream template when the source exposes one.
type ChapterURLs struct {
	Label                    string
	IssueURL                 string
	StarterPullURL           string
	SolutionPullURL          string
	ReferenceSolutionPullURL string
}

// StateDescriptor is the observable projection the runtime publishes to the
// caller-supplied emitter on every refresh: where the local clone lives,
// every chapter's link set, the inferred QuestState, and whether skipping
// ahead is supported by this quest's template variant.
type StateDescriptor struct {
	WorkingDir string        `json:"working_dir"`
	Chapters   []ChapterURLs `json:"chapters"`
	State      QuestState    `json:"state"`
	CanSkip    bool          `json:"can_skip"`
}

// Emitter receives published StateDescriptors and is notified when the
// background poll loop dies of an unrecoverable error. A bare
// func(StateDescriptor) can be adapted via EmitterFunc when no Fatal hook
// is needed.
type Emitter interface {
	StateEvent(StateDescriptor)
	Fatal(error)
}

// EmitterFunc adapts a plain function into an Emitter whose Fatal hook
// panics — suitable for callers (tests, one-shot CLI commands) that never
// start the poll loop and so never need Fatal invoked for real.
type EmitterFunc func(StateDescriptor)

func (f EmitterFunc) StateEvent(d StateDescriptor) { f(d) }
func (f EmitterFunc) Fatal(err error)              { panic(err) }

func (e *Engine) describe(state QuestState, issues []entity.Issue, pulls []entity.FullPullRequest) StateDescriptor {
	issueByLabel := make(map[string]entity.Issue, len(issues))
	for _, iss := range issues {
		issueByLabel[iss.Label] = iss
	}

	chapters := make([]ChapterURLs, e.chapters.Len())
	for i := 0; i < e.chapters.Len(); i++ {
		chapter := e.chapters.At(i)
		urls := ChapterURLs{Label: chapter.Label}
		if iss, ok := issueByLabel[chapter.Label]; ok {
			urls.IssueURL = iss.HTMLURL
		}
		if pr, ok := findPull(pulls, chapter.StarterBranch()); ok {
			urls.StarterPullURL = pr.HTMLURL
		}
		if pr, ok := findPull(pulls, chapter.SolutionBranch()); ok {
			urls.SolutionPullURL = pr.HTMLURL
		}
		if url, ok := e.source.ReferenceSolutionPRURL(chapter.Label); ok {
			urls.ReferenceSolutionPullURL = url
		}
		chapters[i] = urls
	}

	return StateDescriptor{
		WorkingDir: e.local.Dir(),
		Chapters:   chapters,
		State:      state,
		CanSkip:    e.source.CanSkip(),
	}
}

func findPull(pulls []entity.FullPullRequest, headRef string) (entity.FullPullRequest, bool) {
	for _, pr := range pulls {
		if pr.Head.Ref == headRef {
			return pr, true
		}
	}
	return entity.FullPullRequest{}, false
}
