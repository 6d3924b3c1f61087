// Package entity holds the forge-facing domain vocabulary — issues, pull
// requests, comments, labels — shared between the Remote Service Adapter
// (internal/forge) and the Quest Package (internal/questpkg) without
// forcing either to depend on the other.
package entity

// Label is a repository label: a name, a display color, and an optional
// description. RepoQuest treats GitHub's built-in labels (bug, enhancement,
// ...) as "default" and never copies them between repositories.
type Label struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// Comment is a single pull-request review comment, anchored to a file and
// line at a specific commit.
type Comment struct {
	Path     string `json:"path"`
	CommitID string `json:"commit_id"`
	Body     string `json:"body"`
	Line     int    `json:"line"`
}

// Issue is a repository issue, filed for a chapter's starter or solution
// half. Label carries the chapter slug this issue belongs to, distinct from
// the repository Labels slice applied to it.
type Issue struct {
	Number  int      `json:"number"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Label   string   `json:"label"`
	Labels  []string `json:"labels,omitempty"`
	State   string   `json:"state"`
	HTMLURL string   `json:"html_url,omitempty"`
}

// PullRef names one end of a pull request: a branch and the commit SHA it
// pointed to when captured.
type PullRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// FullPullRequest is a pull request together with its review comments, the
// unit RepoQuest copies from an upstream template repo into a learner fork.
type FullPullRequest struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Label    string    `json:"label"`
	Labels   []string  `json:"labels,omitempty"`
	State    string    `json:"state"`
	Base     PullRef   `json:"base"`
	Head     PullRef   `json:"head"`
	Comments []Comment `json:"comments,omitempty"`
	MergedAt *int64    `json:"merged_at,omitempty"`
	ClosedAt *int64    `json:"closed_at,omitempty"`
	HTMLURL  string    `json:"html_url,omitempty"`
}

// Merged reports whether the pull request has a merge timestamp.
func (p FullPullRequest) Merged() bool { return p.MergedAt != nil }

// Closed reports whether the pull request has been closed (merged or not).
func (p FullPullRequest) Closed() bool { return p.ClosedAt != nil }

// RepoContentStatus classifies what TestRepo observed when probing a
// repository's commit history.
type RepoContentStatus int

const (
	// StatusHasContent means the repository has at least one commit.
	StatusHasContent RepoContentStatus = iota
	// StatusNoContent means the repository exists but is empty.
	StatusNoContent
	// StatusNotFound means the repository does not exist (yet), typically
	// while a forge's asynchronous template-generation is still running.
	StatusNotFound
)

func (s RepoContentStatus) String() string {
	switch s {
	case StatusHasContent:
		return "has-content"
	case StatusNoContent:
		return "no-content"
	case StatusNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// PullSelector names a pull request either by its head branch or by the
// chapter label it was filed for.
type PullSelector struct {
	branch string
	label  string
}

// ByBranch selects a pull request by its head branch name.
func ByBranch(name string) PullSelector { return PullSelector{branch: name} }

// ByLabel selects a pull request by the chapter label it was filed under.
func ByLabel(name string) PullSelector { return PullSelector{label: name} }

// Matches reports whether pr satisfies the selector.
func (s PullSelector) Matches(pr FullPullRequest) bool {
	if s.branch != "" {
		return pr.Head.Ref == s.branch
	}
	return pr.Label == s.label
}

func (s PullSelector) String() string {
	if s.branch != "" {
		return "branch:" + s.branch
	}
	return "label:" + s.label
}
