package forge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v27/github"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/repoquest/rqst/internal/engineerr"
	"github.com/repoquest/rqst/internal/questpkg"
	"github.com/repoquest/rqst/internal/vcs"
	"github.com/repoquest/rqst/internal/worker"
)

// defaultLabels are the labels GitHub seeds every new repository with.
// RepoQuest never copies these between repositories; only labels an author
// added on purpose travel with a quest.
var defaultLabels = map[string]bool{
	"bug": true, "documentation": true, "duplicate": true, "enhancement": true,
	"good first issue": true, "help wanted": true, "invalid": true,
	"question": true, "wontfix": true,
}

// NewClient builds an authenticated GitHub client from a personal access
// token, matching the teacher pack's own static-token-source pattern.
func NewClient(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// Adapter represents one (owner, name) pair against GitHub. Its issue/pull
// snapshots are cached behind a RWMutex and only refreshed on Fetch.
type Adapter struct {
	client *github.Client
	owner  string
	name   string

	mu     sync.RWMutex
	issues []Issue
	pulls  []FullPullRequest
	labels []Label
}

// Open wraps an (owner, name) pair without fetching anything yet.
func Open(client *github.Client, owner, name string) *Adapter {
	return &Adapter{client: client, owner: owner, name: name}
}

// Load constructs an Adapter and immediately fetches; it errors if the
// repository cannot be found.
func Load(ctx context.Context, client *github.Client, owner, name string) (*Adapter, error) {
	a := Open(client, owner, name)
	found, err := a.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(engineerr.ErrRepoNotFound, "forge: %s/%s", owner, name)
	}
	return a, nil
}

// Owner returns the repository owner login.
func (a *Adapter) Owner() string { return a.owner }

// Name returns the repository name.
func (a *Adapter) Name() string { return a.name }

// HTMLURL returns the repository's clone-friendly web URL.
func (a *Adapter) HTMLURL() string {
	return fmt.Sprintf("https://github.com/%s/%s", a.owner, a.name)
}

// Fetch concurrently lists every pull request and issue (all states) and
// attaches review comments to each pull, then atomically replaces the
// cache. A 404 on either listing call reports (false, nil): repo not found.
func (a *Adapter) Fetch(ctx context.Context) (bool, error) {
	var pulls []*github.PullRequest
	var issues []*github.Issue

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pulls, err = a.listAllPulls(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		issues, err = a.listAllIssues(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "forge: fetch repository snapshot")
	}

	fullPulls, err := a.attachComments(ctx, pulls)
	if err != nil {
		return false, errors.Wrap(err, "forge: fetch pull request review comments")
	}

	filteredIssues := make([]Issue, 0, len(issues))
	for _, iss := range issues {
		if iss.IsPullRequest() {
			continue
		}
		filteredIssues = append(filteredIssues, toIssue(iss))
	}

	labels, err := a.listAllLabels(ctx)
	if err != nil {
		return false, errors.Wrap(err, "forge: list labels")
	}

	a.mu.Lock()
	a.pulls = fullPulls
	a.issues = filteredIssues
	a.labels = labels
	a.mu.Unlock()

	return true, nil
}

func (a *Adapter) listAllPulls(ctx context.Context) ([]*github.PullRequest, error) {
	var all []*github.PullRequest
	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := a.client.PullRequests.List(ctx, a.owner, a.name, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (a *Adapter) listAllIssues(ctx context.Context) ([]*github.Issue, error) {
	var all []*github.Issue
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := a.client.Issues.ListByRepo(ctx, a.owner, a.name, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (a *Adapter) listAllLabels(ctx context.Context) ([]Label, error) {
	var all []Label
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := a.client.Issues.ListLabels(ctx, a.owner, a.name, opts)
		if err != nil {
			return nil, err
		}
		for _, l := range page {
			all = append(all, Label{Name: l.GetName(), Color: l.GetColor(), Description: l.GetDescription()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// attachComments fans out review-comment fetches across the pull list
// using the generic worker pool, preserving input order.
func (a *Adapter) attachComments(ctx context.Context, pulls []*github.PullRequest) ([]FullPullRequest, error) {
	pool := worker.NewPool[*github.PullRequest, FullPullRequest](0)
	results := pool.Process(pulls, func(pr *github.PullRequest) (FullPullRequest, error) {
		comments, _, err := a.client.PullRequests.ListComments(ctx, a.owner, a.name, pr.GetNumber(), nil)
		if err != nil {
			return FullPullRequest{}, err
		}
		return toFullPullRequest(pr, comments), nil
	})

	out := make([]FullPullRequest, len(results))
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		out[r.Index] = r.Value
	}
	return out, nil
}

func toIssue(iss *github.Issue) Issue {
	labels := make([]string, 0, len(iss.Labels))
	chapterLabel := ""
	for _, l := range iss.Labels {
		labels = append(labels, l.GetName())
		if strings.HasPrefix(l.GetName(), "chapter:") {
			chapterLabel = strings.TrimPrefix(l.GetName(), "chapter:")
		}
	}
	return Issue{
		Number:  iss.GetNumber(),
		Title:   iss.GetTitle(),
		Body:    iss.GetBody(),
		Label:   chapterLabel,
		Labels:  labels,
		State:   iss.GetState(),
		HTMLURL: iss.GetHTMLURL(),
	}
}

func toFullPullRequest(pr *github.PullRequest, comments []*github.PullRequestComment) FullPullRequest {
	labels := make([]string, 0, len(pr.Labels))
	chapterLabel := ""
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
		if strings.HasPrefix(l.GetName(), "chapter:") {
			chapterLabel = strings.TrimPrefix(l.GetName(), "chapter:")
		}
	}

	full := FullPullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		Label:  chapterLabel,
		Labels: labels,
		State:  pr.GetState(),
		Base:    PullRef{Ref: pr.GetBase().GetRef(), SHA: pr.GetBase().GetSHA()},
		Head:    PullRef{Ref: pr.GetHead().GetRef(), SHA: pr.GetHead().GetSHA()},
		HTMLURL: pr.GetHTMLURL(),
	}
	if pr.MergedAt != nil {
		ts := pr.MergedAt.Unix()
		full.MergedAt = &ts
	}
	if pr.ClosedAt != nil {
		ts := pr.ClosedAt.Unix()
		full.ClosedAt = &ts
	}
	for _, c := range comments {
		full.Comments = append(full.Comments, Comment{
			Path:     c.GetPath(),
			CommitID: c.GetCommitID(),
			Body:     c.GetBody(),
			Line:     c.GetLine(),
		})
	}
	return full
}

func isNotFound(err error) bool {
	if ghErr, ok := err.(*github.ErrorResponse); ok {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// Issues returns the cached issue snapshot.
func (a *Adapter) Issues() []Issue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Issue(nil), a.issues...)
}

// FullPulls returns the cached full-pull-request snapshot.
func (a *Adapter) FullPulls() []FullPullRequest {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]FullPullRequest(nil), a.pulls...)
}

// Labels returns the cached label snapshot, default GitHub labels excluded.
func (a *Adapter) Labels() []Label {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Label, 0, len(a.labels))
	for _, l := range a.labels {
		if !defaultLabels[l.Name] {
			out = append(out, l)
		}
	}
	return out
}

// PR looks up a cached pull request by selector.
func (a *Adapter) PR(sel PullSelector) (FullPullRequest, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, pr := range a.pulls {
		if sel.Matches(pr) {
			return pr, true
		}
	}
	return FullPullRequest{}, false
}

// Issue looks up a cached issue by chapter label.
func (a *Adapter) Issue(label string) (Issue, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, iss := range a.issues {
		if iss.Label == label {
			return iss, true
		}
	}
	return Issue{}, false
}

// ResolvePRNumber implements Resolver for issue-body placeholder substitution.
func (a *Adapter) ResolvePRNumber(label string) (int, bool) {
	pr, ok := a.PR(ByLabel(label))
	return pr.Number, ok
}

// ResolveIssueNumber implements Resolver for issue-body placeholder substitution.
func (a *Adapter) ResolveIssueNumber(label string) (int, bool) {
	iss, ok := a.Issue(label)
	return iss.Number, ok
}

// TestRepo probes the repository's commit history to classify its content
// state, used to detect when asynchronous repo creation has finished.
func (a *Adapter) TestRepo(ctx context.Context) (RepoContentStatus, error) {
	_, resp, err := a.client.Repositories.ListCommits(ctx, a.owner, a.name, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusOK:
			return StatusHasContent, nil
		case http.StatusNoContent, http.StatusConflict:
			return StatusNoContent, nil
		case http.StatusNotFound:
			return StatusNotFound, nil
		}
	}
	if err != nil {
		return StatusNotFound, errors.Wrap(err, "forge: test repo content")
	}
	return StatusHasContent, nil
}

// WaitForContent polls TestRepo every 500ms for up to 5s until it observes
// the expected content classification.
func (a *Adapter) WaitForContent(ctx context.Context, expected RepoContentStatus) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := a.TestRepo(ctx)
		if err != nil {
			return err
		}
		if status == expected {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Errorf("forge: timed out waiting for %s (last observed %s)", expected, status)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// templateGenerateAccept is GitHub's preview Accept header for the
// repository-template-generation endpoint.
const templateGenerateAccept = "application/vnd.github.baptiste-preview+json"

// InstantiateFromRepo creates a new repository generated from this
// Adapter's repo as a template, waits for content, unsubscribes the
// learner from upstream-style notifications, then copies non-default
// labels onto the new repo.
func (a *Adapter) InstantiateFromRepo(ctx context.Context, newOwner, newName string) (*Adapter, error) {
	body := &struct {
		Owner   string `json:"owner"`
		Name    string `json:"name"`
		Private bool   `json:"private"`
	}{Owner: newOwner, Name: newName, Private: true}

	req, err := a.client.NewRequest(http.MethodPost, fmt.Sprintf("repos/%s/%s/generate", a.owner, a.name), body)
	if err != nil {
		return nil, errors.Wrap(err, "forge: build template-generate request")
	}
	req.Header.Set("Accept", templateGenerateAccept)

	var repo github.Repository
	if _, err := a.client.Do(ctx, req, &repo); err != nil {
		return nil, errors.Wrap(err, "forge: generate repository from template")
	}

	created := Open(a.client, newOwner, newName)
	if err := created.WaitForContent(ctx, StatusHasContent); err != nil {
		return nil, err
	}
	if _, err := a.client.Activity.DeleteRepositorySubscription(ctx, newOwner, newName); err != nil {
		logrus.WithError(err).Warn("forge: could not unsubscribe from generated repository")
	}
	if err := created.copyLabelsFrom(ctx, a.Labels()); err != nil {
		return nil, err
	}
	return created, nil
}

// InstantiateFromPackage creates an empty private repository under newOwner
// and seeds it with the labels carried in pkg.
func (a *Adapter) InstantiateFromPackage(ctx context.Context, newOwner, newName string, pkg *questpkg.Package) (*Adapter, error) {
	repo, _, err := a.client.Repositories.Create(ctx, "", &github.Repository{
		Name:     github.String(newName),
		Private:  github.Bool(true),
		AutoInit: github.Bool(false),
	})
	if err != nil {
		return nil, errors.Wrap(err, "forge: create empty repository")
	}

	created := Open(a.client, newOwner, repo.GetName())
	if err := created.WaitForContent(ctx, StatusNoContent); err != nil {
		return nil, err
	}
	if _, err := a.client.Activity.DeleteRepositorySubscription(ctx, newOwner, newName); err != nil {
		logrus.WithError(err).Warn("forge: could not unsubscribe from new repository")
	}
	if err := created.copyLabelsFrom(ctx, pkg.Labels); err != nil {
		return nil, err
	}
	return created, nil
}

func (a *Adapter) copyLabelsFrom(ctx context.Context, labels []Label) error {
	for _, l := range labels {
		if defaultLabels[l.Name] {
			continue
		}
		_, _, err := a.client.Issues.CreateLabel(ctx, a.owner, a.name, &github.Label{
			Name:        github.String(l.Name),
			Color:       github.String(l.Color),
			Description: github.String(l.Description),
		})
		if err != nil {
			return errors.Wrapf(err, "forge: create label %q", l.Name)
		}
	}
	return nil
}

// Clone clones this repository into parentDir via the Local VCS Adapter.
func (a *Adapter) Clone(ctx context.Context, parentDir string) (*vcs.Adapter, error) {
	return vcs.Clone(ctx, a.HTMLURL()+".git", parentDir, a.name)
}

// ConfigTOML fetches rqst.toml's raw content from the "meta" branch.
func (a *Adapter) ConfigTOML(ctx context.Context) ([]byte, error) {
	return a.contentAtRef(ctx, "meta", "rqst.toml")
}

// PackageBlob fetches package.json.gz's raw content from the "meta" branch.
func (a *Adapter) PackageBlob(ctx context.Context) ([]byte, error) {
	return a.contentAtRef(ctx, "meta", "package.json.gz")
}

func (a *Adapter) contentAtRef(ctx context.Context, ref, path string) ([]byte, error) {
	content, _, _, err := a.client.Repositories.GetContents(ctx, a.owner, a.name, path, &github.RepositoryContentOptions{Ref: ref})
	if err != nil {
		return nil, errors.Wrapf(err, "forge: fetch %s at ref %s", path, ref)
	}
	// GetContent decodes the API's base64-wrapped payload for us.
	text, err := content.GetContent()
	if err != nil {
		return nil, errors.Wrapf(err, "forge: decode %s content", path)
	}
	return []byte(text), nil
}

// CopyPR files a pull request whose head is fullPR's head branch and whose
// base is hard-coded to main, suffixing the body with a conflict notice
// when mergeType indicates the merge engine fell back, and re-anchoring
// every review comment to headSHA before reposting it.
func (a *Adapter) CopyPR(ctx context.Context, fullPR FullPullRequest, headSHA string, mergeType vcs.MergeType) (FullPullRequest, error) {
	body := SubstitutePlaceholders(a, fullPR.Body)
	if mergeType == vcs.StarterReset || mergeType == vcs.SolutionReset {
		body += conflictNotice(mergeType.String())
	}

	created, _, err := a.client.PullRequests.Create(ctx, a.owner, a.name, &github.NewPullRequest{
		Title: github.String(fullPR.Title),
		Head:  github.String(fullPR.Head.Ref),
		Base:  github.String("main"),
		Body:  github.String(body),
	})
	if err != nil {
		return FullPullRequest{}, errors.Wrap(err, "forge: create pull request")
	}

	labels := append([]string(nil), fullPR.Labels...)
	if mergeType == vcs.StarterReset || mergeType == vcs.SolutionReset {
		labels = append(labels, "reset")
	}
	if len(labels) > 0 {
		if _, _, err := a.client.Issues.AddLabelsToIssue(ctx, a.owner, a.name, created.GetNumber(), labels); err != nil {
			return FullPullRequest{}, errors.Wrap(err, "forge: label copied pull request")
		}
	}

	for _, c := range fullPR.Comments {
		_, _, err := a.client.PullRequests.CreateComment(ctx, a.owner, a.name, created.GetNumber(), &github.PullRequestComment{
			Path:     github.String(c.Path),
			CommitID: github.String(headSHA),
			Body:     github.String(c.Body),
			Line:     github.Int(c.Line),
		})
		if err != nil {
			return FullPullRequest{}, errors.Wrap(err, "forge: repost review comment")
		}
	}

	return toFullPullRequest(&github.PullRequest{
		Number: created.Number, Title: created.Title, Body: created.Body,
		State: created.State, Base: created.Base, Head: created.Head,
		HTMLURL: created.HTMLURL,
	}, nil), nil
}

// CopyIssue files an issue with issue's title copied verbatim, its body
// passed through the placeholder substitution pass, and its labels copied.
func (a *Adapter) CopyIssue(ctx context.Context, issue Issue) (Issue, error) {
	body := SubstitutePlaceholders(a, issue.Body)
	created, _, err := a.client.Issues.Create(ctx, a.owner, a.name, &github.IssueRequest{
		Title:  github.String(issue.Title),
		Body:   github.String(body),
		Labels: &issue.Labels,
	})
	if err != nil {
		return Issue{}, errors.Wrap(err, "forge: create issue")
	}
	return toIssue(created), nil
}

// CloseIssue closes the given issue.
func (a *Adapter) CloseIssue(ctx context.Context, issue Issue) error {
	_, _, err := a.client.Issues.Edit(ctx, a.owner, a.name, issue.Number, &github.IssueRequest{
		State: github.String("closed"),
	})
	return errors.Wrap(err, "forge: close issue")
}

// MergePR merges the given pull request.
func (a *Adapter) MergePR(ctx context.Context, pull FullPullRequest) error {
	_, _, err := a.client.PullRequests.Merge(ctx, a.owner, a.name, pull.Number, "", &github.PullRequestOptions{})
	return errors.Wrap(err, "forge: merge pull request")
}

// Delete deletes this repository.
func (a *Adapter) Delete(ctx context.Context) error {
	_, err := a.client.Repositories.Delete(ctx, a.owner, a.name)
	return errors.Wrap(err, "forge: delete repository")
}
