package entity

import "testing"

func TestFullPullRequestMergedAndClosed(t *testing.T) {
	open := FullPullRequest{}
	if open.Merged() || open.Closed() {
		t.Error("zero-value pull request should be neither merged nor closed")
	}

	ts := int64(1700000000)
	merged := FullPullRequest{MergedAt: &ts, ClosedAt: &ts}
	if !merged.Merged() || !merged.Closed() {
		t.Error("pull request with MergedAt/ClosedAt should report merged and closed")
	}

	closedOnly := FullPullRequest{ClosedAt: &ts}
	if closedOnly.Merged() {
		t.Error("closed-without-merge pull request should not report Merged")
	}
	if !closedOnly.Closed() {
		t.Error("closed-without-merge pull request should report Closed")
	}
}

func TestPullSelectorMatches(t *testing.T) {
	pr := FullPullRequest{Label: "intro", Head: PullRef{Ref: "intro-a"}}

	if !ByBranch("intro-a").Matches(pr) {
		t.Error("ByBranch(intro-a) should match pr with head ref intro-a")
	}
	if ByBranch("other").Matches(pr) {
		t.Error("ByBranch(other) should not match")
	}
	if !ByLabel("intro").Matches(pr) {
		t.Error("ByLabel(intro) should match pr with label intro")
	}
	if ByLabel("other").Matches(pr) {
		t.Error("ByLabel(other) should not match")
	}
}

func TestPullSelectorString(t *testing.T) {
	if got := ByBranch("intro-a").String(); got != "branch:intro-a" {
		t.Errorf("got %q", got)
	}
	if got := ByLabel("intro").String(); got != "label:intro" {
		t.Errorf("got %q", got)
	}
}

func TestRepoContentStatusString(t *testing.T) {
	cases := map[RepoContentStatus]string{
		StatusHasContent: "has-content",
		StatusNoContent:  "no-content",
		StatusNotFound:   "not-found",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", status, got, want)
		}
	}
}
