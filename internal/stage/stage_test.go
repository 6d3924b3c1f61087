package stage

import "testing"

func TestChapterBranchNames(t *testing.T) {
	c := Chapter{Label: "intro", Name: "Introduction"}
	if got := c.StarterBranch(); got != "intro-a" {
		t.Errorf("StarterBranch() = %q, want intro-a", got)
	}
	if got := c.SolutionBranch(); got != "intro-b" {
		t.Errorf("SolutionBranch() = %q, want intro-b", got)
	}
}

func TestPartOrderingAndNext(t *testing.T) {
	if !Starter.Less(Solution) {
		t.Error("Starter.Less(Solution) = false, want true")
	}
	if Solution.Less(Starter) {
		t.Error("Solution.Less(Starter) = true, want false")
	}

	next, ok := Starter.Next()
	if !ok || next != Solution {
		t.Errorf("Starter.Next() = (%v, %v), want (Solution, true)", next, ok)
	}
	if _, ok := Solution.Next(); ok {
		t.Error("Solution.Next() returned ok=true, want false (terminal)")
	}
}

func TestPartSuffixAndString(t *testing.T) {
	if Starter.Suffix() != "a" || Starter.String() != "starter" {
		t.Errorf("Starter: suffix=%q string=%q", Starter.Suffix(), Starter.String())
	}
	if Solution.Suffix() != "b" || Solution.String() != "solution" {
		t.Errorf("Solution: suffix=%q string=%q", Solution.Suffix(), Solution.String())
	}
}

func TestStatusString(t *testing.T) {
	if StatusStart.String() != "start" {
		t.Errorf("StatusStart.String() = %q", StatusStart.String())
	}
	if StatusOngoing.String() != "ongoing" {
		t.Errorf("StatusOngoing.String() = %q", StatusOngoing.String())
	}
}

func TestNewListRejectsDuplicateLabels(t *testing.T) {
	_, err := NewList([]Chapter{{Label: "a"}, {Label: "a"}})
	if err == nil {
		t.Fatal("expected error for duplicate labels")
	}
}

func TestListIndexAndLast(t *testing.T) {
	l, err := NewList([]Chapter{{Label: "intro"}, {Label: "vars"}, {Label: "loops"}})
	if err != nil {
		t.Fatalf("NewList: %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	idx, ok := l.IndexOf("vars")
	if !ok || idx != 1 {
		t.Errorf("IndexOf(vars) = (%d, %v), want (1, true)", idx, ok)
	}
	if _, ok := l.IndexOf("missing"); ok {
		t.Error("IndexOf(missing) ok=true, want false")
	}
	if l.Last(1) {
		t.Error("Last(1) = true, want false")
	}
	if !l.Last(2) {
		t.Error("Last(2) = false, want true")
	}
}

func TestParseBranch(t *testing.T) {
	l, err := NewList([]Chapter{{Label: "intro"}, {Label: "error-handling"}})
	if err != nil {
		t.Fatalf("NewList: %v", err)
	}

	cases := []struct {
		branch   string
		wantOK   bool
		wantIdx  int
		wantPart Part
	}{
		{"intro-a", true, 0, Starter},
		{"intro-b", true, 0, Solution},
		{"error-handling-a", true, 1, Starter},
		{"error-handling-b", true, 1, Solution},
		{"unknown-a", false, 0, 0},
		{"intro-c", false, 0, 0},
		{"intro", false, 0, 0},
		{"-a", false, 0, 0},
		{"intro-", false, 0, 0},
	}

	for _, tc := range cases {
		got, ok := l.ParseBranch(tc.branch)
		if ok != tc.wantOK {
			t.Errorf("ParseBranch(%q) ok = %v, want %v", tc.branch, ok, tc.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if got.ChapterIndex != tc.wantIdx || got.Part != tc.wantPart {
			t.Errorf("ParseBranch(%q) = %+v, want {%d %v}", tc.branch, got, tc.wantIdx, tc.wantPart)
		}
	}
}
