// Package stage defines the chapter and part vocabulary shared by every
// other RepoQuest package: the chapter list, branch-name parsing, and the
// two small closed sums (StagePart, StagePartStatus) used throughout state
// inference.
package stage

import (
	"fmt"
	"strings"
)

// Chapter is one learning unit in a quest: a starter part and a solution
// part, filed as an issue plus one or two pull requests.
type Chapter struct {
	// Label is the chapter's stable slug, unique within a quest. It forms
	// half of the chapter's branch names (<label>-a, <label>-b).
	Label string `toml:"label" json:"label"`

	// Name is the chapter's display title.
	Name string `toml:"name" json:"name"`

	// NoStarter means this chapter has no starter branch or starter patch;
	// its Starter part is considered finished the instant its issue exists.
	NoStarter bool `toml:"no-starter" json:"no_starter,omitempty"`
}

// StarterBranch returns the chapter's starter branch name, <label>-a.
func (c Chapter) StarterBranch() string {
	return c.Label + "-" + string(Starter.Suffix())
}

// SolutionBranch returns the chapter's solution branch name, <label>-b.
func (c Chapter) SolutionBranch() string {
	return c.Label + "-" + string(Solution.Suffix())
}

// Part is a totally ordered closed sum: Starter < Solution. Implementations
// should switch exhaustively over it rather than treat it as an open type.
type Part int

const (
	// Starter is the chapter's to-do half.
	Starter Part = iota
	// Solution is the chapter's reference-answer half.
	Solution
)

// Suffix renders the part as its branch-name suffix, "a" or "b".
func (p Part) Suffix() string {
	switch p {
	case Starter:
		return "a"
	case Solution:
		return "b"
	default:
		panic(fmt.Sprintf("stage: unreachable Part variant %d", int(p)))
	}
}

// Next returns the part that follows p and whether one exists (false for
// Solution, which is terminal within a chapter).
func (p Part) Next() (Part, bool) {
	switch p {
	case Starter:
		return Solution, true
	case Solution:
		return Part(0), false
	default:
		panic(fmt.Sprintf("stage: unreachable Part variant %d", int(p)))
	}
}

// Less reports whether p sorts before other (Starter < Solution).
func (p Part) Less(other Part) bool {
	return p < other
}

func (p Part) String() string {
	switch p {
	case Starter:
		return "starter"
	case Solution:
		return "solution"
	default:
		panic(fmt.Sprintf("stage: unreachable Part variant %d", int(p)))
	}
}

// parsePartSuffix parses "a" or "b" into a Part.
func parsePartSuffix(s string) (Part, bool) {
	switch s {
	case "a":
		return Starter, true
	case "b":
		return Solution, true
	default:
		return Part(0), false
	}
}

// Status is a closed sum describing whether a stage part is waiting on the
// runtime to act (Start) or waiting on the learner (Ongoing).
type Status int

const (
	// StatusStart means the engine has work to do (file a pull, file an
	// issue) before this part is underway.
	StatusStart Status = iota
	// StatusOngoing means the engine has filed its artifacts and is
	// waiting for learner activity (a merge, a close).
	StatusOngoing
)

func (s Status) String() string {
	switch s {
	case StatusStart:
		return "start"
	case StatusOngoing:
		return "ongoing"
	default:
		panic(fmt.Sprintf("stage: unreachable Status variant %d", int(s)))
	}
}

// List is an ordered, indexed collection of chapters, keyed by label. The
// runtime builds exactly one List per quest and treats it as immutable.
type List struct {
	chapters []Chapter
	byLabel  map[string]int
}

// NewList builds a List, validating that labels are unique.
func NewList(chapters []Chapter) (*List, error) {
	byLabel := make(map[string]int, len(chapters))
	for i, c := range chapters {
		if _, dup := byLabel[c.Label]; dup {
			return nil, fmt.Errorf("stage: duplicate chapter label %q", c.Label)
		}
		byLabel[c.Label] = i
	}
	return &List{chapters: chapters, byLabel: byLabel}, nil
}

// Len returns the number of chapters.
func (l *List) Len() int { return len(l.chapters) }

// At returns the chapter at index i.
func (l *List) At(i int) Chapter { return l.chapters[i] }

// IndexOf returns the index of the chapter with the given label.
func (l *List) IndexOf(label string) (int, bool) {
	i, ok := l.byLabel[label]
	return i, ok
}

// Last reports whether i is the index of the final chapter.
func (l *List) Last(i int) bool { return i == len(l.chapters)-1 }

// ParsedBranch is the result of successfully parsing a branch name against
// a known chapter list.
type ParsedBranch struct {
	ChapterIndex int
	Part         Part
}

// ParseBranch parses a branch name of the form <label>-<a|b>, rejecting
// anything else and any label not present in the list.
func (l *List) ParseBranch(branch string) (ParsedBranch, bool) {
	idx := strings.LastIndex(branch, "-")
	if idx <= 0 || idx == len(branch)-1 {
		return ParsedBranch{}, false
	}
	label, suffix := branch[:idx], branch[idx+1:]
	part, ok := parsePartSuffix(suffix)
	if !ok {
		return ParsedBranch{}, false
	}
	chapterIndex, ok := l.byLabel[label]
	if !ok {
		return ParsedBranch{}, false
	}
	return ParsedBranch{ChapterIndex: chapterIndex, Part: part}, true
}
