package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/repoquest/rqst/internal/entity"
	"github.com/repoquest/rqst/internal/stage"
)

// QuestState is the tagged variant the state-inference algorithm produces:
// either the quest is underway at some (chapter, part, status) triple, or
// it is Completed. Treat it as closed — switch exhaustively via IsCompleted.
type QuestState struct {
	completed    bool
	chapterIndex int
	part         stage.Part
	status       stage.Status
}

// Ongoing builds the in-progress variant of QuestState.
func Ongoing(chapterIndex int, part stage.Part, status stage.Status) QuestState {
	return QuestState{chapterIndex: chapterIndex, part: part, status: status}
}

// Completed is the terminal variant: the last chapter's Solution part has
// finished, which a closed issue for that chapter is enough to signal.
var Completed = QuestState{completed: true}

// IsCompleted reports whether the quest has reached its terminal state.
func (s QuestState) IsCompleted() bool { return s.completed }

// ChapterIndex returns the current chapter index. Meaningless if IsCompleted.
func (s QuestState) ChapterIndex() int { return s.chapterIndex }

// Part returns the current stage part. Meaningless if IsCompleted.
func (s QuestState) Part() stage.Part { return s.part }

// Status returns the current stage part's status. Meaningless if IsCompleted.
func (s QuestState) Status() stage.Status { return s.status }

func (s QuestState) String() string {
	if s.completed {
		return "completed"
	}
	return fmt.Sprintf("ongoing{chapter=%d, part=%s, status=%s}", s.chapterIndex, s.part, s.status)
}

// MarshalJSON renders QuestState the same way String does, since its fields
// are unexported and meaningless in isolation when IsCompleted is true.
func (s QuestState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalYAML mirrors MarshalJSON for the CLI's `-o yaml` output mode.
func (s QuestState) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// groundState is where a freshly instantiated quest, or one the runtime
// cannot find any signal for, starts: chapter 0, starter half, pending.
func groundState() QuestState {
	return Ongoing(0, stage.Starter, stage.StatusStart)
}

// tuple is the per-signal candidate the inference algorithm maximizes over:
// lexicographically by chapter index, then part (Starter < Solution), then
// finished (false < true).
type tuple struct {
	chapterIndex int
	part         stage.Part
	finished     bool
}

func (t tuple) less(other tuple) bool {
	if t.chapterIndex != other.chapterIndex {
		return t.chapterIndex < other.chapterIndex
	}
	if t.part != other.part {
		return t.part.Less(other.part)
	}
	return !t.finished && other.finished
}

// inferState reconstructs the authoritative QuestState from the origin's
// cached pull and issue snapshots, per SPEC_FULL's state-inference
// algorithm. chapters is the quest's ordered chapter list.
func inferState(chapters *stage.List, pulls []entity.FullPullRequest, issues []entity.Issue) QuestState {
	issueMap := make(map[string]entity.Issue, len(issues))
	for _, iss := range issues {
		if iss.Label == "" {
			continue
		}
		if _, seen := issueMap[iss.Label]; seen {
			continue
		}
		issueMap[iss.Label] = iss
	}

	var best tuple
	haveAny := false
	consider := func(t tuple) {
		if !haveAny || best.less(t) {
			best = t
			haveAny = true
		}
	}

	for _, pr := range pulls {
		parsed, ok := chapters.ParseBranch(pr.Head.Ref)
		if !ok {
			continue
		}
		chapter := chapters.At(parsed.ChapterIndex)
		finished := pr.Merged() && (parsed.Part == stage.Starter || issueMap[chapter.Label].State == "closed")
		consider(tuple{chapterIndex: parsed.ChapterIndex, part: parsed.Part, finished: finished})
	}

	for i := 0; i < chapters.Len(); i++ {
		chapter := chapters.At(i)
		iss, ok := issueMap[chapter.Label]
		if !ok {
			continue
		}
		if iss.State == "closed" {
			consider(tuple{chapterIndex: i, part: stage.Solution, finished: true})
		} else {
			consider(tuple{chapterIndex: i, part: stage.Starter, finished: chapter.NoStarter})
		}
	}

	if !haveAny {
		return groundState()
	}

	if !best.finished {
		return Ongoing(best.chapterIndex, best.part, stage.StatusOngoing)
	}

	if next, ok := best.part.Next(); ok {
		return Ongoing(best.chapterIndex, next, stage.StatusStart)
	}
	if chapters.Last(best.chapterIndex) {
		return Completed
	}
	return Ongoing(best.chapterIndex+1, stage.Starter, stage.StatusStart)
}
