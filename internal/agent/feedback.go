package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rahul/taskflow/internal/observability"
	"github.com/rahul/taskflow/internal/store"
)

// Verdict is the outcome of evaluating one task result.
type Verdict string

const (
	VerdictModify Verdict = "modify"
	VerdictDelete Verdict = "delete"
	VerdictAdd    Verdict = "add"
	VerdictAccept Verdict = "accept"
)

const (
	minKeywordLen   = 4 // keywords must be longer than 3 characters
	minTaskWords    = 5
	minResultWords  = 5
	minSubtaskWords = 3
)

// FeedbackEngine audits a task list against the query and the results.
type FeedbackEngine struct {
	Logger *observability.Logger
}

func NewFeedbackEngine(logger *observability.Logger) *FeedbackEngine {
	return &FeedbackEngine{Logger: logger}
}

// ReflectAndRefine runs the coverage, duplicate and vagueness passes in that
// order and returns the compacted list plus one message per change. The
// input list is left untouched.
func (f *FeedbackEngine) ReflectAndRefine(tasks store.TaskList, query string) (store.TaskList, []string) {
	var feedback []string
	refined := tasks.Clone()

	// coverage: descriptions are captured once, so appended tasks do not
	// count as covering later keywords. New ids come from NextID, which steps
	// past the highest existing id rather than using size+1.
	descriptions := make([]string, len(refined))
	for i, t := range refined {
		descriptions[i] = strings.ToLower(t.Description)
	}
	for _, keyword := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(keyword) < minKeywordLen || containsAny(descriptions, keyword) {
			continue
		}
		feedback = append(feedback, fmt.Sprintf("Adding task for missing aspect: %s", keyword))
		refined.Add(fmt.Sprintf("Address %s in the plan", keyword))
	}

	// duplicates
	seen := make(map[string]bool, len(refined))
	for i := range refined {
		desc := strings.ToLower(refined[i].Description)
		if seen[desc] {
			feedback = append(feedback, fmt.Sprintf("Removing redundant task: %s", refined[i].Description))
			refined[i].Status = store.StatusDeleted
			continue
		}
		seen[desc] = true
	}

	// vagueness
	for i := range refined {
		t := &refined[i]
		if t.Status == store.StatusDeleted || len(strings.Fields(t.Description)) >= minTaskWords {
			continue
		}
		feedback = append(feedback, fmt.Sprintf("Modifying vague task: %s", t.Description))
		t.Description = fmt.Sprintf("Refined: %s with detailed steps", t.Description)
	}

	for _, msg := range feedback {
		f.Logger.LogFeedback(msg)
	}
	return refined.Compact(), feedback
}

// NeedsRefinement reports whether another look is warranted: a task is still
// pending, or a completed task has no recorded result.
func (f *FeedbackEngine) NeedsRefinement(tasks store.TaskList, results []store.Result, query string) bool {
	recorded := make(map[string]bool, len(results))
	for _, r := range results {
		recorded[r.TaskID] = true
	}
	for _, t := range tasks {
		if t.Status == store.StatusPending {
			return true
		}
		if t.Status == store.StatusCompleted && !recorded[t.ID] {
			return true
		}
	}
	return false
}

// EvaluateTask classifies one result. The first matching rule wins.
func (f *FeedbackEngine) EvaluateTask(subtask, result string) Verdict {
	lower := strings.ToLower(result)
	switch {
	case strings.Contains(lower, "error"):
		return VerdictModify
	case strings.Contains(lower, "irrelevant"):
		return VerdictDelete
	case len(strings.Fields(result)) < minResultWords:
		return VerdictAdd
	case len(strings.Fields(subtask)) < minSubtaskWords:
		return VerdictModify
	default:
		return VerdictAccept
	}
}

// Evaluation pairs a result with its verdict.
type Evaluation struct {
	TaskID      string  `json:"task_id"`
	Description string  `json:"description"`
	Result      string  `json:"result"`
	Verdict     Verdict `json:"verdict"`
}

// Review evaluates every result against its task. Results whose task is gone
// are evaluated against an empty description.
func (f *FeedbackEngine) Review(tasks store.TaskList, results []store.Result) []Evaluation {
	out := make([]Evaluation, 0, len(results))
	for _, r := range results {
		var desc string
		if t, ok := tasks.Get(r.TaskID); ok {
			desc = t.Description
		}
		out = append(out, Evaluation{
			TaskID:      r.TaskID,
			Description: desc,
			Result:      r.Text,
			Verdict:     f.EvaluateTask(desc, r.Text),
		})
	}
	return out
}

func containsAny(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
