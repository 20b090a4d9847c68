package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rahul/taskflow/internal/agent"
	"github.com/rahul/taskflow/internal/store"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	gray   = color.New(color.FgHiBlack)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusColor(s store.Status) *color.Color {
	switch s {
	case store.StatusCompleted:
		return green
	case store.StatusError:
		return red
	case store.StatusDeleted:
		return gray
	default:
		return yellow
	}
}

func printTasks(w io.Writer, title string, tasks store.TaskList) {
	cyan.Fprintln(w, title)
	if len(tasks) == 0 {
		gray.Fprintln(w, "  (none)")
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "  %3s  %-10s %s\n", t.ID, statusColor(t.Status).Sprint(t.Status), t.Description)
	}
}

func printResults(w io.Writer, results []store.Result) {
	cyan.Fprintln(w, "Results")
	if len(results) == 0 {
		gray.Fprintln(w, "  (none)")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "  %3s  %s\n", r.TaskID, r.Text)
	}
}

func printOutcome(w io.Writer, out *agent.Outcome) {
	printTasks(w, "Tasks", out.Tasks)
	fmt.Fprintln(w)
	printResults(w, out.Results)
	fmt.Fprintln(w)

	halt := green.Sprint(out.Halt)
	if out.Halt != agent.HaltCompleted {
		halt = yellow.Sprint(out.Halt)
	}
	gray.Fprintf(w, "run %s: %d executed, %d steps, ", out.RunID, out.Executed, out.Iterations)
	fmt.Fprintln(w, halt)
}

func printFeedback(w io.Writer, feedback []string) {
	cyan.Fprintln(w, "Feedback")
	if len(feedback) == 0 {
		green.Fprintln(w, "  no changes needed")
		return
	}
	for _, msg := range feedback {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}

func verdictColor(v agent.Verdict) *color.Color {
	switch v {
	case agent.VerdictAccept:
		return green
	case agent.VerdictDelete:
		return red
	default:
		return yellow
	}
}

func printReview(w io.Writer, evals []agent.Evaluation, needsRefinement bool) {
	cyan.Fprintln(w, "Review")
	for _, e := range evals {
		fmt.Fprintf(w, "  %3s  %s\n", e.TaskID, verdictColor(e.Verdict).Sprint(e.Verdict))
	}
	if needsRefinement {
		yellow.Fprintln(w, "  some tasks still need work")
	}
}
