package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rahul/taskflow/internal/store"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <query>",
	Short: "Split a query into tasks without running them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlan,
}

var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Plan a query (or load tasks) and execute every task",
	Args:  cobra.ArbitraryArgs,
	RunE:  runRun,
}

var refineCmd = &cobra.Command{
	Use:   "refine <query>",
	Short: "Check a task list for gaps, duplicates and vague steps",
	Args:  cobra.ArbitraryArgs,
	RunE:  runRefine,
}

func init() {
	runCmd.Flags().StringVarP(&tasksArg, "tasks", "t", "", "run this task list instead of planning (JSON or YAML)")
	runCmd.Flags().BoolVar(&approve, "approve", false, "mark every non-deleted task completed after the run")
	runCmd.Flags().BoolVar(&review, "review", false, "evaluate each result after the run")

	refineCmd.Flags().StringVarP(&tasksArg, "tasks", "t", "", "task list to refine (JSON or YAML)")
	_ = refineCmd.MarkFlagRequired("tasks")
}

func queryFromArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfgFile, eventSink())
	if err != nil {
		return err
	}
	defer a.Close()

	query := queryFromArgs(args)
	tasks := a.workflow.Plan(cmd.Context(), query)

	if jsonOut {
		return writeJSON(os.Stdout, map[string]any{"query": query, "tasks": tasks})
	}
	printTasks(os.Stdout, "Generated Tasks", tasks)
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	query := queryFromArgs(args)

	var override store.TaskList
	if tasksArg != "" {
		var err error
		if override, err = loadTasks(tasksArg); err != nil {
			return err
		}
	}
	if query == "" && len(override) == 0 {
		return fmt.Errorf("a query or --tasks is required")
	}

	a, err := newApp(cmd.Context(), cfgFile, eventSink())
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.workflow.Run(cmd.Context(), query, override, approve)
	if err != nil {
		return err
	}

	if jsonOut {
		if !review {
			return writeJSON(os.Stdout, out)
		}
		return writeJSON(os.Stdout, map[string]any{
			"outcome":          out,
			"review":           a.feedback.Review(out.Tasks, out.Results),
			"needs_refinement": a.feedback.NeedsRefinement(out.Tasks, out.Results, query),
		})
	}

	printOutcome(os.Stdout, out)
	if review {
		fmt.Println()
		printReview(os.Stdout, a.feedback.Review(out.Tasks, out.Results),
			a.feedback.NeedsRefinement(out.Tasks, out.Results, query))
	}
	return nil
}

func runRefine(cmd *cobra.Command, args []string) error {
	tasks, err := loadTasks(tasksArg)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfgFile, eventSink())
	if err != nil {
		return err
	}
	defer a.Close()

	refined, feedback := a.feedback.ReflectAndRefine(tasks, queryFromArgs(args))

	if jsonOut {
		if feedback == nil {
			feedback = []string{}
		}
		return writeJSON(os.Stdout, map[string]any{"tasks": refined, "feedback": feedback})
	}
	printFeedback(os.Stdout, feedback)
	fmt.Println()
	printTasks(os.Stdout, "Tasks", refined)
	return nil
}
