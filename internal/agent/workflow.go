package agent

import (
	"context"

	"github.com/google/uuid"
	"github.com/rahul/taskflow/internal/observability"
	"github.com/rahul/taskflow/internal/store"
)

const DefaultMaxIterations = 10

// TaskPlanner produces the initial task list for a query.
type TaskPlanner interface {
	Plan(ctx context.Context, query string) store.TaskList
}

// ToolRunner executes one task description and returns its result text.
// It does not fail; problems are reported inside the text.
type ToolRunner interface {
	Run(ctx context.Context, description string) string
}

type route string

const (
	routeTool route = "tool"
	routeEnd  route = "end"
)

// HaltReason says why a run stopped.
type HaltReason string

const (
	HaltCompleted    HaltReason = "completed"
	HaltIterationCap HaltReason = "iteration_cap"
	HaltCanceled     HaltReason = "canceled"
)

// State is owned by a single run and dropped once Run returns.
type State struct {
	RunID    string
	Query    string
	Tasks    store.TaskList
	Cursor   int
	Results  []store.Result
	Override store.TaskList

	// Iterations counts every node visit, plan included. ToolSteps counts
	// tool node visits only and is what the cap applies to. Executed counts
	// actual tool invocations (deleted tasks are stepped over).
	Iterations int
	ToolSteps  int
	Executed   int
}

// Outcome is the snapshot handed back to the caller.
type Outcome struct {
	RunID      string         `json:"run_id"`
	Query      string         `json:"query"`
	Tasks      store.TaskList `json:"tasks"`
	Results    []store.Result `json:"results"`
	Iterations int            `json:"iterations"`
	Executed   int            `json:"executed"`
	Halt       HaltReason     `json:"halt"`
}

// Workflow is the plan -> tool -> tool ... -> end state machine. It processes
// exactly one task per tool step and never overlaps tool calls.
type Workflow struct {
	Planner       TaskPlanner
	Tools         ToolRunner
	MaxIterations int
	Logger        *observability.Logger
	Status        *observability.Status
}

func NewWorkflow(planner TaskPlanner, tools ToolRunner, logger *observability.Logger) *Workflow {
	return &Workflow{
		Planner:       planner,
		Tools:         tools,
		MaxIterations: DefaultMaxIterations,
		Logger:        logger,
	}
}

// Plan runs the planner alone.
func (w *Workflow) Plan(ctx context.Context, query string) store.TaskList {
	return w.Planner.Plan(ctx, query)
}

// Run plans (or takes override verbatim when it is non-empty), executes the
// tasks in order and, when approve is set, marks every non-deleted task
// completed afterwards. The only error is an invalid override.
func (w *Workflow) Run(ctx context.Context, query string, override store.TaskList, approve bool) (*Outcome, error) {
	if len(override) > 0 {
		if err := override.Validate(); err != nil {
			return nil, err
		}
	}

	st := &State{
		RunID:    uuid.NewString(),
		Query:    query,
		Tasks:    override.Clone(),
		Override: override.Clone(),
	}

	w.planNode(ctx, st)
	var halt HaltReason
	for {
		w.toolNode(ctx, st)
		next, reason := w.shouldContinue(ctx, st)
		if next == routeEnd {
			halt = reason
			break
		}
	}
	w.Logger.LogHalt(st.RunID, string(halt), st.Iterations)
	w.Status.Set(observability.RoleIdle, "")

	if approve {
		st.Tasks.Approve()
	}

	return &Outcome{
		RunID:      st.RunID,
		Query:      st.Query,
		Tasks:      st.Tasks,
		Results:    st.Results,
		Iterations: st.Iterations,
		Executed:   st.Executed,
		Halt:       halt,
	}, nil
}

func (w *Workflow) planNode(ctx context.Context, st *State) {
	w.Status.Set(observability.RolePlanner, st.Query)
	w.Logger.LogStep(st.RunID, "", "plan", st.Cursor, st.Iterations)

	source := "override"
	tasks := st.Override.Clone()
	if len(tasks) == 0 {
		source = "planner"
		tasks = w.Planner.Plan(ctx, st.Query)
	}
	w.Logger.LogPlan(st.RunID, st.Query, len(tasks), source)

	st.Tasks = tasks
	st.Cursor = 0
	st.Results = []store.Result{}
	st.Iterations++
}

func (w *Workflow) toolNode(ctx context.Context, st *State) {
	if st.Cursor >= len(st.Tasks) {
		return
	}

	task := &st.Tasks[st.Cursor]
	w.Logger.LogStep(st.RunID, task.ID, "tool", st.Cursor, st.Iterations)

	if task.Status != store.StatusDeleted {
		w.Status.Set(observability.RoleExecutor, task.Description)
		text := w.Tools.Run(ctx, task.Description)
		task.Status = store.StatusCompleted
		st.Results = append(st.Results, store.Result{TaskID: task.ID, Text: text})
		st.Executed++
		w.Logger.LogToolResult(st.RunID, task.ID, text)
	}

	st.Cursor++
	st.ToolSteps++
	st.Iterations++
}

func (w *Workflow) shouldContinue(ctx context.Context, st *State) (route, HaltReason) {
	maxIter := w.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	switch {
	case st.Cursor >= len(st.Tasks):
		return routeEnd, HaltCompleted
	case st.ToolSteps >= maxIter:
		return routeEnd, HaltIterationCap
	case ctx.Err() != nil:
		return routeEnd, HaltCanceled
	}
	return routeTool, ""
}
