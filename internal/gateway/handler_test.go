package gateway

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rahul/taskflow/internal/agent"
	"github.com/rahul/taskflow/internal/observability"
	"github.com/rahul/taskflow/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPlanner struct {
	tasks store.TaskList
}

func (p fixedPlanner) Plan(ctx context.Context, query string) store.TaskList {
	return p.tasks.Clone()
}

type echoTools struct{}

func (echoTools) Run(ctx context.Context, description string) string {
	return "Mock response for task: " + description
}

func partyTasks() store.TaskList {
	return store.TaskList{
		{ID: "1", Description: "Pick a date and book the venue", Status: store.StatusPending},
		{ID: "2", Description: "Send invitations to all the guests", Status: store.StatusPending},
		{ID: "3", Description: "Order the birthday cake and decorations", Status: store.StatusPending},
	}
}

func newTestWorkflow(tasks store.TaskList) *agent.Workflow {
	return agent.NewWorkflow(fixedPlanner{tasks: tasks}, echoTools{}, observability.Nop())
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	sessions, err := store.NewSessionStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })

	return NewHandler(sessions, newTestWorkflow(partyTasks()), agent.NewFeedbackEngine(observability.Nop()))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in, cmd, arg string
	}{
		{"/plan organize a party", "plan", "organize a party"},
		{"/TASKS", "tasks", ""},
		{"/edit@taskflow_bot 2 new text", "edit", "2 new text"},
		{"organize a party", "plan", "organize a party"},
		{"   ", "", ""},
	}
	for _, tt := range tests {
		cmd, arg := parseCommand(tt.in)
		assert.Equal(t, tt.cmd, cmd, tt.in)
		assert.Equal(t, tt.arg, arg, tt.in)
	}
}

func TestHandler_PlanStoresSession(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	reply := h.Respond(ctx, "42", "organize birthday party")
	assert.True(t, strings.HasPrefix(reply, "Generated Tasks:"))
	assert.Contains(t, reply, "Task 2: Send invitations to all the guests (Status: completed)")

	sess, err := h.Sessions.Load("42")
	require.NoError(t, err)
	assert.Equal(t, "organize birthday party", sess.Query)
	assert.Len(t, sess.Tasks, 3)
	assert.Len(t, sess.Results, 3)
}

func TestHandler_EditDeleteAdd(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()
	h.Respond(ctx, "42", "/plan organize birthday party")

	assert.Equal(t, "Updated Task 1: Book the community hall for saturday", h.Respond(ctx, "42", "/edit 1 Book the community hall for saturday"))
	assert.Equal(t, "Deleted Task 2", h.Respond(ctx, "42", "/delete 2"))
	assert.Equal(t, "Added Task 4: Buy balloons and party hats", h.Respond(ctx, "42", "/add Buy balloons and party hats"))

	tasks := h.Respond(ctx, "42", "/tasks")
	assert.Contains(t, tasks, "Task 1: Book the community hall for saturday (Status: pending)")
	assert.NotContains(t, tasks, "Task 2:")
	assert.Contains(t, tasks, "Task 4: Buy balloons and party hats (Status: pending)")

	assert.Contains(t, h.Respond(ctx, "42", "/delete 2"), "Could not delete task 2")
	assert.Contains(t, h.Respond(ctx, "42", "/edit 9 something"), "Could not edit task 9")
	assert.Equal(t, "Usage: /edit <id> <description>", h.Respond(ctx, "42", "/edit 1"))
}

func TestHandler_ApproveRunsActiveTasks(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()
	h.Respond(ctx, "42", "/plan organize birthday party")
	h.Respond(ctx, "42", "/delete 2")

	reply := h.Respond(ctx, "42", "/approve")
	assert.Equal(t, "Results:\n"+
		"Task 1: Mock response for task: Pick a date and book the venue\n"+
		"Task 3: Mock response for task: Order the birthday cake and decorations", reply)

	sess, err := h.Sessions.Load("42")
	require.NoError(t, err)
	require.Len(t, sess.Tasks, 2)
	for _, task := range sess.Tasks {
		assert.Equal(t, store.StatusCompleted, task.Status)
	}

	runs, err := h.Sessions.ListRuns("42", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].Results, 2)
	assert.Contains(t, h.Respond(ctx, "42", "/history"), "organize birthday party (2 results)")
}

func TestHandler_ApproveWithoutTasks(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	assert.Equal(t, "No tasks to run.", h.Respond(ctx, "7", "/approve"))

	h.Respond(ctx, "7", "/add Just one task here")
	h.Respond(ctx, "7", "/delete 1")
	assert.Equal(t, "No tasks available to run.", h.Respond(ctx, "7", "/approve"))
}

func TestHandler_RefineAndReview(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()
	h.Respond(ctx, "42", "/plan organize birthday party")
	h.Respond(ctx, "42", "/add do it")

	reply := h.Respond(ctx, "42", "/refine")
	assert.Contains(t, reply, "- Adding task for missing aspect: organize")
	assert.Contains(t, reply, "- Adding task for missing aspect: party")
	assert.Contains(t, reply, "- Modifying vague task: do it")
	assert.Contains(t, reply, "Task 4: Refined: do it with detailed steps")

	assert.Equal(t, "No changes needed.\n\n", h.Respond(ctx, "42", "/refine")[:len("No changes needed.\n\n")])

	review := h.Respond(ctx, "42", "/review")
	assert.Contains(t, review, "Task 1: accept")
	assert.Contains(t, review, "Some tasks still need work")
}

func TestHandler_ReviewWithoutResults(t *testing.T) {
	h := newTestHandler(t)
	assert.Equal(t, "No results yet. Use /approve to run the tasks.", h.Respond(context.Background(), "1", "/review"))
}

func TestHandler_ErrorTasksFlagged(t *testing.T) {
	sessions, err := store.NewSessionStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer sessions.Close()

	failing := store.TaskList{{ID: "1", Description: "Error: connection refused", Status: store.StatusError}}
	h := NewHandler(sessions, agent.NewWorkflow(fixedPlanner{tasks: failing}, echoTools{}, observability.Nop()), agent.NewFeedbackEngine(observability.Nop()))

	reply := h.Respond(context.Background(), "1", "/plan anything")
	assert.Contains(t, reply, "! Task 1: Error: connection refused")
}

func TestHandler_SessionsAreIsolated(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()
	h.Respond(ctx, "a", "/plan organize birthday party")

	assert.Equal(t, "No tasks.", h.Respond(ctx, "b", "/tasks"))
}

func TestHandler_UnknownCommand(t *testing.T) {
	h := newTestHandler(t)
	reply := h.Respond(context.Background(), "1", "/dance")
	assert.True(t, strings.HasPrefix(reply, "Unknown command /dance."))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	chunks := splitMessage("line one\nline two\nline three", 12)
	assert.Equal(t, []string{"line one", "line two", "line three"}, chunks)

	chunks = splitMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunks)
}
