package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rahul/taskflow/internal/agent"
	"github.com/rahul/taskflow/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTasks_JSONList(t *testing.T) {
	path := writeFile(t, "tasks.json", `[
		{"id": "1", "description": "Book the venue", "status": "pending"},
		{"id": "2", "description": "Send invitations", "status": "deleted"}
	]`)

	tasks, err := loadTasks(path)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, store.StatusDeleted, tasks[1].Status)
}

func TestLoadTasks_PlanOutput(t *testing.T) {
	path := writeFile(t, "plan.json", `{"query": "party", "tasks": [
		{"id": "1", "description": "Book the venue", "status": "pending"}
	]}`)

	tasks, err := loadTasks(path)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Book the venue", tasks[0].Description)
}

func TestLoadTasks_YAML(t *testing.T) {
	path := writeFile(t, "tasks.yaml", `
- id: "1"
  description: Book the venue
  status: pending
- id: "2"
  description: Order the cake
  status: completed
`)

	tasks, err := loadTasks(path)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, store.Task{ID: "2", Description: "Order the cake", Status: store.StatusCompleted}, tasks[1])
}

func TestLoadTasks_Malformed(t *testing.T) {
	path := writeFile(t, "tasks.json", `[{"id": "1", "status": "pending"}]`)
	_, err := loadTasks(path)
	assert.ErrorIs(t, err, store.ErrInvalidTask)

	path = writeFile(t, "empty.json", `[]`)
	_, err = loadTasks(path)
	assert.Error(t, err)

	_, err = loadTasks(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestQueryFromArgs(t *testing.T) {
	assert.Equal(t, "organize a party", queryFromArgs([]string{"organize", "a", "party"}))
	assert.Equal(t, "", queryFromArgs(nil))
}

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "taskflow", rootCmd.Use)
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"plan", "run", "refine", "serve"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestNewApp_MockRun(t *testing.T) {
	cfgPath := writeFile(t, "config.yaml", `
workflow:
  max_iterations: 2
tools:
  mode: mock
logging:
  llm_log_path: ""
`)

	a, err := newApp(context.Background(), cfgPath, io.Discard)
	require.NoError(t, err)
	defer a.Close()

	override := store.TaskList{
		{ID: "1", Description: "Book the venue", Status: store.StatusPending},
		{ID: "2", Description: "Send invitations", Status: store.StatusPending},
		{ID: "3", Description: "Order the cake", Status: store.StatusPending},
	}
	out, err := a.workflow.Run(context.Background(), "party", override, false)
	require.NoError(t, err)

	assert.Equal(t, agent.HaltIterationCap, out.Halt)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "Mock response for task: Book the venue", out.Results[0].Text)
}

type closingGenerator struct {
	closed int
}

func (g *closingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func (g *closingGenerator) Close() error {
	g.closed++
	return nil
}

func TestApp_CloseReleasesGenerator(t *testing.T) {
	gen := &closingGenerator{}
	a := &app{gen: gen}

	a.Close()
	assert.Equal(t, 1, gen.closed)
}
