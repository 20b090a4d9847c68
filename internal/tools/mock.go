package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// MockTool answers every task with a fixed string. It is the default in mock
// mode so runs are deterministic and need no network.
type MockTool struct{}

func (MockTool) Name() string {
	return "mock"
}

func (MockTool) Description() string {
	return "Return a canned response for a task without calling any service."
}

func (MockTool) Parameters() map[string]any {
	return taskParameters("The task description")
}

func (MockTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Task string `json:"task"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	return "Mock response for task: " + args.Task, nil
}

func taskParameters(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task": map[string]any{
				"type":        "string",
				"description": desc,
			},
		},
		"required": []string{"task"},
	}
}
