package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rahul/taskflow/internal/llm"
)

// AnswerTool asks the configured model to carry out a task directly.
type AnswerTool struct {
	Generator llm.Generator
	// Instructions come from the worker prompt files and are prepended to
	// every task.
	Instructions string
}

func NewAnswerTool(gen llm.Generator, instructions string) *AnswerTool {
	return &AnswerTool{Generator: gen, Instructions: instructions}
}

func (a *AnswerTool) Name() string {
	return "llm"
}

func (a *AnswerTool) Description() string {
	return "Answer a task with the language model when no other tool applies."
}

func (a *AnswerTool) Parameters() map[string]any {
	return taskParameters("The task to complete")
}

func (a *AnswerTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Task string `json:"task"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}

	var sb strings.Builder
	if a.Instructions != "" {
		sb.WriteString(a.Instructions)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Complete the following task and reply with the result only.\n\nTask: ")
	sb.WriteString(args.Task)

	out, err := a.Generator.Generate(ctx, sb.String())
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}
