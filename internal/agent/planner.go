package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rahul/taskflow/internal/llm"
	"github.com/rahul/taskflow/internal/observability"
	"github.com/rahul/taskflow/internal/store"
	"github.com/tmc/langchaingo/prompts"
)

const (
	DefaultPlanAttempts = 3
	DefaultRetryDelay   = time.Second
	DefaultMaxTasks     = 5

	NoTasksGenerated = "No tasks generated"
)

// preamble lines the model tends to put before the list
var preamblePrefixes = []string{"Here are", "To address"}

var bulletRe = regexp.MustCompile(`^[•\-\*–—·]\s*`)

// Planner turns a query into an ordered task list with one LLM call,
// retried a fixed number of times.
type Planner struct {
	Generator  llm.Generator
	Template   prompts.PromptTemplate
	Attempts   int
	RetryDelay time.Duration
	MaxTasks   int
	Logger     *observability.Logger
}

func NewPlanner(gen llm.Generator, logger *observability.Logger) *Planner {
	return &Planner{
		Generator:  gen,
		Template:   prompts.NewPromptTemplate(DefaultPlannerPrompt, []string{"query"}),
		Attempts:   DefaultPlanAttempts,
		RetryDelay: DefaultRetryDelay,
		MaxTasks:   DefaultMaxTasks,
		Logger:     logger,
	}
}

// Plan never fails: an exhausted generator or an unusable response comes
// back as a single task with status error.
func (p *Planner) Plan(ctx context.Context, query string) store.TaskList {
	prompt, err := p.Template.Format(map[string]any{"query": query})
	if err != nil {
		return errorTask(fmt.Sprintf("Error: %v", err))
	}

	raw, err := p.generate(ctx, prompt)
	if err != nil {
		p.Logger.LogError(observability.EventTypePlan, "", err)
		return errorTask(fmt.Sprintf("Error: %v", err))
	}

	descriptions := ParseTasks(raw)
	if len(descriptions) == 0 {
		return errorTask(NoTasksGenerated)
	}
	if p.MaxTasks > 0 && len(descriptions) > p.MaxTasks {
		descriptions = descriptions[:p.MaxTasks]
	}

	tasks := make(store.TaskList, 0, len(descriptions))
	for i, d := range descriptions {
		tasks = append(tasks, store.Task{
			ID:          strconv.Itoa(i + 1),
			Description: d,
			Status:      store.StatusPending,
		})
	}
	return tasks
}

func (p *Planner) generate(ctx context.Context, prompt string) (string, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := p.Generator.Generate(ctx, prompt)
		if err == nil {
			p.Logger.LogLLM(prompt, raw)
			return raw, nil
		}
		lastErr = err
		p.Logger.LogRetry(attempt, err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.RetryDelay):
		}
	}
	return "", lastErr
}

// ParseTasks extracts task descriptions from a bulleted model response.
func ParseTasks(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isPreamble(line) {
			continue
		}
		cleaned := strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func isPreamble(line string) bool {
	for _, p := range preamblePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func errorTask(description string) store.TaskList {
	return store.TaskList{{ID: "1", Description: description, Status: store.StatusError}}
}
