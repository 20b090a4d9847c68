package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/rahul/taskflow/internal/governance"
	"github.com/rahul/taskflow/internal/llm"
	"github.com/rahul/taskflow/internal/observability"
	"github.com/rahul/taskflow/pkg/config"
)

const (
	ModeMock = "mock"
	ModeLive = "live"
)

var urlRe = regexp.MustCompile(`https?://[^\s"'<>]+`)

// Dispatcher picks a tool for each task description and runs it. It never
// fails: tool errors and policy denials come back as "Error: ..." text so the
// feedback engine can see them.
type Dispatcher struct {
	Mode     string
	RenderJS bool
	Registry *Registry
	Policy   governance.PolicyEngine
	Logger   *observability.Logger
}

// NewDispatcher registers the mock tool always and, in live mode, the search,
// page and answer tools.
func NewDispatcher(cfg config.ToolsConfig, gen llm.Generator, instructions string, policy governance.PolicyEngine, logger *observability.Logger) *Dispatcher {
	reg := NewRegistry()
	reg.Register(MockTool{})

	mode := strings.ToLower(cfg.Mode)
	if mode != ModeLive {
		mode = ModeMock
	}

	if mode == ModeLive {
		if search, err := NewSearchTool(); err != nil {
			log.Printf("Warning: search tool unavailable: %v", err)
		} else {
			reg.Register(search)
		}
		reg.Register(NewScraperTool())
		if cfg.RenderJS {
			reg.Register(NewBrowserTool())
		}
		reg.Register(NewAnswerTool(gen, instructions))
	}

	return &Dispatcher{
		Mode:     mode,
		RenderJS: cfg.RenderJS,
		Registry: reg,
		Policy:   policy,
		Logger:   logger,
	}
}

// Route chooses the tool name and its JSON input for a task.
func (d *Dispatcher) Route(description string) (string, string) {
	if d.Mode != ModeLive {
		return "mock", jsonArgs("task", description)
	}

	if u := urlRe.FindString(description); u != "" {
		u = strings.TrimRight(u, ".,;:)")
		if d.RenderJS && d.Registry.Get("browser") != nil {
			return "browser", jsonArgs("url", u)
		}
		return "scraper", jsonArgs("url", u)
	}

	if strings.Contains(strings.ToLower(description), "search") && d.Registry.Get("search") != nil {
		return "search", jsonArgs("query", SearchQuery(description))
	}

	return "llm", jsonArgs("task", description)
}

// Run implements agent.ToolRunner.
func (d *Dispatcher) Run(ctx context.Context, description string) string {
	name, args := d.Route(description)
	tool := d.Registry.Get(name)
	if tool == nil {
		return fmt.Sprintf("Error: tool '%s' is not available", name)
	}

	if d.Policy != nil {
		res, err := d.Policy.Evaluate(ctx, governance.Request{Tool: name, Arguments: args, Task: description})
		if err != nil {
			d.Logger.LogError(observability.EventTypePolicyCheck, "", err)
			return fmt.Sprintf("Error: policy check failed: %v", err)
		}
		d.Logger.LogPolicyCheck(name, res.Allowed(), res.Reason)
		if !res.Allowed() {
			return "Error: " + res.Reason
		}
	}

	d.Logger.LogToolCall("", "", name, args)
	out, err := tool.Execute(ctx, args)
	if err != nil {
		d.Logger.LogError(observability.EventTypeToolResult, "", err)
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

// Close releases tools that hold processes.
func (d *Dispatcher) Close() {
	if b, ok := d.Registry.Get("browser").(*BrowserTool); ok {
		b.Close()
	}
}

func jsonArgs(key, value string) string {
	data, _ := json.Marshal(map[string]string{key: value})
	return string(data)
}
