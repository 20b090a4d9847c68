package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/rahul/taskflow/internal/agent"
	"github.com/rahul/taskflow/internal/governance"
	"github.com/rahul/taskflow/internal/llm"
	"github.com/rahul/taskflow/internal/observability"
	"github.com/rahul/taskflow/internal/tools"
	"github.com/rahul/taskflow/pkg/config"
)

// app is everything a command needs, wired from the config.
type app struct {
	cfg      *config.Config
	logger   *observability.Logger
	status   *observability.Status
	gen      llm.Generator
	workflow *agent.Workflow
	feedback *agent.FeedbackEngine
	tools    *tools.Dispatcher
}

func newApp(ctx context.Context, cfgPath string, events io.Writer) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(events, cfg.Logging.LLMLogPath)
	status := observability.NewStatus()
	gen := llm.FromConfig(ctx, cfg)

	prompts := agent.NewPromptManager(cfg.App.PromptsDir)
	planner := agent.NewPlanner(gen, logger)
	tmpl, err := prompts.PlannerTemplate()
	if err != nil {
		return nil, err
	}
	planner.Template = tmpl
	planner.Attempts = cfg.Workflow.PlanAttempts
	planner.RetryDelay = cfg.Workflow.Delay()
	planner.MaxTasks = cfg.Workflow.MaxTasks

	var instructions string
	if strings.EqualFold(cfg.Tools.Mode, tools.ModeLive) {
		if instructions, err = prompts.GetWorkerPrompt(); err != nil {
			log.Printf("Warning: no worker prompt: %v", err)
		}
	}

	policy, err := governance.FromConfig(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("tools config: %w", err)
	}
	dispatcher := tools.NewDispatcher(cfg.Tools, gen, instructions, policy, logger)

	wf := agent.NewWorkflow(planner, dispatcher, logger)
	wf.MaxIterations = cfg.Workflow.MaxIterations
	wf.Status = status

	return &app{
		cfg:      cfg,
		logger:   logger,
		status:   status,
		gen:      gen,
		workflow: wf,
		feedback: agent.NewFeedbackEngine(logger),
		tools:    dispatcher,
	}, nil
}

func (a *app) Close() {
	if a.tools != nil {
		a.tools.Close()
	}
	if c, ok := a.gen.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("Warning: closing llm client: %v", err)
		}
	}
}

// eventSink is where workflow events go for one-shot commands.
func eventSink() io.Writer {
	if verbose {
		return os.Stderr
	}
	return io.Discard
}
