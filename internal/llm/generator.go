package llm

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"
)

// Generator is the text-generation capability used by the planner and the
// LLM answer tool.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrNoProvider is returned by Unavailable when no provider is configured.
var ErrNoProvider = errors.New("no enabled LLM provider configured")

// LangchainGenerator adapts any langchaingo model.
type LangchainGenerator struct {
	Model llms.Model
	Opts  []llms.CallOption
}

func NewLangchain(model llms.Model, opts ...llms.CallOption) *LangchainGenerator {
	return &LangchainGenerator{Model: model, Opts: opts}
}

func (g *LangchainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.Model, prompt, g.Opts...)
}

// Unavailable always fails. It lets the planner surface a missing provider as
// an error task instead of aborting the process.
type Unavailable struct {
	Err error
}

func (u Unavailable) Generate(ctx context.Context, prompt string) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	return "", ErrNoProvider
}

// GeneratorFunc lets a plain function act as a Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
