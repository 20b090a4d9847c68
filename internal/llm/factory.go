package llm

import (
	"context"
	"fmt"

	"github.com/rahul/taskflow/pkg/config"
	"github.com/tmc/langchaingo/llms/openai"
)

// New builds a Generator for a named provider. groq, openai and openrouter
// all speak the OpenAI chat API and share the langchaingo client.
func New(ctx context.Context, name string, p config.ProviderConfig) (Generator, error) {
	switch name {
	case "groq", "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
			openai.WithModel(p.Model),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to init %s client: %w", name, err)
		}
		return NewLangchain(model), nil
	case "gemini":
		return NewGemini(ctx, p.APIKey, p.Model)
	case "":
		return nil, ErrNoProvider
	default:
		return nil, fmt.Errorf("provider %s not supported", name)
	}
}

// FromConfig picks the default enabled provider. When none is usable it
// returns Unavailable carrying the reason, so callers can keep running.
func FromConfig(ctx context.Context, cfg *config.Config) Generator {
	name, p := cfg.GetDefaultProvider()
	g, err := New(ctx, name, p)
	if err != nil {
		return Unavailable{Err: err}
	}
	return g
}
