package llm

import (
	"context"
	"fmt"
	"os"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/llm/claude"
	"stock-sentinel/internal/llm/gemini"
	"stock-sentinel/internal/llm/noop"
	"stock-sentinel/internal/llm/openai"
	"stock-sentinel/internal/store"
)

// NewCompleter builds the completer selected by llm.provider. API keys come
// from OPENAI_API_KEY, CLAUDE_API_KEY and GOOGLE_API_KEY.
func NewCompleter(ctx context.Context, cfg *store.Config) (interfaces.Completer, error) {
	switch cfg.LLM.Provider {
	case "OPENAI":
		endpoint := cfg.LLM.Endpoint
		if endpoint == "" {
			endpoint = openai.DefaultEndpoint
		}
		client := api.NewClient(
			api.WithBaseURL(endpoint),
			api.WithTimeout(cfg.Timeout()),
			api.WithRateLimit(cfg.HTTP.RatePerSecond, cfg.HTTP.Burst),
		)
		return openai.NewCompleter(client, openai.Params{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		}), nil
	case "CLAUDE":
		endpoint := cfg.LLM.Endpoint
		if endpoint == "" {
			endpoint = os.Getenv("CLAUDE_API_ENDPOINT")
		}
		c, err := claude.NewCompleter(claude.Params{
			APIKey:      os.Getenv("CLAUDE_API_KEY"),
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Endpoint:    endpoint,
			Timeout:     cfg.Timeout(),
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "GEMINI":
		c, err := gemini.NewCompleter(ctx, gemini.Params{
			APIKey:      os.Getenv("GOOGLE_API_KEY"),
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Endpoint:    cfg.LLM.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "NOOP":
		return noop.NewCompleter(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
