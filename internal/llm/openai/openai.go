package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/trace"
)

const DefaultEndpoint = "https://api.openai.com"

// Params configures an OpenAI chat completion client.
type Params struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Completer calls the OpenAI chat completions endpoint.
type Completer struct {
	client *api.Client
	p      Params
}

var _ interfaces.Completer = (*Completer)(nil)

// NewCompleter builds a completer on client, whose base URL must point at the
// API root (DefaultEndpoint or a compatible proxy).
func NewCompleter(client *api.Client, p Params) *Completer {
	if p.Model == "" {
		p.Model = "gpt-4o-mini"
	}
	return &Completer{client: client, p: p}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if c.p.APIKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	msgs := make([]chatMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})

	body := chatRequest{
		Model:       c.p.Model,
		Messages:    msgs,
		Temperature: c.p.Temperature,
		MaxTokens:   c.p.MaxTokens,
	}
	resp, err := c.client.POST(ctx, "/v1/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + c.p.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var r chatResponse
	if err := resp.ParseJSON(&r); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
