package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/trace"
)

const DefaultModel = "gemini-2.0-flash"

// Params configures the Gemini client.
type Params struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Endpoint    string
}

// Completer implements interfaces.Completer on the Gemini API.
type Completer struct {
	client    *genai.Client
	model     string
	maxTokens int32
	temp      float32
}

var _ interfaces.Completer = (*Completer)(nil)

func NewCompleter(ctx context.Context, p Params) (*Completer, error) {
	if p.APIKey == "" {
		return nil, errors.New("GOOGLE_API_KEY missing")
	}
	if p.Model == "" {
		p.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Completer{
		client:    client,
		model:     p.Model,
		maxTokens: int32(p.MaxTokens),
		temp:      p.Temperature,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temp),
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = c.maxTokens
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	var out strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				out.WriteString(part.Text)
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	if out.Len() == 0 {
		return "", errors.New("gemini: empty response")
	}
	return strings.TrimSpace(out.String()), nil
}
