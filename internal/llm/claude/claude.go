package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/trace"
)

const DefaultModel = "claude-3-5-haiku-latest"

// Params configures the Anthropic Messages client.
type Params struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	// Endpoint overrides the API base URL (proxies, tests).
	Endpoint string
	Timeout  time.Duration
}

// Completer implements interfaces.Completer on the Anthropic Messages API.
type Completer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	temp      float32
}

var _ interfaces.Completer = (*Completer)(nil)

func NewCompleter(p Params) (*Completer, error) {
	if p.APIKey == "" {
		return nil, errors.New("CLAUDE_API_KEY missing")
	}
	if p.Model == "" {
		p.Model = DefaultModel
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 1024
	}

	opts := []option.RequestOption{
		option.WithAPIKey(p.APIKey),
		option.WithMaxRetries(0),
	}
	if p.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(p.Endpoint))
	}
	if p.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: p.Timeout}))
	}

	return &Completer{
		client:    anthropic.NewClient(opts...),
		model:     p.Model,
		maxTokens: int64(p.MaxTokens),
		temp:      p.Temperature,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.temp > 0 {
		params.Temperature = anthropic.Float(float64(c.temp))
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("claude: empty response")
	}
	return strings.TrimSpace(out.String()), nil
}
