package noop

import (
	"context"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
)

// Response is what the noop completer always answers. It carries no decision
// marker, so analyses classify as Unknown.
const Response = "Analysis: no LLM provider configured; the move was not analyzed."

// Completer is a fallback used when no LLM is configured
type Completer struct{}

var _ interfaces.Completer = (*Completer)(nil)

func NewCompleter() *Completer {
	return &Completer{}
}

func (c *Completer) Complete(ctx context.Context, system, prompt string) (string, error) {
	logger.Debug(ctx, "Noop completer called", "prompt_len", len(prompt))
	return Response, nil
}
