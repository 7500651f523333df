package interfaces

import (
	"context"

	"stock-sentinel/internal/types"
)

// Pipeline runs the decision graph for one symbol to a terminal state.
type Pipeline interface {
	Run(ctx context.Context, symbol string) (*types.PipelineState, error)
}

// Screener turns a natural-language query into a list of ticker symbols.
type Screener interface {
	Screen(ctx context.Context, query string) ([]string, error)
}
