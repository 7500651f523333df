package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/types"
)

// BatchResult is the outcome for one symbol of a batch. Err is set when the
// run faulted or was cancelled; State is nil then.
type BatchResult struct {
	Symbol string
	State  *types.PipelineState
	Err    error
}

// OK reports whether the symbol produced a terminal state.
func (r BatchResult) OK() bool { return r.Err == nil && r.State != nil }

// RunBatch runs p for every symbol and returns results in input order. With
// concurrency <= 1 symbols run one after another. A failing symbol never
// stops the others.
func RunBatch(ctx context.Context, p interfaces.Pipeline, symbols []string, concurrency int) []BatchResult {
	results := make([]BatchResult, len(symbols))

	runOne := func(i int) {
		sym := symbols[i]
		if err := ctx.Err(); err != nil {
			results[i] = BatchResult{Symbol: sym, Err: err}
			return
		}
		st, err := p.Run(ctx, sym)
		results[i] = BatchResult{Symbol: sym, State: st, Err: err}
	}

	if concurrency <= 1 {
		for i := range symbols {
			runOne(i)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i := range symbols {
		g.Go(func() error {
			runOne(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
