// Package watch runs the decision pipeline over a fixed watchlist on a cron
// schedule and logs each verdict.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/pipeline"
	"stock-sentinel/internal/types"
)

const DefaultSchedule = "*/15 9-15 * * 1-5"

var ErrNoSymbols = errors.New("watch: no symbols configured")

// Watcher owns a cron scheduler with a single watchlist job.
type Watcher struct {
	pipeline    interfaces.Pipeline
	symbols     []string
	schedule    string
	concurrency int

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	onRound func([]pipeline.BatchResult)
}

type Option func(*Watcher)

// WithConcurrency sets how many symbols run at once in a round.
func WithConcurrency(n int) Option {
	return func(w *Watcher) { w.concurrency = n }
}

// WithRoundHook registers a callback invoked after every round.
func WithRoundHook(fn func([]pipeline.BatchResult)) Option {
	return func(w *Watcher) { w.onRound = fn }
}

func New(p interfaces.Pipeline, symbols []string, schedule string, opts ...Option) (*Watcher, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}
	w := &Watcher{
		pipeline: p,
		symbols:  symbols,
		schedule: schedule,
		cron:     cron.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// RunOnce analyses the whole watchlist and logs a verdict per symbol.
// Overlapping rounds are skipped.
func (w *Watcher) RunOnce(ctx context.Context) []pipeline.BatchResult {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		logger.Warn(ctx, "Previous watch round still running, skipping")
		return nil
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	op := logger.StartOperation(ctx, "watch.round", "symbols", len(w.symbols))
	results := pipeline.RunBatch(op.GetContext(), w.pipeline, w.symbols, w.concurrency)

	var analyzed, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			logger.ErrorWithErr(ctx, "Watch symbol failed", r.Err, "symbol", r.Symbol)
		case r.State.Stage == types.StageAnalyzed:
			analyzed++
		}
	}
	op.End("analyzed", analyzed, "failed", failed)

	if w.onRound != nil {
		w.onRound(results)
	}
	return results
}

// Run schedules the watchlist and blocks until ctx is cancelled. When
// immediate is set a round runs before the first tick.
func (w *Watcher) Run(ctx context.Context, immediate bool) error {
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	logger.Info(ctx, "Watch started", "schedule", w.schedule, "symbols", w.symbols)

	if immediate {
		w.RunOnce(ctx)
	}
	w.cron.Start()

	<-ctx.Done()
	stopped := w.cron.Stop()
	<-stopped.Done()
	logger.Info(ctx, "Watch stopped")
	return nil
}
