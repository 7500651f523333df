package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/types"
)

var (
	// ErrInvalidInput is the only fault a run can return.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidSymbol is returned for an empty symbol.
	ErrInvalidSymbol = fmt.Errorf("%w: symbol is required", ErrInvalidInput)
)

// StepEvent is sent to an Observer after every transition, including the
// initial Start state.
type StepEvent struct {
	RunID  string
	Symbol string
	Stage  types.Stage
	State  types.PipelineState
}

// Observer receives intermediate states. It must not block for long; the run
// waits for it.
type Observer interface {
	OnStep(ctx context.Context, ev StepEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev StepEvent)

func (f ObserverFunc) OnStep(ctx context.Context, ev StepEvent) { f(ctx, ev) }

// Pipeline runs the decision graph for one symbol at a time. It holds no
// per-run state and is safe for concurrent use if its providers are.
type Pipeline struct {
	snapshots   interfaces.SnapshotProvider
	news        interfaces.NewsProvider
	analyzer    interfaces.Analyzer
	observers   []Observer
	recencyDays int
	newRunID    func() string
}

var _ interfaces.Pipeline = (*Pipeline)(nil)

type Option func(*Pipeline)

// WithObserver adds a step observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithRecencyDays overrides the news lookback window.
func WithRecencyDays(days int) Option {
	return func(p *Pipeline) {
		if days > 0 {
			p.recencyDays = days
		}
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(gen func() string) Option {
	return func(p *Pipeline) {
		if gen != nil {
			p.newRunID = gen
		}
	}
}

func New(snapshots interfaces.SnapshotProvider, news interfaces.NewsProvider, analyzer interfaces.Analyzer, opts ...Option) *Pipeline {
	p := &Pipeline{
		snapshots:   snapshots,
		news:        news,
		analyzer:    analyzer,
		recencyDays: DefaultRecencyDays,
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drives one symbol to a terminal state. Provider failures are recorded in
// the returned state; only an empty symbol yields an error.
func (p *Pipeline) Run(ctx context.Context, symbol string) (*types.PipelineState, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	st := Begin(p.newRunID(), symbol)
	p.emit(ctx, st)

	for !st.Stage.Terminal() {
		switch Next(st) {
		case types.StageSnapshotFetched:
			st = WithSnapshot(st, p.fetchSnapshot(ctx, symbol))
		case types.StageNewsFetched:
			st = WithNews(st, p.fetchNews(ctx, symbol))
		case types.StageAnalyzed:
			st = p.analyze(ctx, st)
		default:
			st = Terminate(st)
		}
		p.emit(ctx, st)
	}

	return &st, nil
}

func (p *Pipeline) fetchSnapshot(ctx context.Context, symbol string) types.Snapshot {
	snap, err := p.snapshots.Fetch(ctx, symbol)
	if err != nil {
		return types.Snapshot{Symbol: symbol, Error: err.Error()}
	}
	if snap.Symbol == "" {
		snap.Symbol = symbol
	}
	return snap
}

func (p *Pipeline) fetchNews(ctx context.Context, symbol string) []types.NewsItem {
	items, err := p.news.Search(ctx, NewsQuery(symbol), p.recencyDays)
	if err != nil {
		return types.NewsError(err.Error())
	}
	return items
}

func (p *Pipeline) analyze(ctx context.Context, st types.PipelineState) types.PipelineState {
	text, err := p.analyzer.Analyze(ctx, st.Symbol, *st.Snapshot, st.News)
	if err != nil {
		return WithAnalysisError(st, err)
	}
	return WithAnalysis(st, text)
}

func (p *Pipeline) emit(ctx context.Context, st types.PipelineState) {
	if len(p.observers) == 0 {
		return
	}
	ev := StepEvent{RunID: st.RunID, Symbol: st.Symbol, Stage: st.Stage, State: st}
	for _, o := range p.observers {
		o.OnStep(ctx, ev)
	}
}
