package interfaces

import (
	"context"

	"stock-sentinel/internal/types"
)

// SnapshotProvider returns the latest price snapshot for a symbol.
type SnapshotProvider interface {
	Fetch(ctx context.Context, symbol string) (types.Snapshot, error)
}

// NewsProvider searches recent news for a free-text query.
type NewsProvider interface {
	Search(ctx context.Context, query string, recencyDays int) ([]types.NewsItem, error)
}

// Analyzer explains a price move given its snapshot and news. It returns the
// raw model response; classification is the caller's job.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, snap types.Snapshot, news []types.NewsItem) (string, error)
}

// Completer is a single-turn text completion against an LLM provider.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
