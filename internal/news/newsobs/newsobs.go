package newsobs

import (
	"context"
	"time"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/trace"
	"stock-sentinel/internal/types"
)

type observableNews struct {
	provider interfaces.NewsProvider
}

var _ interfaces.NewsProvider = (*observableNews)(nil)

func Wrap(p interfaces.NewsProvider) interfaces.NewsProvider {
	return &observableNews{
		provider: p,
	}
}

func (on *observableNews) Search(ctx context.Context, query string, recencyDays int) ([]types.NewsItem, error) {
	ctx, span := trace.StartSpan(ctx, "news.Search")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Searching news",
		"query", query,
		"recency_days", recencyDays,
	)

	items, err := on.provider.Search(ctx, query, recencyDays)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "News search failed", err,
			"query", query,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "News search completed",
		"query", query,
		"items", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if logger.IsDebugEnabled() {
		titles := make([]string, 0, len(items))
		for _, it := range items {
			titles = append(titles, it.Title)
		}
		logger.DebugSkip(ctx, 1, "News titles", "query", query, "titles", titles)
	}

	return items, nil
}
