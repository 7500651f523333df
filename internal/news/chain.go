package news

import (
	"context"
	"errors"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/types"
)

// Chain tries providers in order and returns the first non-empty result.
type Chain struct {
	providers []interfaces.NewsProvider
}

var _ interfaces.NewsProvider = (*Chain)(nil)

func NewChain(providers ...interfaces.NewsProvider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Search(ctx context.Context, query string, recencyDays int) ([]types.NewsItem, error) {
	var errs []error
	for i, p := range c.providers {
		items, err := p.Search(ctx, query, recencyDays)
		if err != nil {
			errs = append(errs, err)
			logger.Warn(ctx, "News provider failed, trying next", "position", i, "error", err)
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	if len(errs) == len(c.providers) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []types.NewsItem{}, nil
}

// None is the provider used when news search is disabled.
type None struct{}

func (None) Search(context.Context, string, int) ([]types.NewsItem, error) {
	return []types.NewsItem{}, nil
}
