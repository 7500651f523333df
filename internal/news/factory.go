package news

import (
	"fmt"
	"os"
	"time"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/store"
)

// NewProvider builds the news provider selected by news.provider, wrapped in
// a cache when news.cache_minutes > 0.
func NewProvider(cfg *store.Config) (interfaces.NewsProvider, error) {
	p, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.News.CacheMinutes > 0 {
		return NewService(p, time.Duration(cfg.News.CacheMinutes)*time.Minute), nil
	}
	return p, nil
}

func newBase(cfg *store.Config) (interfaces.NewsProvider, error) {
	switch cfg.News.Provider {
	case "TAVILY":
		return newTavily(cfg), nil
	case "RSS":
		return newRSS(cfg), nil
	case "SCRAPER":
		return newScraper(cfg), nil
	case "CHAIN":
		return NewChain(newTavily(cfg), newRSS(cfg), newScraper(cfg)), nil
	case "NONE":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.News.Provider)
	}
}

func httpOpts(cfg *store.Config) []api.ClientOption {
	return []api.ClientOption{
		api.WithTimeout(cfg.Timeout()),
		api.WithRateLimit(cfg.HTTP.RatePerSecond, cfg.HTTP.Burst),
		api.WithLogging(true),
	}
}

func newTavily(cfg *store.Config) *Tavily {
	base := cfg.News.TavilyURL
	if base == "" {
		base = DefaultTavilyURL
	}
	client := api.NewClient(append(httpOpts(cfg), api.WithBaseURL(base))...)
	return NewTavily(client, os.Getenv("TAVILY_API_KEY"), cfg.News.MaxResults)
}

func newRSS(cfg *store.Config) *RSS {
	return NewRSS(api.NewClient(httpOpts(cfg)...), cfg.News.RSSURL, cfg.News.MaxResults)
}

func newScraper(cfg *store.Config) *Scraper {
	return NewScraper(cfg.Timeout(), cfg.News.MaxResults, SelectSources(cfg.News.Sources)...)
}
