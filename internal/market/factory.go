package market

import (
	"fmt"
	"os"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/store"
)

// NewProvider builds the snapshot provider selected by market.provider.
func NewProvider(cfg *store.Config) (interfaces.SnapshotProvider, error) {
	switch cfg.Market.Provider {
	case "YAHOO":
		client := NewYahooClient(cfg.Market.YahooBaseURL,
			api.WithTimeout(cfg.Timeout()),
			api.WithRateLimit(cfg.HTTP.RatePerSecond, cfg.HTTP.Burst),
			api.WithLogging(true),
		)
		return NewYahoo(client), nil
	case "KITE":
		k, err := NewKite(KiteParams{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:    cfg.Market.Exchange,
			BaseURI:     cfg.Market.KiteBaseURL,
			RateLimit:   cfg.HTTP.RatePerSecond,
		})
		if err != nil {
			return nil, err
		}
		return k, nil
	case "STATIC":
		return NewStatic(cfg.Market.Static), nil
	default:
		return nil, fmt.Errorf("unknown market provider %q", cfg.Market.Provider)
	}
}
