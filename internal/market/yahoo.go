package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/types"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// ErrNotEnoughData is returned when fewer than two daily closes are available.
var ErrNotEnoughData = errors.New("not enough data")

// Yahoo reads the last two daily closes from the Yahoo Finance chart endpoint.
type Yahoo struct {
	client *api.Client
}

var _ interfaces.SnapshotProvider = (*Yahoo)(nil)

// NewYahoo builds a provider on client. A base URL should already be set on
// the client; see NewYahooClient.
func NewYahoo(client *api.Client) *Yahoo {
	return &Yahoo{client: client}
}

// NewYahooClient returns an api.Client preconfigured for the chart endpoint.
func NewYahooClient(baseURL string, opts ...api.ClientOption) *api.Client {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	all := append([]api.ClientOption{
		api.WithBaseURL(baseURL),
		api.WithHeaders(api.YahooFinanceHeaders()),
	}, opts...)
	return api.NewClient(all...)
}

func (y *Yahoo) Fetch(ctx context.Context, symbol string) (types.Snapshot, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s?range=5d&interval=1d", url.PathEscape(symbol))
	resp, err := y.client.GET(ctx, path)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	return parseChart(symbol, resp.Body)
}

func parseChart(symbol string, body []byte) (types.Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return types.Snapshot{}, fmt.Errorf("yahoo chart %s: invalid JSON", symbol)
	}
	doc := gjson.ParseBytes(body)
	if desc := doc.Get("chart.error.description"); desc.Exists() && desc.String() != "" {
		return types.Snapshot{}, fmt.Errorf("yahoo chart %s: %s", symbol, desc.String())
	}

	quote := doc.Get("chart.result.0.indicators.quote.0")
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	type bar struct {
		close  float64
		volume int64
	}
	// null or zero closes mark days without trading
	bars := make([]bar, 0, len(closes))
	for i, c := range closes {
		if c.Type != gjson.Number || c.Float() == 0 {
			continue
		}
		b := bar{close: c.Float()}
		if i < len(volumes) {
			b.volume = volumes[i].Int()
		}
		bars = append(bars, b)
	}

	if len(bars) < 2 {
		return types.Snapshot{}, ErrNotEnoughData
	}

	last, prev := bars[len(bars)-1], bars[len(bars)-2]
	return types.NewSnapshot(symbol, last.close, prev.close, last.volume), nil
}
