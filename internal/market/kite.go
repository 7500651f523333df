package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"golang.org/x/time/rate"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/types"
)

// quoter is the slice of the Kite client this package uses.
type quoter interface {
	GetQuote(instruments ...string) (kiteconnect.Quote, error)
}

// KiteParams configures the Zerodha Kite quote provider.
type KiteParams struct {
	APIKey      string
	AccessToken string
	Exchange    string
	BaseURI     string
	RateLimit   float64
}

// Kite builds snapshots from the Kite quote API: last price against the
// previous session's close.
type Kite struct {
	kc       quoter
	exchange string
	limiter  *rate.Limiter
}

var _ interfaces.SnapshotProvider = (*Kite)(nil)

func NewKite(p KiteParams) (*Kite, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("KITE_API_KEY and KITE_ACCESS_TOKEN must be set")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	if p.BaseURI != "" {
		kc.SetBaseURI(p.BaseURI)
	}
	return newKite(kc, p.Exchange, p.RateLimit), nil
}

func newKite(kc quoter, exchange string, rps float64) *Kite {
	if exchange == "" {
		exchange = "NSE"
	}
	k := &Kite{kc: kc, exchange: exchange}
	if rps > 0 {
		k.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return k
}

// Instrument maps "RELIANCE.NS" / "RELIANCE.BO" / "RELIANCE" to the Kite
// "EXCHANGE:TRADINGSYMBOL" form.
func (k *Kite) Instrument(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	exchange := k.exchange
	switch {
	case strings.HasSuffix(sym, ".NS"):
		sym, exchange = strings.TrimSuffix(sym, ".NS"), "NSE"
	case strings.HasSuffix(sym, ".BO"):
		sym, exchange = strings.TrimSuffix(sym, ".BO"), "BSE"
	}
	if strings.Contains(sym, ":") {
		return sym
	}
	return exchange + ":" + sym
}

func (k *Kite) Fetch(ctx context.Context, symbol string) (types.Snapshot, error) {
	if k.limiter != nil {
		if err := k.limiter.Wait(ctx); err != nil {
			return types.Snapshot{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	inst := k.Instrument(symbol)
	quotes, err := k.kc.GetQuote(inst)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("kite quote %s: %w", inst, err)
	}
	q, ok := quotes[inst]
	if !ok {
		return types.Snapshot{}, fmt.Errorf("kite quote %s: instrument not found", inst)
	}
	if q.LastPrice == 0 || q.OHLC.Close == 0 {
		return types.Snapshot{}, ErrNotEnoughData
	}

	return types.NewSnapshot(symbol, q.LastPrice, q.OHLC.Close, int64(q.Volume)), nil
}
