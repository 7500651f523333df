package market

import (
	"context"
	"fmt"
	"strings"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/store"
	"stock-sentinel/internal/types"
)

// Static serves fixed close pairs from config. Used for dry runs and demos.
type Static struct {
	data map[string]store.StaticSnapshot
}

var _ interfaces.SnapshotProvider = (*Static)(nil)

func NewStatic(data map[string]store.StaticSnapshot) *Static {
	norm := make(map[string]store.StaticSnapshot, len(data))
	for k, v := range data {
		norm[strings.ToUpper(k)] = v
	}
	return &Static{data: norm}
}

func (s *Static) Fetch(_ context.Context, symbol string) (types.Snapshot, error) {
	d, ok := s.data[strings.ToUpper(symbol)]
	if !ok {
		return types.Snapshot{}, fmt.Errorf("no static data for %s", symbol)
	}
	if d.Previous == 0 {
		return types.Snapshot{}, ErrNotEnoughData
	}
	return types.NewSnapshot(symbol, d.Current, d.Previous, d.Volume), nil
}
