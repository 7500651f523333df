package marketobs

import (
	"context"
	"time"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/trace"
	"stock-sentinel/internal/types"
)

// observableProvider wraps a SnapshotProvider with logging and tracing
type observableProvider struct {
	provider interfaces.SnapshotProvider
}

var _ interfaces.SnapshotProvider = (*observableProvider)(nil)

// Wrap wraps a snapshot provider with observability middleware
func Wrap(p interfaces.SnapshotProvider) interfaces.SnapshotProvider {
	return &observableProvider{
		provider: p,
	}
}

func (op *observableProvider) Fetch(ctx context.Context, symbol string) (types.Snapshot, error) {
	ctx, span := trace.StartSpan(ctx, "market.Fetch")
	defer span.End()

	start := time.Now()

	snap, err := op.provider.Fetch(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch snapshot", err,
			"symbol", symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return snap, err
	}

	logger.InfoSkip(ctx, 1, "Snapshot fetched",
		"symbol", symbol,
		"price", snap.CurrentPrice,
		"prev_close", snap.PreviousClose,
		"bps_change", snap.BPSChange,
		"volume", snap.Volume,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return snap, nil
}
