package pipelineobs

import (
	"context"
	"time"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/pipeline"
	"stock-sentinel/internal/trace"
	"stock-sentinel/internal/types"
)

type observablePipeline struct {
	pipeline interfaces.Pipeline
}

var _ interfaces.Pipeline = (*observablePipeline)(nil)

func Wrap(p interfaces.Pipeline) interfaces.Pipeline {
	return &observablePipeline{
		pipeline: p,
	}
}

func (op *observablePipeline) Run(ctx context.Context, symbol string) (*types.PipelineState, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting pipeline run",
		"symbol", symbol,
	)

	st, err := op.pipeline.Run(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Pipeline run rejected", err,
			"symbol", symbol,
		)
		return nil, err
	}

	bps := 0.0
	if st.Snapshot != nil {
		bps = st.Snapshot.BPSChange
	}
	logger.Verdict(ctx, st.Symbol, string(st.Classification), bps,
		"run_id", st.RunID,
		"stage", string(st.Stage),
		"news_items", len(st.News),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return st, nil
}

// StepLogger returns an observer that logs every transition at debug level and
// snapshot/news error markers at warn level.
func StepLogger() pipeline.Observer {
	return pipeline.ObserverFunc(func(ctx context.Context, ev pipeline.StepEvent) {
		logger.Debug(ctx, "Pipeline step",
			"run_id", ev.RunID,
			"symbol", ev.Symbol,
			"stage", string(ev.Stage),
		)

		switch ev.Stage {
		case types.StageSnapshotFetched:
			if s := ev.State.Snapshot; s != nil && s.Failed() {
				logger.Warn(ctx, "Snapshot provider failed", "run_id", ev.RunID, "symbol", ev.Symbol, "error", s.Error)
			}
		case types.StageNewsFetched:
			if len(ev.State.News) == 1 && ev.State.News[0].Error != "" {
				logger.Warn(ctx, "News provider failed", "run_id", ev.RunID, "symbol", ev.Symbol, "error", ev.State.News[0].Error)
			}
		}
	})
}
