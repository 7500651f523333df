package llmobs

import (
	"context"
	"strings"
	"time"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/trace"
	"stock-sentinel/internal/types"
)

// observableCompleter wraps a Completer with observability (logging & tracing)
type observableCompleter struct {
	completer interfaces.Completer
	provider  string
}

// Compile-time interface check
var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with observability middleware
func Wrap(completer interfaces.Completer, provider string) interfaces.Completer {
	return &observableCompleter{
		completer: completer,
		provider:  provider,
	}
}

func (oc *observableCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	start := time.Now()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting completion",
		"provider", oc.provider,
		"prompt_len", len(prompt),
	)

	text, err := oc.completer.Complete(ctx, system, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Completion failed", err,
			"provider", oc.provider,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Completion received",
		"provider", oc.provider,
		"response_len", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return text, nil
}

// decisionMarker prefixes the verdict line the analysis prompt asks for.
const decisionMarker = "Decision:"

type observableAnalyzer struct {
	analyzer interfaces.Analyzer
}

var _ interfaces.Analyzer = (*observableAnalyzer)(nil)

// WrapAnalyzer wraps an analyzer with a span and result logging
func WrapAnalyzer(analyzer interfaces.Analyzer) interfaces.Analyzer {
	return &observableAnalyzer{analyzer: analyzer}
}

func (oa *observableAnalyzer) Analyze(ctx context.Context, symbol string, snap types.Snapshot, news []types.NewsItem) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Analyze")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Requesting causal analysis",
		"symbol", symbol,
		"bps_change", snap.BPSChange,
		"news_items", len(news),
	)

	text, err := oa.analyzer.Analyze(ctx, symbol, snap, news)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Causal analysis failed", err,
			"symbol", symbol,
		)
		return "", err
	}
	if !strings.Contains(text, decisionMarker) {
		logger.WarnSkip(ctx, 1, "Analysis carries no decision line",
			"symbol", symbol,
			"response_len", len(text),
		)
	}
	return text, nil
}
