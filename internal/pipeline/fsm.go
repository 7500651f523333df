package pipeline

import (
	"fmt"
	"math"
	"strings"

	"stock-sentinel/internal/types"
)

// BPSThreshold is the absolute basis-point move above which news is fetched
// and the move analyzed. 200 bps = 2%.
const BPSThreshold = 200.0

// DefaultRecencyDays is the news lookback used by the news step.
const DefaultRecencyDays = 2

const (
	markerJustified = "Decision: Justified"
	markerNoise     = "Decision: Noise"
)

// Next returns the stage the pipeline moves to from the state's current stage.
// Terminal stages map to themselves.
func Next(st types.PipelineState) types.Stage {
	switch st.Stage {
	case types.StageStart:
		return types.StageSnapshotFetched
	case types.StageSnapshotFetched:
		if Significant(st.Snapshot) {
			return types.StageNewsFetched
		}
		return types.StageTerminated
	case types.StageNewsFetched:
		return types.StageAnalyzed
	default:
		return st.Stage
	}
}

// Significant reports whether a snapshot warrants news and analysis: it must be
// present, carry no error marker and move strictly more than BPSThreshold.
func Significant(snap *types.Snapshot) bool {
	if snap == nil || snap.Failed() {
		return false
	}
	return math.Abs(snap.BPSChange) > BPSThreshold
}

// Classify extracts the verdict from raw analyzer output. Matching is a
// case-sensitive substring test, Justified checked before Noise.
func Classify(text string) types.Classification {
	switch {
	case strings.Contains(text, markerJustified):
		return types.Justified
	case strings.Contains(text, markerNoise):
		return types.Noise
	default:
		return types.Unknown
	}
}

// NewsQuery is the search string the news step sends for a symbol.
func NewsQuery(symbol string) string {
	return fmt.Sprintf("%s stock news reason for price move", symbol)
}

// Begin returns the initial state for a run.
func Begin(runID, symbol string) types.PipelineState {
	return types.PipelineState{
		RunID:          runID,
		Symbol:         symbol,
		Stage:          types.StageStart,
		Classification: types.Unknown,
	}
}

// WithSnapshot merges a snapshot into the state.
func WithSnapshot(st types.PipelineState, snap types.Snapshot) types.PipelineState {
	st.Snapshot = &snap
	st.Stage = types.StageSnapshotFetched
	return st
}

// WithNews merges news items into the state. The slice is copied.
func WithNews(st types.PipelineState, items []types.NewsItem) types.PipelineState {
	st.News = append(make([]types.NewsItem, 0, len(items)), items...)
	st.Stage = types.StageNewsFetched
	return st
}

// WithAnalysis stores the raw analyzer text verbatim and classifies it.
func WithAnalysis(st types.PipelineState, text string) types.PipelineState {
	st.Analysis = &text
	st.Classification = Classify(text)
	st.Stage = types.StageAnalyzed
	return st
}

// WithAnalysisError records an analyzer failure as data.
func WithAnalysisError(st types.PipelineState, err error) types.PipelineState {
	text := fmt.Sprintf("Error: %v", err)
	st.Analysis = &text
	st.Classification = types.Unknown
	st.Stage = types.StageAnalyzed
	return st
}

// Terminate ends the run without analysis.
func Terminate(st types.PipelineState) types.PipelineState {
	st.Stage = types.StageTerminated
	return st
}
