package pipeline

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"stock-sentinel/internal/types"
)

func TestNextFromSnapshotFetched(t *testing.T) {
	tests := []struct {
		name string
		snap *types.Snapshot
		want types.Stage
	}{
		{"nil snapshot", nil, types.StageTerminated},
		{"error marker", &types.Snapshot{BPSChange: 900, Error: "rate limited"}, types.StageTerminated},
		{"small move", &types.Snapshot{BPSChange: 50}, types.StageTerminated},
		{"exactly threshold", &types.Snapshot{BPSChange: 200}, types.StageTerminated},
		{"negative at threshold", &types.Snapshot{BPSChange: -200}, types.StageTerminated},
		{"just above", &types.Snapshot{BPSChange: 200.01}, types.StageNewsFetched},
		{"large drop", &types.Snapshot{BPSChange: -350}, types.StageNewsFetched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := types.PipelineState{Stage: types.StageSnapshotFetched, Snapshot: tt.snap}
			assert.Equal(t, tt.want, Next(st))
		})
	}
}

func TestNextOtherStages(t *testing.T) {
	assert.Equal(t, types.StageSnapshotFetched, Next(types.PipelineState{Stage: types.StageStart}))
	assert.Equal(t, types.StageAnalyzed, Next(types.PipelineState{Stage: types.StageNewsFetched}))
	assert.Equal(t, types.StageAnalyzed, Next(types.PipelineState{Stage: types.StageAnalyzed}))
	assert.Equal(t, types.StageTerminated, Next(types.PipelineState{Stage: types.StageTerminated}))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want types.Classification
	}{
		{"Analysis: strong earnings beat.\nDecision: Justified", types.Justified},
		{"Analysis: nothing found.\nDecision: Noise", types.Noise},
		{"Decision: Noise\nDecision: Justified", types.Justified},
		{"decision: justified", types.Unknown},
		{"Decision:Justified", types.Unknown},
		{"Decision: [Justified/Noise]", types.Unknown},
		{"", types.Unknown},
		{"Justified", types.Unknown},
	}

	for _, tt := range tests {
		got := Classify(tt.text)
		assert.Equal(t, tt.want, got, "text %q", tt.text)
		assert.Equal(t, got, Classify(tt.text), "classification must be stable")
	}
}

func TestNewsQuery(t *testing.T) {
	assert.Equal(t, "XYZ stock news reason for price move", NewsQuery("XYZ"))
}

func TestMergesAreAdditive(t *testing.T) {
	st := Begin("run-1", "XYZ")
	assert.Equal(t, types.Unknown, st.Classification)

	st = WithSnapshot(st, types.NewSnapshot("XYZ", 103.5, 100, 1000))
	st = WithNews(st, []types.NewsItem{{Title: "XYZ beats earnings"}})
	st = WithAnalysis(st, "Decision: Justified")

	text := "Decision: Justified"
	snap := types.NewSnapshot("XYZ", 103.5, 100, 1000)
	want := types.PipelineState{
		RunID:          "run-1",
		Symbol:         "XYZ",
		Stage:          types.StageAnalyzed,
		Snapshot:       &snap,
		News:           []types.NewsItem{{Title: "XYZ beats earnings"}},
		Analysis:       &text,
		Classification: types.Justified,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestWithNewsCopiesInput(t *testing.T) {
	items := []types.NewsItem{{Title: "a"}}
	st := WithNews(Begin("r", "XYZ"), items)
	items[0].Title = "changed"
	assert.Equal(t, "a", st.News[0].Title)
}

func TestWithAnalysisError(t *testing.T) {
	st := WithAnalysisError(Begin("r", "XYZ"), errors.New("quota exceeded"))
	assert.Equal(t, types.StageAnalyzed, st.Stage)
	assert.Equal(t, types.Unknown, st.Classification)
	assert.Equal(t, "Error: quota exceeded", st.AnalysisText())
}

func TestNewSnapshotBPS(t *testing.T) {
	snap := types.NewSnapshot("XYZ", 96.5, 100, 10)
	assert.InDelta(t, -3.5, snap.Delta, 1e-9)
	assert.InDelta(t, -3.5, snap.PercentChange, 1e-9)
	assert.InDelta(t, -350, snap.BPSChange, 1e-9)
}
