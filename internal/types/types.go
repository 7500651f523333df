package types

// Classification is the verdict on whether a price move is explained by news.
type Classification string

const (
	Justified Classification = "Justified"
	Noise     Classification = "Noise"
	Unknown   Classification = "Unknown"
)

// Snapshot is a point-in-time price/volume record for one symbol.
// A non-empty Error marks a failed fetch; numeric fields are then meaningless.
type Snapshot struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousClose float64 `json:"previous_close"`
	Delta         float64 `json:"delta"`
	PercentChange float64 `json:"percent_change"`
	BPSChange     float64 `json:"bps_change"`
	Volume        int64   `json:"volume"`
	Error         string  `json:"error,omitempty"`
}

// Failed reports whether the snapshot carries an error marker.
func (s Snapshot) Failed() bool { return s.Error != "" }

// NewSnapshot derives delta, percent and basis-point change from two closes.
func NewSnapshot(symbol string, current, previous float64, volume int64) Snapshot {
	delta := current - previous
	pct := 0.0
	if previous != 0 {
		pct = delta / previous * 100
	}
	return Snapshot{
		Symbol:        symbol,
		CurrentPrice:  current,
		PreviousClose: previous,
		Delta:         delta,
		PercentChange: pct,
		BPSChange:     pct * 100,
		Volume:        volume,
	}
}

// NewsItem is one enrichment record returned by a news provider.
type NewsItem struct {
	Title       string  `json:"title,omitempty"`
	Content     string  `json:"content,omitempty"`
	URL         string  `json:"url,omitempty"`
	Source      string  `json:"source,omitempty"`
	PublishedAt string  `json:"published_at,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// NewsError builds the single-element result a news step records on failure.
func NewsError(msg string) []NewsItem {
	return []NewsItem{{Error: msg}}
}

// Stage is a state of the decision pipeline.
type Stage string

const (
	StageStart           Stage = "start"
	StageSnapshotFetched Stage = "snapshot_fetched"
	StageNewsFetched     Stage = "news_fetched"
	StageAnalyzed        Stage = "analyzed"
	StageTerminated      Stage = "terminated"
)

// Terminal reports whether no further steps run from this stage.
func (s Stage) Terminal() bool {
	return s == StageAnalyzed || s == StageTerminated
}

// PipelineState is threaded through the decision pipeline. Fields are only ever
// added as steps run.
type PipelineState struct {
	RunID          string         `json:"run_id"`
	Symbol         string         `json:"symbol"`
	Stage          Stage          `json:"stage"`
	Snapshot       *Snapshot      `json:"snapshot,omitempty"`
	News           []NewsItem     `json:"news,omitempty"`
	Analysis       *string        `json:"analysis,omitempty"`
	Classification Classification `json:"classification"`
}

// AnalysisText returns the analysis or "" when the analyze step never ran.
func (s *PipelineState) AnalysisText() string {
	if s == nil || s.Analysis == nil {
		return ""
	}
	return *s.Analysis
}
