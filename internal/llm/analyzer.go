package llm

import (
	"context"
	"fmt"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/prompt"
	"stock-sentinel/internal/types"
)

// CausalAnalyzer asks a completer why a symbol moved. It returns the model's
// text unchanged; extracting the verdict is left to the caller.
type CausalAnalyzer struct {
	completer interfaces.Completer
	system    string
}

var _ interfaces.Analyzer = (*CausalAnalyzer)(nil)

// NewCausalAnalyzer uses system as the system message, or prompt.AnalysisSystem when empty.
func NewCausalAnalyzer(completer interfaces.Completer, system string) *CausalAnalyzer {
	if system == "" {
		system = prompt.AnalysisSystem
	}
	return &CausalAnalyzer{completer: completer, system: system}
}

func (a *CausalAnalyzer) Analyze(ctx context.Context, symbol string, snap types.Snapshot, news []types.NewsItem) (string, error) {
	p, err := prompt.Analysis(symbol, snap, news)
	if err != nil {
		return "", err
	}
	text, err := a.completer.Complete(ctx, a.system, p)
	if err != nil {
		return "", fmt.Errorf("analyze %s: %w", symbol, err)
	}
	return text, nil
}
