// Package prompt renders the LLM prompts used by the analyzer and the screener.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"stock-sentinel/internal/types"
)

// AnalysisSystem is the system message sent alongside the analysis prompt.
const AnalysisSystem = "You are a senior financial analyst. Answer in the requested output format only."

var funcs = template.FuncMap{
	"f2":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"inc": func(i int) int { return i + 1 },
	"trim": func(s string, n int) string {
		r := []rune(strings.TrimSpace(s))
		if len(r) <= n {
			return string(r)
		}
		return string(r[:n]) + "..."
	},
}

var analysisTmpl = template.Must(template.New("analysis").Funcs(funcs).Parse(`You are a senior financial analyst.
Your task is to analyze why a stock has moved significantly based on the provided data.

Ticker: {{.Symbol}}

Stock Data:
- Current Price: {{f2 .Snapshot.CurrentPrice}}
- Previous Close: {{f2 .Snapshot.PreviousClose}}
- Change: {{f2 .Snapshot.Delta}} ({{f2 .Snapshot.PercentChange}}%, {{f2 .Snapshot.BPSChange}} bps)
- Volume: {{.Snapshot.Volume}}

Recent News:
{{- if not .News}}
- No news found.
{{- end}}
{{- range $i, $n := .News}}
{{- if $n.Error}}
- News unavailable: {{$n.Error}}
{{- else}}
{{$i | inc}}. {{$n.Title}}{{if $n.Source}} ({{$n.Source}}){{end}}{{if $n.PublishedAt}} [{{$n.PublishedAt}}]{{end}}
{{- if $n.Content}}
   {{trim $n.Content 600}}
{{- end}}
{{- if $n.URL}}
   {{$n.URL}}
{{- end}}
{{- end}}
{{- end}}

Analysis Instructions:
1. Determine if the price movement is significant (e.g., > 200 bps).
2. Correlate the news with the price movement. Is there a specific event (earnings, merger, macro news) that explains the move?
3. Provide a concise explanation of the cause.
4. Classify the move as "Justified" (fundamental reason) or "Noise" (no clear reason).

Output Format:
Analysis: [Your detailed analysis]
Decision: [Justified/Noise]
`))

var screenerTmpl = template.Must(template.New("screener").Parse(`You are an expert at converting natural language stock queries into syntax for Screener.in.
Translate the following user request into a valid Screener.in query string.

Example 1:
User: "Companies with PE less than 15 and ROE greater than 20"
Output: Price to Earning < 15 AND Return on equity > 20

Example 2:
User: "High growth tech stocks"
Output: Sales growth 3Years > 20 AND Profit growth 3Years > 20 AND Sector = 'Computers - Software'

User Request: {{.}}
Output (Return ONLY the query string, nothing else):`))

// Analysis renders the causal-analysis prompt for one symbol.
func Analysis(symbol string, snap types.Snapshot, news []types.NewsItem) (string, error) {
	var b strings.Builder
	err := analysisTmpl.Execute(&b, struct {
		Symbol   string
		Snapshot types.Snapshot
		News     []types.NewsItem
	}{symbol, snap, news})
	if err != nil {
		return "", fmt.Errorf("render analysis prompt: %w", err)
	}
	return b.String(), nil
}

// Screener renders the natural-language to screener.in query prompt.
func Screener(query string) (string, error) {
	var b strings.Builder
	if err := screenerTmpl.Execute(&b, strings.TrimSpace(query)); err != nil {
		return "", fmt.Errorf("render screener prompt: %w", err)
	}
	return b.String(), nil
}

// CleanQuery reduces a model answer to the query line: code fences, an
// "Output:" label and surrounding quotes are dropped.
func CleanQuery(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "Output:"))
		return strings.TrimSpace(strings.Trim(line, "\"`"))
	}
	return ""
}
