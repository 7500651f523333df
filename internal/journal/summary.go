package journal

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"stock-sentinel/internal/types"
)

type symbolRow struct {
	Symbol    string
	Runs      int
	Analyzed  int
	Justified int
	Noise     int
	Unknown   int
	Failed    int
	MaxAbsBPS float64
	LastBPS   float64
}

func (j *Journal) summaryPath(t time.Time) string {
	return filepath.Join(j.dir, "eod", t.In(IST).Format("2006-01-02")+".csv")
}

// SummarizeDay rolls the day's journal up into one CSV row per symbol plus a
// TOTAL row. It returns "" when nothing was journalled that day.
func (j *Journal) SummarizeDay(t time.Time) (string, error) {
	f, err := os.Open(j.dailyFilepath(t))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows := map[string]*symbolRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		r := rows[e.Symbol]
		if r == nil {
			r = &symbolRow{Symbol: e.Symbol}
			rows[e.Symbol] = r
		}
		r.Runs++
		r.LastBPS = e.BPSChange
		if abs(e.BPSChange) > r.MaxAbsBPS {
			r.MaxAbsBPS = abs(e.BPSChange)
		}
		if e.Stage == types.StageAnalyzed {
			r.Analyzed++
		}
		if e.Error != "" {
			r.Failed++
		}
		switch e.Classification {
		case types.Justified:
			r.Justified++
		case types.Noise:
			r.Noise++
		default:
			r.Unknown++
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := j.summaryPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"symbol", "runs", "analyzed", "justified", "noise", "unknown", "failed", "max_abs_bps", "last_bps"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var total symbolRow
	for _, k := range keys {
		r := rows[k]
		if err := w.Write(r.record()); err != nil {
			return "", err
		}
		total.Runs += r.Runs
		total.Analyzed += r.Analyzed
		total.Justified += r.Justified
		total.Noise += r.Noise
		total.Unknown += r.Unknown
		total.Failed += r.Failed
	}
	tot := total.record()
	tot[0], tot[7], tot[8] = "TOTAL", "", ""
	if err := w.Write(tot); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

// SummarizeToday summarizes the current IST day.
func (j *Journal) SummarizeToday() (string, error) { return j.SummarizeDay(j.now()) }

func (r *symbolRow) record() []string {
	return []string{
		r.Symbol,
		strconv.Itoa(r.Runs),
		strconv.Itoa(r.Analyzed),
		strconv.Itoa(r.Justified),
		strconv.Itoa(r.Noise),
		strconv.Itoa(r.Unknown),
		strconv.Itoa(r.Failed),
		fmt.Sprintf("%.1f", r.MaxAbsBPS),
		fmt.Sprintf("%.1f", r.LastBPS),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
