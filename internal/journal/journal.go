// Package journal appends finished pipeline runs to daily JSONL files and
// rolls each day up into a per-symbol CSV.
package journal

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stock-sentinel/internal/types"
)

// IST is the exchange time zone; day boundaries follow it.
var IST = time.FixedZone("IST", 19800)

// Entry is one journal line.
type Entry struct {
	Time           string               `json:"time"`
	RunID          string               `json:"run_id"`
	Symbol         string               `json:"symbol"`
	Stage          types.Stage          `json:"stage"`
	Classification types.Classification `json:"classification"`
	BPSChange      float64              `json:"bps_change"`
	CurrentPrice   float64              `json:"current_price"`
	NewsItems      int                  `json:"news_items"`
	Error          string               `json:"error,omitempty"`
}

// Journal writes under Dir. Safe for concurrent use.
type Journal struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

func New(dir string) *Journal {
	if dir == "" {
		dir = "logs"
	}
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) dailyFilepath(t time.Time) string {
	return filepath.Join(j.dir, "verdicts", t.In(IST).Format("2006-01-02")+".txt")
}

// EntryFor flattens a terminal state into a journal entry.
func EntryFor(st *types.PipelineState) Entry {
	e := Entry{
		RunID:          st.RunID,
		Symbol:         st.Symbol,
		Stage:          st.Stage,
		Classification: st.Classification,
	}
	if st.Snapshot != nil {
		e.BPSChange = st.Snapshot.BPSChange
		e.CurrentPrice = st.Snapshot.CurrentPrice
		e.Error = st.Snapshot.Error
	}
	for _, n := range st.News {
		if n.Error != "" {
			if e.Error == "" {
				e.Error = n.Error
			}
			continue
		}
		e.NewsItems++
	}
	return e
}

// Append records st in today's file.
func (j *Journal) Append(st *types.PipelineState) error {
	e := EntryFor(st)

	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now().In(IST)
	e.Time = now.Format("2006-01-02 15:04:05")
	p := j.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips daily files last modified more than retentionDays ago.
// Zero disables compression.
func (j *Journal) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	var n int
	err := filepath.WalkDir(filepath.Join(j.dir, "verdicts"), func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// already compressed on an earlier pass
		if _, err := os.Stat(gz); err == nil {
			return os.Remove(p)
		}
		if err := gzipFile(p, gz); err != nil {
			return fmt.Errorf("compress %s: %w", p, err)
		}
		n++
		return os.Remove(p)
	})
	return n, err
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
