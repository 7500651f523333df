package listings

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a CSV file held in memory. Rows are padded or cut to the header width.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadCSV loads a CSV file with a header row.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s: %w", path, err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads a header row and all records from r.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		t.Rows = append(t.Rows, fit(rec, len(header)))
	}
	return t, nil
}

func fit(rec []string, n int) []string {
	if len(rec) == n {
		return rec
	}
	out := make([]string, n)
	copy(out, rec)
	return out
}

// Column returns the index of name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// WriteCSV writes the table to path.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
