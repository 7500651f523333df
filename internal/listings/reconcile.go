package listings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	isinCleanColumn = "ISIN_CLEAN"
	sourceColumn    = "LISTING_SOURCE"
)

// Output file names written by WriteOutputs.
const (
	NSEOnlyFile      = "nse_only.csv"
	BSEOnlyFile      = "bse_only.csv"
	BothFile         = "both_listings.csv"
	AllCompaniesFile = "all_companies.csv"
)

// Summary counts unique ISINs per category.
type Summary struct {
	Total   int `json:"total"`
	NSEOnly int `json:"nse_only"`
	BSEOnly int `json:"bse_only"`
	Both    int `json:"both"`
}

// Result holds the reconciled tables.
type Result struct {
	Summary Summary
	NSEOnly *Table
	BSEOnly *Table
	Both    *Table
	All     *Table
}

// FindISINColumn returns the first column whose upper-cased name contains "ISIN".
func FindISINColumn(t *Table, exchange string) (int, error) {
	for i, h := range t.Header {
		if strings.Contains(strings.ToUpper(h), "ISIN") {
			return i, nil
		}
	}
	return -1, fmt.Errorf("could not find an ISIN column in %s CSV", exchange)
}

// withCleanISIN returns a copy of t with an ISIN_CLEAN column appended and the
// set of usable ISINs. Blank and "NAN" values are not part of the set.
func withCleanISIN(t *Table, exchange string) (*Table, map[string]bool, error) {
	col, err := FindISINColumn(t, exchange)
	if err != nil {
		return nil, nil, err
	}
	out := &Table{Header: append(append([]string{}, t.Header...), isinCleanColumn)}
	set := make(map[string]bool)
	for _, row := range t.Rows {
		clean := strings.ToUpper(strings.TrimSpace(row[col]))
		out.Rows = append(out.Rows, append(append([]string{}, row...), clean))
		if clean != "" && clean != "NAN" {
			set[clean] = true
		}
	}
	return out, set, nil
}

// Reconcile splits two listings into NSE-only, BSE-only and dual-listed
// companies keyed by ISIN.
func Reconcile(nse, bse *Table) (*Result, error) {
	nseT, nseSet, err := withCleanISIN(nse, "NSE")
	if err != nil {
		return nil, err
	}
	bseT, bseSet, err := withCleanISIN(bse, "BSE")
	if err != nil {
		return nil, err
	}

	var sum Summary
	overlap := make(map[string]bool)
	for isin := range nseSet {
		if bseSet[isin] {
			overlap[isin] = true
		} else {
			sum.NSEOnly++
		}
	}
	for isin := range bseSet {
		if !nseSet[isin] {
			sum.BSEOnly++
		}
	}
	sum.Both = len(overlap)
	sum.Total = sum.NSEOnly + sum.BSEOnly + sum.Both

	inSet := func(set map[string]bool, negate map[string]bool) func(string) bool {
		return func(isin string) bool { return set[isin] && !negate[isin] }
	}

	nseOnly := subset(nseT, inSet(nseSet, bseSet))
	bseOnly := subset(bseT, inSet(bseSet, nseSet))
	both := merge(subset(nseT, inSet(overlap, nil)), subset(bseT, inSet(overlap, nil)), "_NSE", "_BSE")

	all := concat(
		withSource(nseOnly, "NSE_ONLY"),
		withSource(bseOnly, "BSE_ONLY"),
		withSource(both, "BOTH"),
	)

	return &Result{
		Summary: sum,
		NSEOnly: withSource(nseOnly, "NSE_ONLY"),
		BSEOnly: withSource(bseOnly, "BSE_ONLY"),
		Both:    withSource(both, "BOTH"),
		All:     all,
	}, nil
}

func subset(t *Table, keep func(string) bool) *Table {
	col := t.Column(isinCleanColumn)
	out := &Table{Header: t.Header}
	for _, row := range t.Rows {
		if keep(row[col]) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// merge inner-joins left and right on ISIN_CLEAN. Columns present on both
// sides (other than the key) get the given suffixes.
func merge(left, right *Table, lsuf, rsuf string) *Table {
	lkey, rkey := left.Column(isinCleanColumn), right.Column(isinCleanColumn)

	common := make(map[string]bool)
	for _, h := range left.Header {
		if h != isinCleanColumn && right.Column(h) >= 0 {
			common[h] = true
		}
	}

	var header []string
	for _, h := range left.Header {
		if common[h] {
			h += lsuf
		}
		header = append(header, h)
	}
	for i, h := range right.Header {
		if i == rkey {
			continue
		}
		if common[h] {
			h += rsuf
		}
		header = append(header, h)
	}

	byKey := make(map[string][][]string)
	for _, row := range right.Rows {
		byKey[row[rkey]] = append(byKey[row[rkey]], row)
	}

	out := &Table{Header: header}
	for _, lrow := range left.Rows {
		for _, rrow := range byKey[lrow[lkey]] {
			row := append([]string{}, lrow...)
			for i, v := range rrow {
				if i != rkey {
					row = append(row, v)
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func withSource(t *Table, source string) *Table {
	if t.Column(sourceColumn) >= 0 {
		return t
	}
	out := &Table{Header: append(append([]string{}, t.Header...), sourceColumn)}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append(append([]string{}, row...), source))
	}
	return out
}

// concat stacks tables, aligning columns by name in first-seen order and
// leaving missing cells empty.
func concat(tables ...*Table) *Table {
	index := make(map[string]int)
	var header []string
	for _, t := range tables {
		for _, h := range t.Header {
			if _, ok := index[h]; !ok {
				index[h] = len(header)
				header = append(header, h)
			}
		}
	}

	out := &Table{Header: header}
	for _, t := range tables {
		for _, row := range t.Rows {
			wide := make([]string, len(header))
			for i, h := range t.Header {
				wide[index[h]] = row[i]
			}
			out.Rows = append(out.Rows, wide)
		}
	}
	return out
}

// WriteOutputs writes the four result files into dir.
func WriteOutputs(dir string, r *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := []struct {
		name string
		t    *Table
	}{
		{NSEOnlyFile, r.NSEOnly},
		{BSEOnlyFile, r.BSEOnly},
		{BothFile, r.Both},
		{AllCompaniesFile, r.All},
	}
	for _, f := range files {
		if err := f.t.WriteCSV(filepath.Join(dir, f.name)); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}
