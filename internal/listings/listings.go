// Package listings downloads the NSE and BSE company lists and reconciles
// them by ISIN into exchange-only and dual-listed sets.
package listings

import (
	"context"
	"fmt"
	"path/filepath"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/store"
)

// Run downloads both lists unless skipDownload is set, reconciles them from
// the raw directory and writes the processed files.
func Run(ctx context.Context, cfg *store.Config, skipDownload bool, opts ...api.ClientOption) (*Summary, error) {
	l := cfg.Listings
	nsePath, bsePath := rawPaths(l.RawDir)

	if !skipDownload {
		opts = append([]api.ClientOption{api.WithTimeout(cfg.Timeout())}, opts...)
		d := NewDownloader(NewClient(opts...), l.NSEPageURL, l.BSECSVURL, l.RawDir)
		var err error
		if nsePath, bsePath, err = d.DownloadAll(ctx); err != nil {
			return nil, err
		}
	}

	nse, err := ReadCSV(nsePath)
	if err != nil {
		return nil, fmt.Errorf("load NSE list: %w", err)
	}
	bse, err := ReadCSV(bsePath)
	if err != nil {
		return nil, fmt.Errorf("load BSE list: %w", err)
	}
	logger.Info(ctx, "Loaded listings", "nse_rows", len(nse.Rows), "bse_rows", len(bse.Rows))

	res, err := Reconcile(nse, bse)
	if err != nil {
		return nil, err
	}
	if err := WriteOutputs(l.ProcessedDir, res); err != nil {
		return nil, err
	}

	s := res.Summary
	logger.Info(ctx, "Listings reconciled",
		"total", s.Total, "nse_only", s.NSEOnly, "bse_only", s.BSEOnly, "both", s.Both,
		"dir", l.ProcessedDir)
	return &s, nil
}

func rawPaths(dir string) (nse, bse string) {
	return filepath.Join(dir, NSERawFile), filepath.Join(dir, BSERawFile)
}
