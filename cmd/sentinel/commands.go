package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stock-sentinel/internal/journal"
	"stock-sentinel/internal/listings"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/pipeline"
	"stock-sentinel/internal/server"
	"stock-sentinel/internal/types"
	"stock-sentinel/internal/watch"
)

const banner = "=================================================="

var analyzeFlags struct {
	ticker string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Run the decision pipeline for one ticker and print the report",
	Example: `  sentinel analyze --ticker RELIANCE.NS
  sentinel analyze AAPL`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var screenCmd = &cobra.Command{
	Use:   "screen <query>",
	Short: "Translate a natural-language query into tickers via Screener.in",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScreen,
}

var screenAnalyze bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var watchImmediate bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Analyze the configured watchlist on a cron schedule",
	RunE:  runWatch,
}

var listingsSkipDownload bool

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Download NSE/BSE company lists and reconcile them by ISIN",
	RunE:  runListings,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFlags.ticker, "ticker", "t", "", "Stock ticker symbol (e.g. RELIANCE.NS)")
	screenCmd.Flags().BoolVar(&screenAnalyze, "analyze", false, "Run the pipeline for every ticker found")
	watchCmd.Flags().BoolVar(&watchImmediate, "now", false, "Run one round before the first scheduled tick")
	listingsCmd.Flags().BoolVar(&listingsSkipDownload, "skip-download", false, "Reuse the files already in the raw directory")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ticker := analyzeFlags.ticker
	if ticker == "" && len(args) > 0 {
		ticker = args[0]
	}
	if strings.TrimSpace(ticker) == "" {
		return fmt.Errorf("ticker is required\n\nUsage: sentinel analyze --ticker RELIANCE.NS")
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	a, err := buildApp(ctx, cfg, progressPrinter(out))
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "Starting analysis for %s...\n", ticker)
	st, err := a.pipeline.Run(ctx, ticker)
	if err != nil {
		return err
	}
	printReport(out, st)
	return nil
}

// progressPrinter prints one header per pipeline step, followed by any error
// the step recorded.
func progressPrinter(w io.Writer) pipeline.Observer {
	return pipeline.ObserverFunc(func(_ context.Context, ev pipeline.StepEvent) {
		if ev.Stage == types.StageStart {
			return
		}
		fmt.Fprintf(w, "\n--- Node: %s ---\n", ev.Stage)

		switch ev.Stage {
		case types.StageSnapshotFetched:
			if s := ev.State.Snapshot; s != nil && s.Failed() {
				fmt.Fprintf(w, "Error: %s\n", s.Error)
			}
		case types.StageNewsFetched:
			for _, n := range ev.State.News {
				if n.Error != "" {
					fmt.Fprintf(w, "Error: %s\n", n.Error)
				}
			}
		}
	})
}

func printReport(w io.Writer, st *types.PipelineState) {
	if st.Stage == types.StageTerminated {
		if st.Snapshot != nil && st.Snapshot.Failed() {
			fmt.Fprintf(w, "\nSnapshot failed: %s\n", st.Snapshot.Error)
		} else if st.Snapshot != nil {
			fmt.Fprintf(w, "\nMove of %.1f bps is below the threshold; no analysis.\n", st.Snapshot.BPSChange)
		}
		fmt.Fprintf(w, "DECISION: %s\n", st.Classification)
		return
	}
	fmt.Fprintln(w, "\nFINAL ANALYSIS:")
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, st.AnalysisText())
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "DECISION: %s\n", st.Classification)
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	tickers, err := a.screener().Screen(ctx, query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tickers) == 0 {
		fmt.Fprintln(out, "No tickers found.")
		return nil
	}
	fmt.Fprintf(out, "Tickers: %s\n", strings.Join(tickers, ", "))
	if !screenAnalyze {
		return nil
	}

	for _, r := range pipeline.RunBatch(ctx, a.pipeline, tickers, cfg.Batch.Concurrency) {
		if r.Err != nil {
			fmt.Fprintf(out, "%-14s error: %v\n", r.Symbol, r.Err)
			continue
		}
		bps := 0.0
		if r.State.Snapshot != nil {
			bps = r.State.Snapshot.BPSChange
		}
		fmt.Fprintf(out, "%-14s %8.1f bps  %s\n", r.Symbol, bps, r.State.Classification)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Screener:       a.screener(),
		Pipeline:       a.pipeline,
	})
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	jr := journal.New(cfg.Journal.Dir)
	if n, err := jr.CompressOlder(cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
	} else if n > 0 {
		logger.Info(ctx, "Compressed old journal files", "count", n)
	}

	w, err := watch.New(a.pipeline, cfg.Watch.Symbols, cfg.Watch.Schedule,
		watch.WithConcurrency(cfg.Batch.Concurrency),
		watch.WithRoundHook(func(results []pipeline.BatchResult) {
			for _, r := range results {
				if !r.OK() {
					continue
				}
				if err := jr.Append(r.State); err != nil {
					logger.Warn(ctx, "Failed to journal verdict", "symbol", r.Symbol, "error", err)
				}
			}
		}))
	if errors.Is(err, watch.ErrNoSymbols) {
		return fmt.Errorf("%w: set watch.symbols in %s", err, configPath)
	}
	if err != nil {
		return err
	}
	if err := w.Run(ctx, watchImmediate); err != nil {
		return err
	}

	if p, err := jr.SummarizeToday(); err != nil {
		logger.Warn(ctx, "Failed to write daily summary", "error", err)
	} else if p != "" {
		logger.Info(ctx, "Daily summary written", "path", p)
	}
	return nil
}

func runListings(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !listingsSkipDownload {
		fmt.Fprintln(out, "Starting data collection...")
	}
	sum, err := listings.Run(ctx, cfg, listingsSkipDownload)
	if err != nil {
		logger.ErrorWithErr(ctx, "Listings run failed", err)
		return err
	}

	fmt.Fprintf(out, "\nTotal unique companies: %d\n", sum.Total)
	fmt.Fprintf(out, "  NSE only: %d\n", sum.NSEOnly)
	fmt.Fprintf(out, "  BSE only: %d\n", sum.BSEOnly)
	fmt.Fprintf(out, "  Both:     %d\n", sum.Both)
	fmt.Fprintf(out, "\nSuccess! Files generated in %s\n", cfg.Listings.ProcessedDir)
	return nil
}
