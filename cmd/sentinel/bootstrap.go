package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stock-sentinel/internal/api"
	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/llm"
	"stock-sentinel/internal/llm/llmobs"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/market"
	"stock-sentinel/internal/market/marketobs"
	"stock-sentinel/internal/news"
	"stock-sentinel/internal/news/newsobs"
	"stock-sentinel/internal/pipeline"
	"stock-sentinel/internal/pipeline/pipelineobs"
	"stock-sentinel/internal/screener"
	"stock-sentinel/internal/store"
	"stock-sentinel/internal/trace"
)

// initializeSystem loads .env and sets up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownSystem(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", configPath)
		return nil, err
	}
	return cfg, nil
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg       *store.Config
	completer interfaces.Completer
	pipeline  interfaces.Pipeline
	news      interfaces.NewsProvider
}

func (a *app) Close() {
	if s, ok := a.news.(*news.Service); ok {
		s.Close()
	}
}

// buildApp wires providers, wraps each in its observability decorator and
// assembles the pipeline. Extra observers see every step.
func buildApp(ctx context.Context, cfg *store.Config, observers ...pipeline.Observer) (*app, error) {
	snapshots, err := market.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("market provider: %w", err)
	}
	logger.Info(ctx, "Market provider ready", "provider", cfg.Market.Provider)

	newsProvider, err := news.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("news provider: %w", err)
	}
	logger.Info(ctx, "News provider ready", "provider", cfg.News.Provider, "cache_minutes", cfg.News.CacheMinutes)

	completer, err := llm.NewCompleter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if cfg.LLM.Provider == "NOOP" {
		logger.Warn(ctx, "No LLM provider configured - analyses will classify as Unknown")
	}
	completer = llmobs.Wrap(completer, cfg.LLM.Provider)

	analyzer := llmobs.WrapAnalyzer(llm.NewCausalAnalyzer(completer, cfg.LLM.System))

	opts := []pipeline.Option{
		pipeline.WithRecencyDays(cfg.News.RecencyDays),
		pipeline.WithObserver(pipelineobs.StepLogger()),
	}
	for _, o := range observers {
		opts = append(opts, pipeline.WithObserver(o))
	}
	p := pipeline.New(marketobs.Wrap(snapshots), newsobs.Wrap(newsProvider), analyzer, opts...)

	return &app{
		cfg:       cfg,
		completer: completer,
		pipeline:  pipelineobs.Wrap(p),
		news:      newsProvider,
	}, nil
}

func (a *app) screener() *screener.Screener {
	client := screener.NewClient(a.cfg.Screener.BaseURL, api.WithTimeout(a.cfg.Timeout()))
	return screener.New(a.completer, client, screener.Params{
		Limit:  a.cfg.Screener.Limit,
		Suffix: a.cfg.Screener.Suffix,
	})
}
