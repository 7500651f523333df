// Package server exposes the screener and the decision pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/pipeline"
	"stock-sentinel/internal/types"
)

// Confidence is reported with every analysis result. The pipeline has no
// confidence model, so the value is fixed.
const Confidence = 85

const analysisFailed = "Analysis failed"

// Config describes the server dependencies.
type Config struct {
	Addr           string
	AllowedOrigins []string
	Screener       interfaces.Screener
	Pipeline       interfaces.Pipeline
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Query string `json:"query" binding:"required"`
}

// AnalysisResponse is one analysed ticker.
type AnalysisResponse struct {
	Ticker     string `json:"ticker"`
	Decision   string `json:"decision"`
	Analysis   string `json:"analysis"`
	Confidence int    `json:"confidence"`
}

type Server struct {
	addr     string
	router   *gin.Engine
	screener interfaces.Screener
	pipeline interfaces.Pipeline
}

// New builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("server requires a pipeline")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors(cfg.AllowedOrigins))

	s := &Server{
		addr:     cfg.Addr,
		router:   router,
		screener: cfg.Screener,
		pipeline: cfg.Pipeline,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/analyze", s.handleAnalyze)
	router.GET("/analyze/:ticker", s.handleAnalyzeTicker)
	return s, nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Addr() string { return s.addr }

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info(ctx, "HTTP server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleAnalyze(c *gin.Context) {
	ctx := c.Request.Context()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if s.screener == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "screener not configured"})
		return
	}

	logger.Info(ctx, "Received query", "query", req.Query)
	tickers, err := s.screener.Screen(ctx, req.Query)
	if err != nil {
		logger.ErrorWithErr(ctx, "Screener failed", err, "query", req.Query)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if len(tickers) == 0 {
		logger.Info(ctx, "No tickers found", "query", req.Query)
		c.JSON(http.StatusOK, []AnalysisResponse{})
		return
	}

	// sequential to stay under provider rate limits
	results := pipeline.RunBatch(ctx, s.pipeline, tickers, 1)
	out := make([]AnalysisResponse, 0, len(results))
	for _, r := range results {
		if !r.OK() {
			logger.Warn(ctx, "Skipping failed ticker", "symbol", r.Symbol, "error", r.Err)
			continue
		}
		out = append(out, toResponse(r.State))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAnalyzeTicker(c *gin.Context) {
	ticker := c.Param("ticker")
	st, err := s.pipeline.Run(c.Request.Context(), ticker)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result": toResponse(st),
		"state":  st,
	})
}

func toResponse(st *types.PipelineState) AnalysisResponse {
	analysis := st.AnalysisText()
	if analysis == "" {
		analysis = analysisFailed
	}
	decision := string(st.Classification)
	if decision == "" {
		decision = string(types.Unknown)
	}
	return AnalysisResponse{
		Ticker:     st.Symbol,
		Decision:   decision,
		Analysis:   analysis,
		Confidence: Confidence,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"duration", time.Since(start))
	}
}

// cors allows every origin when origins is empty or contains "*".
func cors(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	allowAll := len(origins) == 0 || allowed["*"]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
