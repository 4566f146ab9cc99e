// Package server exposes the analysis over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/buaazp/fasthttprouter"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"TrendSentinel/internal/analyzer"
	"TrendSentinel/internal/batch"
	"TrendSentinel/internal/model"
)

const serviceName = "TrendSentinel API"

// Symbols resolves and refreshes the configured universe.
type Symbols interface {
	Symbols(ctx context.Context, list string) []string
	RefreshSymbols(ctx context.Context, list string) ([]string, error)
}

// Clearer drops every cached entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// IndexSummary reports the market index snapshot; ok is false when none is
// available.
type IndexSummary interface {
	Summary(ctx context.Context) (model.IndexSummary, bool)
}

// Server holds the HTTP handlers.
type Server struct {
	analyzer  analyzer.Service
	index     IndexSummary
	runner    *batch.Runner
	symbols   Symbols
	cache     Clearer
	list      string
	dbHealthy bool
	now       func() time.Time
	timeout   time.Duration
}

// Config carries the collaborators of a Server.
type Config struct {
	Analyzer  analyzer.Service
	Index     IndexSummary
	Runner    *batch.Runner
	Symbols   Symbols
	Cache     Clearer
	List      string
	DBHealthy bool
	Now       func() time.Time
	// Timeout bounds the work of one request. Zero disables the bound.
	Timeout time.Duration
}

// New creates a Server.
func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		analyzer:  cfg.Analyzer,
		index:     cfg.Index,
		runner:    cfg.Runner,
		symbols:   cfg.Symbols,
		cache:     cfg.Cache,
		list:      cfg.List,
		dbHealthy: cfg.DBHealthy,
		now:       now,
		timeout:   cfg.Timeout,
	}
}

// Router registers every endpoint. /metrics is added by the metrics wrapper.
func (s *Server) Router() *fasthttprouter.Router {
	r := fasthttprouter.New()
	r.GET("/health", s.health)
	r.GET("/api/health", s.health)
	r.GET("/api/nifty50", s.nifty50)
	r.GET("/api/symbols", noCache(s.listSymbols))
	r.GET("/api/stock/:symbol", s.stock)
	r.GET("/api/stocks", noCache(s.stocks))
	r.GET("/api/sector-trends", noCache(s.sectorTrends))
	r.GET("/api/industry-trends", noCache(s.industryTrends))
	r.GET("/api/refresh", s.refresh)
	r.POST("/api/refresh", s.refresh)
	r.GET("/api/refresh-symbols", s.refreshSymbols)
	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, http.StatusNotFound, errorBody{Error: "not found"})
	}
	return r
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	status := "unavailable"
	if s.dbHealthy {
		status = "connected"
	}
	writeJSON(ctx, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   serviceName,
		"database":  "sqlite",
		"db_status": status,
		"timestamp": s.timestamp(),
	})
}

// nifty50 answers an empty object when no snapshot is available.
func (s *Server) nifty50(ctx *fasthttp.RequestCtx) {
	c, cancel := s.requestContext()
	defer cancel()
	sum, ok := s.index.Summary(c)
	if !ok {
		writeJSON(ctx, http.StatusOK, struct{}{})
		return
	}
	writeJSON(ctx, http.StatusOK, sum)
}

func (s *Server) listSymbols(ctx *fasthttp.RequestCtx) {
	c, cancel := s.requestContext()
	defer cancel()
	writeJSON(ctx, http.StatusOK, map[string]any{
		"symbols": s.symbols.Symbols(c, s.list),
	})
}

func (s *Server) stock(ctx *fasthttp.RequestCtx) {
	symbol, _ := ctx.UserValue("symbol").(string)
	c, cancel := s.requestContext()
	defer cancel()
	writeJSON(ctx, http.StatusOK, s.analyzer.Analyze(c, symbol))
}

// requestContext bounds a handler's work by the configured timeout.
func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	return context.WithCancel(context.Background())
}

// runUniverse evaluates the configured list. The error is non-nil only when
// the request timed out part way.
func (s *Server) runUniverse() (batch.Report, error) {
	c, cancel := s.requestContext()
	defer cancel()
	return s.runner.Run(c, s.symbols.Symbols(c, s.list))
}

func (s *Server) stocks(ctx *fasthttp.RequestCtx) {
	rep, err := s.runUniverse()
	if err != nil {
		log.Warn().Err(err).Str("batch", rep.ID).Msg("stocks request cut short")
	}
	writeJSON(ctx, http.StatusOK, map[string]any{
		"stocks":    rep.Results,
		"timestamp": s.timestamp(),
	})
}

func (s *Server) sectorTrends(ctx *fasthttp.RequestCtx) {
	s.trends(ctx, batch.SectorTrends)
}

func (s *Server) industryTrends(ctx *fasthttp.RequestCtx) {
	s.trends(ctx, batch.IndustryTrends)
}

func (s *Server) trends(ctx *fasthttp.RequestCtx, group func([]model.AnalysisResult) batch.Trends) {
	rep, err := s.runUniverse()
	body := map[string]any{"timestamp": s.timestamp()}
	if err != nil {
		log.Error().Err(err).Str("batch", rep.ID).Msg("trend request failed")
		body["up_trends"] = []batch.GroupTrend{}
		body["down_trends"] = []batch.GroupTrend{}
		body["error"] = err.Error()
		writeJSON(ctx, http.StatusOK, body)
		return
	}
	tr := group(rep.Results)
	body["up_trends"] = tr.Up
	body["down_trends"] = tr.Down
	writeJSON(ctx, http.StatusOK, body)
}

func (s *Server) refresh(ctx *fasthttp.RequestCtx) {
	c, cancel := s.requestContext()
	defer cancel()
	if err := s.cache.Clear(c); err != nil {
		log.Error().Err(err).Msg("cache clear failed")
		writeJSON(ctx, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	log.Info().Msg("all caches cleared")
	writeJSON(ctx, http.StatusOK, map[string]string{
		"message":   "Cache cleared",
		"timestamp": s.timestamp(),
	})
}

func (s *Server) refreshSymbols(ctx *fasthttp.RequestCtx) {
	c, cancel := s.requestContext()
	defer cancel()
	symbols, err := s.symbols.RefreshSymbols(c, s.list)
	body := map[string]any{
		"success":     err == nil,
		"stock_count": len(symbols),
		"timestamp":   s.timestamp(),
	}
	if err != nil {
		body["message"] = "Using fallback list: " + err.Error()
	} else {
		body["message"] = "Stock list refreshed from NSE"
	}
	writeJSON(ctx, http.StatusOK, body)
}

func noCache(h fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		ctx.Response.Header.Set("Pragma", "no-cache")
		ctx.Response.Header.Set("Expires", "0")
		h(ctx)
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
		ctx.Error(`{"error":"failed to encode JSON response"}`, http.StatusInternalServerError)
	}
}
