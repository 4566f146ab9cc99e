package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"TrendSentinel/internal/batch"
	"TrendSentinel/internal/model"
)

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(_ context.Context, symbol string) model.AnalysisResult {
	sector, total := "Tech", 300
	if symbol == "SBIN" {
		sector, total = "Banks", -300
	}
	dir := model.Up
	if total < 0 {
		dir = model.Down
	}
	return model.AnalysisResult{
		Symbol: symbol,
		UDTS: map[model.Timeframe]model.Direction{
			model.Monthly: dir, model.Weekly: dir, model.Daily: dir,
		},
		IsTripleUp:   dir == model.Up,
		IsTripleDown: dir == model.Down,
		Scores:       &model.ScoreBreakdown{Total: total},
		Fundamentals: &model.Fundamentals{Sector: null.StringFrom(sector), Industry: null.StringFrom(sector + " ind")},
	}
}

type fakeIndex struct {
	sum model.IndexSummary
	ok  bool
}

func (f *fakeIndex) Summary(context.Context) (model.IndexSummary, bool) { return f.sum, f.ok }

type fakeSymbols struct {
	list       []string
	refreshErr error
}

func (f *fakeSymbols) Symbols(context.Context, string) []string { return f.list }
func (f *fakeSymbols) RefreshSymbols(context.Context, string) ([]string, error) {
	return f.list, f.refreshErr
}

type fakeCache struct {
	cleared int
	err     error
}

func (f *fakeCache) Clear(context.Context) error {
	f.cleared++
	return f.err
}

func newTestServer() (*Server, *fakeSymbols, *fakeCache) {
	syms := &fakeSymbols{list: []string{"TCS", "SBIN", "INFY"}}
	c := &fakeCache{}
	s := New(Config{
		Analyzer:  fakeAnalyzer{},
		Runner:    batch.NewRunner(fakeAnalyzer{}, 2, 0),
		Symbols:   syms,
		Cache:     c,
		List:      "nifty50",
		DBHealthy: true,
		Now:       func() time.Time { return time.Date(2024, 1, 19, 10, 0, 0, 0, time.UTC) },
	})
	return s, syms, c
}

func do(t *testing.T, s *Server, method, uri string) (*fasthttp.RequestCtx, map[string]any) {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	s.Router().Handler(ctx)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body), string(ctx.Response.Body()))
	return ctx, body
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer()
	for _, uri := range []string{"/health", "/api/health"} {
		ctx, body := do(t, s, http.MethodGet, uri)
		assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "connected", body["db_status"])
		assert.Equal(t, "2024-01-19T10:00:00Z", body["timestamp"])
	}
}

func TestSymbols(t *testing.T) {
	s, _, _ := newTestServer()
	ctx, body := do(t, s, http.MethodGet, "/api/symbols")
	assert.Equal(t, []any{"TCS", "SBIN", "INFY"}, body["symbols"])
	assert.Equal(t, "no-cache, no-store, must-revalidate", string(ctx.Response.Header.Peek("Cache-Control")))
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
}

func TestStock(t *testing.T) {
	s, _, _ := newTestServer()
	_, body := do(t, s, http.MethodGet, "/api/stock/TCS")
	assert.Equal(t, "TCS", body["symbol"])
	scores := body["scores"].(map[string]any)
	assert.Equal(t, 300.0, scores["total"])
	assert.Equal(t, "Tech", body["sector"])
	assert.Equal(t, "Tech ind", body["industry"])
	assert.Contains(t, body, "daily_rsi")
	assert.NotContains(t, body, "indicators")
}

func TestStocks_Ranked(t *testing.T) {
	s, _, _ := newTestServer()
	_, body := do(t, s, http.MethodGet, "/api/stocks")
	stocks := body["stocks"].([]any)
	require.Len(t, stocks, 3)
	last := stocks[2].(map[string]any)
	assert.Equal(t, "SBIN", last["symbol"])
}

func TestTrends(t *testing.T) {
	s, _, _ := newTestServer()
	_, body := do(t, s, http.MethodGet, "/api/sector-trends")
	up := body["up_trends"].([]any)
	down := body["down_trends"].([]any)
	require.Len(t, up, 1)
	require.Len(t, down, 1)
	assert.Equal(t, "Tech", up[0].(map[string]any)["sector"])
	assert.NotContains(t, up[0], "name")
	assert.Equal(t, 2.0, up[0].(map[string]any)["stock_count"])

	_, body = do(t, s, http.MethodGet, "/api/industry-trends")
	down = body["down_trends"].([]any)
	require.Len(t, down, 1)
	assert.Equal(t, "Banks ind", down[0].(map[string]any)["industry"])
}

func TestRefresh(t *testing.T) {
	s, _, c := newTestServer()
	_, body := do(t, s, http.MethodGet, "/api/refresh")
	assert.Equal(t, "Cache cleared", body["message"])
	_, _ = do(t, s, http.MethodPost, "/api/refresh")
	assert.Equal(t, 2, c.cleared)

	c.err = errors.New("disk full")
	ctx, body := do(t, s, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Equal(t, "disk full", body["error"])
}

func TestRefreshSymbols(t *testing.T) {
	s, syms, _ := newTestServer()
	_, body := do(t, s, http.MethodGet, "/api/refresh-symbols")
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 3.0, body["stock_count"])

	syms.refreshErr = errors.New("nse down")
	_, body = do(t, s, http.MethodGet, "/api/refresh-symbols")
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "nse down")
}

func TestNotFound(t *testing.T) {
	s, _, _ := newTestServer()
	ctx, body := do(t, s, http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "not found", body["error"])
}

func TestNifty50(t *testing.T) {
	idx := &fakeIndex{}
	s := New(Config{Index: idx})
	_, body := do(t, s, http.MethodGet, "/api/nifty50")
	assert.Empty(t, body)

	idx.sum = model.IndexSummary{
		Value:               21622.4,
		ChangePct:           0.25,
		Pivot:               21580.1,
		AbovePivot:          true,
		BiggestTrend:        null.StringFrom("UP"),
		BiggestTrendSupport: null.FloatFrom(21501.35),
		Advance:             31,
		Decline:             19,
	}
	idx.ok = true
	_, body = do(t, s, http.MethodGet, "/api/nifty50")
	assert.Equal(t, 21622.4, body["value"])
	assert.Equal(t, true, body["above_pivot"])
	assert.Equal(t, "UP", body["biggest_trend"])
	assert.Equal(t, 21501.35, body["biggest_trend_support"])
	assert.Equal(t, 31.0, body["advance"])
	assert.Equal(t, 19.0, body["decline"])
}
