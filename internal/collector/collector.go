package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"TrendSentinel/internal/cache"
	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Candles      map[model.Timeframe][]model.Candle
	Fundamentals model.RawFundamentals
	Err          error
	// RateLimited makes the first n calls fail with ErrRateLimited.
	RateLimited int

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.RateLimited {
		return fmt.Errorf("mock: %w", ErrRateLimited)
	}
	return m.Err
}

// Calls returns how many fetches were attempted.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) FetchCandles(_ context.Context, _ string, tf model.Timeframe) ([]model.Candle, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	return m.Candles[tf], nil
}

func (m *MockFetcher) FetchFundamentals(context.Context, string) (model.RawFundamentals, error) {
	if err := m.begin(); err != nil {
		return model.RawFundamentals{}, err
	}
	return m.Fundamentals, nil
}

// Options tunes a Collector.
type Options struct {
	Retry                RetryPolicy
	CandlesStaleAge      time.Duration
	FundamentalsStaleAge time.Duration
}

// DefaultOptions mirror the production cache windows.
func DefaultOptions() Options {
	return Options{
		Retry:                DefaultRetryPolicy(),
		CandlesStaleAge:      24 * time.Hour,
		FundamentalsStaleAge: 7 * 24 * time.Hour,
	}
}

// Collector serves candles, fundamentals and symbol lists through the tiered
// cache. A failed live fetch falls back to an older durable entry and finally
// to an empty result.
type Collector struct {
	Fetcher  Fetcher
	Universe UniverseFetcher
	Cache    *cache.Tiered
	Opts     Options
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, universe UniverseFetcher, c *cache.Tiered, opts Options) *Collector {
	return &Collector{Fetcher: fetcher, Universe: universe, Cache: c, Opts: opts}
}

// Candles returns the series for symbol and tf, or nil when nothing is available.
func (c *Collector) Candles(ctx context.Context, symbol string, tf model.Timeframe) []model.Candle {
	key := cache.CandleKey(symbol, string(tf))

	var recs []candleRecord
	if _, ok := c.Cache.GetJSON(ctx, key, &recs); ok {
		return fromRecords(recs, symbol, tf)
	}

	candles, err := withRetry(ctx, c.Opts.Retry, symbol+" "+string(tf), func() ([]model.Candle, error) {
		return c.Fetcher.FetchCandles(ctx, symbol, tf)
	})
	if err == nil && len(candles) > 0 {
		if err := c.Cache.PutJSON(ctx, key, toRecords(candles)); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("cache candles")
		}
		return candles
	}

	if c.Cache.GetStaleJSON(ctx, key, c.Opts.CandlesStaleAge, &recs) {
		log.Info().Err(err).Str("symbol", symbol).Str("timeframe", string(tf)).Msg("using stale candles")
		return fromRecords(recs, symbol, tf)
	}
	logFetchFailure(err, symbol, string(tf))
	return nil
}

// Fundamentals returns the normalised fundamentals of symbol; ok is false when
// neither the upstream nor the cache could supply them.
func (c *Collector) Fundamentals(ctx context.Context, symbol string) (model.Fundamentals, bool) {
	key := cache.FundamentalsKey(symbol)

	var f model.Fundamentals
	if _, ok := c.Cache.GetJSON(ctx, key, &f); ok {
		return f, true
	}

	raw, err := withRetry(ctx, c.Opts.Retry, symbol+" fundamentals", func() (model.RawFundamentals, error) {
		return c.Fetcher.FetchFundamentals(ctx, symbol)
	})
	if err == nil {
		f = calculator.NormalizeFundamentals(raw, c.institutional(ctx, symbol, raw))
		if err := c.Cache.PutJSON(ctx, key, f); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("cache fundamentals")
		}
		return f, true
	}

	if c.Cache.GetStaleJSON(ctx, key, c.Opts.FundamentalsStaleAge, &f) {
		log.Info().Err(err).Str("symbol", symbol).Msg("using stale fundamentals")
		return f, true
	}
	logFetchFailure(err, symbol, "fundamentals")
	return model.Fundamentals{}, false
}

// institutional resolves the holding percentage, which changes rarely and is
// cached separately for a much longer window. "NA" is cached too.
func (c *Collector) institutional(ctx context.Context, symbol string, raw model.RawFundamentals) string {
	key := cache.InstitutionalKey(symbol)
	var pct string
	if _, ok := c.Cache.GetJSON(ctx, key, &pct); ok {
		return pct
	}
	pct = calculator.InstitutionalHolding(raw.HeldPctInstitutions)
	if err := c.Cache.PutJSON(ctx, key, pct); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("cache institutional holding")
	}
	return pct
}

// Symbols returns the constituents of list from cache, upstream, or the
// built-in fallback, in that order.
func (c *Collector) Symbols(ctx context.Context, list string) []string {
	key := cache.SymbolListKey(list)
	var symbols []string
	if tier, ok := c.Cache.GetJSON(ctx, key, &symbols); ok && len(symbols) > 0 {
		log.Debug().Str("list", list).Str("tier", string(tier)).Msg("symbol list from cache")
		return symbols
	}
	symbols, _ = c.refreshSymbols(ctx, list)
	return symbols
}

// RefreshSymbols drops the cached list and fetches it again. The error reports
// why the upstream list was rejected; the returned symbols are always usable.
func (c *Collector) RefreshSymbols(ctx context.Context, list string) ([]string, error) {
	c.Cache.Invalidate(ctx, cache.SymbolListKey(list))
	return c.refreshSymbols(ctx, list)
}

func (c *Collector) refreshSymbols(ctx context.Context, list string) ([]string, error) {
	key := cache.SymbolListKey(list)
	var fetchErr error
	if c.Universe != nil {
		symbols, err := c.Universe.FetchConstituents(ctx, list)
		switch {
		case err != nil:
			fetchErr = err
		case len(symbols) < ExpectedSize(list)*9/10:
			fetchErr = fmt.Errorf("%s: only %d constituents", list, len(symbols))
		default:
			log.Info().Str("list", list).Int("count", len(symbols)).Msg("symbol list from NSE")
			c.putSymbols(ctx, key, symbols)
			return symbols, nil
		}
		log.Warn().Err(fetchErr).Str("list", list).Msg("constituent fetch failed, using fallback list")
	} else {
		fetchErr = errors.New("no universe fetcher configured")
	}

	symbols := FallbackSymbols(list)
	c.putSymbols(ctx, key, symbols)
	return symbols, fetchErr
}

func (c *Collector) putSymbols(ctx context.Context, key cache.Key, symbols []string) {
	if err := c.Cache.PutJSON(ctx, key, symbols); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("cache symbol list")
	}
}

func logFetchFailure(err error, symbol, what string) {
	ev := log.Error()
	if errors.Is(err, ErrRateLimited) {
		ev = ev.Bool("rate_limited", true)
	}
	if err == nil {
		err = ErrNoData
	}
	ev.Err(err).Str("symbol", symbol).Str("data", what).Msg("fetch failed, no cache available")
}
