package analyzer

import (
	"context"
	"math"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"TrendSentinel/internal/cache"
	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/calendar"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/trend"
)

const (
	// IndexSymbol is the Yahoo ticker of the NIFTY 50 index.
	IndexSymbol = "^NSEI"
	// IndexList names the constituents counted for advance/decline.
	IndexList = "nifty50"

	// indexWindow is how many closed 15-minute candles feed the biggest trend.
	indexWindow = 24
	// noExpiry accepts any durable copy as the last known summary.
	noExpiry = time.Duration(math.MaxInt64)
)

// IndexSource supplies index candles and its constituents.
type IndexSource interface {
	Candles(ctx context.Context, symbol string, tf model.Timeframe) []model.Candle
	Symbols(ctx context.Context, list string) []string
}

// IndexSummarizer builds the NIFTY 50 snapshot: level, day change, floor
// pivot, recent biggest 15-minute trend and the constituents' advance/decline.
type IndexSummarizer struct {
	src     IndexSource
	cache   *cache.Tiered
	cal     *calendar.Calendar
	rule    trend.ReversalRule
	workers int
	now     func() time.Time
}

// IndexOption configures an IndexSummarizer.
type IndexOption func(*IndexSummarizer)

// WithIndexClock replaces the calendar clock.
func WithIndexClock(now func() time.Time) IndexOption {
	return func(s *IndexSummarizer) { s.now = now }
}

// WithIndexWorkers bounds the concurrent constituent fetches.
func WithIndexWorkers(n int) IndexOption {
	return func(s *IndexSummarizer) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewIndexSummarizer(src IndexSource, c *cache.Tiered, cal *calendar.Calendar, rule trend.ReversalRule, opts ...IndexOption) *IndexSummarizer {
	s := &IndexSummarizer{src: src, cache: c, cal: cal, rule: rule, workers: 10, now: cal.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary returns a fresh snapshot from cache or computes one. Without daily
// index data it falls back to the last stored snapshot; ok is false when there
// is none.
func (s *IndexSummarizer) Summary(ctx context.Context) (model.IndexSummary, bool) {
	key := cache.IndexSummaryKey(IndexSymbol)

	var sum model.IndexSummary
	if _, ok := s.cache.GetJSON(ctx, key, &sum); ok {
		return sum, true
	}

	daily := s.src.Candles(ctx, IndexSymbol, model.Daily)
	if len(daily) == 0 {
		if s.cache.GetStaleJSON(ctx, key, noExpiry, &sum) {
			log.Warn().Str("index", IndexSymbol).Msg("no index data, using last stored summary")
			return sum, true
		}
		log.Warn().Str("index", IndexSymbol).Msg("no index data and no stored summary")
		return model.IndexSummary{}, false
	}

	sum = s.levels(daily)
	if biggest, ok := s.recentBiggest(ctx); ok {
		sum.BiggestTrend = null.StringFrom(string(biggest.Direction))
		sum.BiggestTrendSupport = null.FloatFrom(calculator.Round(biggest.AnchorPrice, 2))
	}
	sum.Advance, sum.Decline = s.advanceDecline(ctx)

	if err := s.cache.PutJSON(ctx, key, sum); err != nil {
		log.Warn().Err(err).Msg("cache index summary")
	}
	return sum, true
}

func (s *IndexSummarizer) levels(daily []model.Candle) model.IndexSummary {
	last := daily[len(daily)-1]
	prev := last.Close
	if len(daily) > 1 {
		prev = daily[len(daily)-2].Close
	}
	sum := model.IndexSummary{
		Value: calculator.Round(last.Close, 2),
		Pivot: calculator.Pivot(last),
	}
	if prev > 0 {
		sum.ChangePct = calculator.Round((last.Close-prev)/prev*100, 2)
	}
	sum.AbovePivot = last.Close >= sum.Pivot
	return sum
}

// recentBiggest partitions the last closed 15-minute candles of the index.
func (s *IndexSummarizer) recentBiggest(ctx context.Context) (model.TrendBlock, bool) {
	closed := s.src.Candles(ctx, IndexSymbol, model.FifteenMin)
	if s.cal.IsOpen(s.now()) && len(closed) > 1 {
		closed = closed[:len(closed)-1]
	}
	if len(closed) > indexWindow {
		closed = closed[len(closed)-indexWindow:]
	}
	return trend.Biggest(trend.Partition(closed, s.rule))
}

func (s *IndexSummarizer) advanceDecline(ctx context.Context) (advances, declines int) {
	symbols := s.src.Symbols(ctx, IndexList)
	moves := make([]int, len(symbols))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, sym := range symbols {
		g.Go(func() error {
			moves[i] = calculator.Movement(s.src.Candles(ctx, sym, model.Daily))
			return nil
		})
	}
	_ = g.Wait()

	for _, m := range moves {
		switch m {
		case 1:
			advances++
		case -1:
			declines++
		}
	}
	log.Info().Int("advances", advances).Int("declines", declines).Msg("index advance/decline")
	return advances, declines
}
