package analyzer

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/calendar"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/strategy"
	"TrendSentinel/internal/trend"
)

// Service evaluates a single symbol.
type Service interface {
	Analyze(ctx context.Context, symbol string) model.AnalysisResult
}

// Source supplies market data. Empty series and missing fundamentals are
// valid answers.
type Source interface {
	Candles(ctx context.Context, symbol string, tf model.Timeframe) []model.Candle
	Fundamentals(ctx context.Context, symbol string) (model.Fundamentals, bool)
}

type service struct {
	src  Source
	cal  *calendar.Calendar
	rule trend.ReversalRule
	now  func() time.Time
}

// Option configures the service.
type Option func(*service)

// WithClock replaces the calendar clock.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService builds the per-symbol evaluator.
func NewService(src Source, cal *calendar.Calendar, rule trend.ReversalRule, opts ...Option) Service {
	s := &service{src: src, cal: cal, rule: rule, now: cal.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze never fails for missing data; a panic inside the evaluation is
// reported in the result's Error field.
func (s *service) Analyze(ctx context.Context, symbol string) (res model.AnalysisResult) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("symbol", symbol).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("analysis failed")
			res = model.AnalysisResult{Symbol: symbol, Error: fmt.Sprint(r)}
		}
	}()
	return s.analyze(ctx, symbol)
}

func (s *service) analyze(ctx context.Context, symbol string) model.AnalysisResult {
	now := s.now()
	res := model.AnalysisResult{
		Symbol:           symbol,
		UDTS:             make(map[model.Timeframe]model.Direction, len(model.Timeframes)),
		Supports:         make(map[model.Timeframe]null.Float, len(model.Timeframes)),
		SupportDistances: make(map[model.Timeframe]null.Float, len(model.Timeframes)),
	}

	all := make(map[model.Timeframe][]model.Candle, len(model.Timeframes))
	for _, tf := range model.Timeframes {
		all[tf] = s.src.Candles(ctx, symbol, tf)
	}

	res.CMP, res.YesterdayClose, res.CMPChangePct = calculator.DayChange(all[model.Daily])
	res.TwoYearHighPct = calculator.TwoYearHighPct(all[model.Monthly])

	for _, tf := range model.Timeframes {
		scoped := s.cal.InScope(all[tf], tf, now)
		dir := trend.Detect(scoped).Direction
		res.UDTS[tf] = dir

		support, ok := trend.SupportPrice(scoped, dir)
		if !ok {
			res.Supports[tf] = null.Float{}
			res.SupportDistances[tf] = null.Float{}
			continue
		}
		res.Supports[tf] = null.FloatFrom(support)
		res.SupportDistances[tf] = distance(support, res.CMP)
	}
	res.DailySupport = res.Supports[model.Daily]
	res.DailySupportPct = res.SupportDistances[model.Daily]

	intraday := all[model.FifteenMin]
	session := s.cal.TodaysSession(intraday, now)
	if s.cal.IsOpen(now) && len(session) > 1 {
		session = session[:len(session)-1]
	}
	biggest, hasBiggest := trend.Biggest(trend.Partition(session, s.rule))
	opening, hasOpening := s.cal.OpeningRangeCandle(intraday)

	scores := strategy.Evaluate(strategy.Inputs{
		Directions:   res.UDTS,
		CMP:          res.CMP.ValueOrZero(),
		DailySupport: res.DailySupport.ValueOrZero(),
		HasSupport:   res.DailySupport.Valid,
		Biggest:      biggest,
		HasBiggest:   hasBiggest,
		Opening:      opening,
		HasOpening:   hasOpening,
	})
	res.Scores = scores
	res.IsTripleUp = scores.TripleUp
	res.IsTripleDown = scores.TripleDown
	res.CMPLabel = scores.CrossoverLabel
	res.CMPDirection = scores.CrossoverDirection

	var anchorDist null.Float
	if hasBiggest {
		anchorDist = distance(biggest.AnchorPrice, res.CMP)
		res.BiggestTrend = &model.BiggestTrend{
			Direction:   biggest.Direction,
			Support:     biggest.AnchorPrice,
			DistancePct: anchorDist,
			Low:         biggest.Low,
			High:        biggest.High,
			StartTime:   biggest.First().Time,
			EndTime:     biggest.Last().Time,
		}
		if res.CMP.Valid && biggest.AnchorPrice != 0 {
			res.BiggestTrend.CMPDiff = null.FloatFrom(calculator.Round(res.CMP.Float64-biggest.AnchorPrice, 2))
		}
	}
	if hasOpening {
		if dir, ok := strategy.InitialDirection(opening); ok {
			res.InitialTrend = &model.InitialTrend{Direction: dir, Support: opening.Open}
		}
	}
	res.MaxDistance = calculator.MaxAdverseDistance(res.UDTS[model.Daily], anchorDist, res.DailySupportPct)

	if f, ok := s.src.Fundamentals(ctx, symbol); ok {
		res.Fundamentals = &f
		if f.TargetPrice.Valid && res.CMP.Valid {
			res.Upside = calculator.UpsidePct(f.TargetPrice.Float64, res.CMP.Float64)
		}
	}

	res.Indicators = indicators(all)
	return res
}

// indicators are read off the full series, forming candle included.
func indicators(all map[model.Timeframe][]model.Candle) model.TechnicalIndicators {
	daily := all[model.Daily]
	return model.TechnicalIndicators{
		DailyRSI:        calculator.RSI(daily, 14),
		DailyADX:        calculator.ADX(daily, 14),
		DailySupertrend: calculator.Supertrend(daily, 10, 3.0),
		DailyBBPct:      calculator.BollingerPctB(daily, 20, 2.0),
		WeeklyBBPct:     calculator.BollingerPctB(all[model.Weekly], 20, 2.0),
		MonthlyBBPct:    calculator.BollingerPctB(all[model.Monthly], 20, 2.0),
	}
}

func distance(level float64, cmp null.Float) null.Float {
	if !cmp.Valid || level == 0 {
		return null.Float{}
	}
	return calculator.DistancePct(level, cmp.Float64)
}
