package calendar

import (
	"time"

	"github.com/rs/zerolog/log"

	"TrendSentinel/internal/model"
)

// InScope returns the prefix of candles that should be evaluated at time now.
// At most the last candle is removed; series of zero or one candle are returned
// unchanged.
func (c *Calendar) InScope(candles []model.Candle, tf model.Timeframe, now time.Time) []model.Candle {
	if len(candles) <= 1 {
		return candles
	}
	now = now.In(c.loc)
	keep := true

	switch tf {
	case model.Monthly:
		keep = c.keepMonthly(candles[len(candles)-1], now)
	case model.Weekly:
		keep = c.keepWeekly(candles[len(candles)-1], now)
	default:
		keep = !c.IsOpen(now)
	}

	if keep {
		return candles
	}
	return candles[:len(candles)-1]
}

func (c *Calendar) keepMonthly(last model.Candle, now time.Time) bool {
	if last.Time.IsZero() {
		log.Warn().Str("timeframe", string(model.Monthly)).Msg("unparseable candle timestamp, using day-of-month rule")
		return now.Day() >= c.monthlyCutoffDay
	}
	lt := last.Time.In(c.loc)
	if lt.Year() < now.Year() || (lt.Year() == now.Year() && lt.Month() < now.Month()) {
		return true
	}
	return now.Day() >= c.monthlyCutoffDay
}

func (c *Calendar) keepWeekly(last model.Candle, now time.Time) bool {
	if last.Time.IsZero() {
		log.Warn().Str("timeframe", string(model.Weekly)).Msg("unparseable candle timestamp, using weekday rule")
		return c.weekClosed(now)
	}
	if last.Time.Before(weekStart(now)) {
		return true
	}
	return c.weekClosed(now)
}

// weekClosed treats the weekly candle as final from the close of the
// second-to-last trading day until the open of the next week's first trading
// day. For a Monday to Friday calendar that is Thursday 15:30 to Monday 09:15.
func (c *Calendar) weekClosed(now time.Time) bool {
	i, m := mondayIndex(now.Weekday()), minuteOfDay(now)
	switch {
	case i < c.weekFirst:
		return true
	case i == c.weekFirst && m < c.open:
		return true
	case i > c.weekFinal:
		return true
	case i == c.weekFinal:
		return m >= c.close
	}
	return false
}

// weekStart is local midnight of the Monday starting now's week.
func weekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
}
