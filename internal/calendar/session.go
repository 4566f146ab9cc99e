package calendar

import (
	"time"

	"TrendSentinel/internal/model"
)

// TodaysSession returns the candles of the current session while the market is
// open, otherwise the trailing run of candles sharing the last candle's date.
func (c *Calendar) TodaysSession(candles []model.Candle, now time.Time) []model.Candle {
	if len(candles) == 0 {
		return nil
	}
	now = now.In(c.loc)

	if c.IsOpen(now) {
		startHour := c.open / 60
		var session []model.Candle
		for _, cd := range candles {
			if cd.Time.IsZero() {
				continue
			}
			t := cd.Time.In(c.loc)
			if sameDay(t, now) && t.Hour() >= startHour {
				session = append(session, cd)
			}
		}
		return session
	}

	end := len(candles) - 1
	for end >= 0 && candles[end].Time.IsZero() {
		end--
	}
	if end < 0 {
		return nil
	}
	day := candles[end].Time.In(c.loc)
	start := end
	for start > 0 {
		prev := candles[start-1]
		if prev.Time.IsZero() || !sameDay(prev.Time.In(c.loc), day) {
			break
		}
		start--
	}
	return candles[start : end+1]
}

// OpeningRangeCandle returns the most recent candle stamped exactly at the open.
func (c *Calendar) OpeningRangeCandle(candles []model.Candle) (model.Candle, bool) {
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].Time.IsZero() {
			continue
		}
		if minuteOfDay(candles[i].Time.In(c.loc)) == c.open {
			return candles[i], true
		}
	}
	return model.Candle{}, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
