package calculator

import (
	"math"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"TrendSentinel/internal/model"
)

// Round rounds v half away from zero to the given decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// DistancePct is the signed distance of level from cmp, in percent of cmp.
func DistancePct(level, cmp float64) null.Float {
	if cmp <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(Round((level-cmp)/cmp*100, 2))
}

// UpsidePct is the analyst target's distance from cmp, to one decimal place.
func UpsidePct(target, cmp float64) null.Float {
	if cmp <= 0 || target == 0 {
		return null.Float{}
	}
	return null.FloatFrom(Round((target-cmp)/cmp*100, 1))
}

// DayChange returns the latest close, the previous close and the percentage
// change between them.
func DayChange(daily []model.Candle) (cmp, prevClose, changePct null.Float) {
	n := len(daily)
	if n == 0 {
		return
	}
	cmp = null.FloatFrom(daily[n-1].Close)
	if n < 2 {
		return
	}
	prev := daily[n-2].Close
	prevClose = null.FloatFrom(prev)
	if prev > 0 {
		changePct = null.FloatFrom(Round((daily[n-1].Close-prev)/prev*100, 2))
	}
	return
}

// TwoYearHighPct measures how far the highest monthly open or close sits above
// the latest monthly close.
func TwoYearHighPct(monthly []model.Candle) null.Float {
	if len(monthly) == 0 {
		return null.Float{}
	}
	highest := math.Inf(-1)
	for _, c := range monthly {
		highest = math.Max(highest, math.Max(c.Open, c.Close))
	}
	last := monthly[len(monthly)-1].Close
	if last <= 0 {
		return null.Float{}
	}
	return null.FloatFrom(Round((highest/last-1)*100, 2))
}

// MaxAdverseDistance picks the farthest support distance that lies against
// the daily direction: the most negative for UP, the most positive for DOWN.
func MaxAdverseDistance(daily model.Direction, distances ...null.Float) null.Float {
	var out null.Float
	for _, d := range distances {
		if !d.Valid {
			continue
		}
		switch daily {
		case model.Up:
			if d.Float64 < 0 && (!out.Valid || d.Float64 < out.Float64) {
				out = d
			}
		case model.Down:
			if d.Float64 > 0 && (!out.Valid || d.Float64 > out.Float64) {
				out = d
			}
		}
	}
	return out
}

// Pivot is the classic floor pivot (H+L+C)/3 of one bar.
func Pivot(c model.Candle) float64 {
	return Round((c.High+c.Low+c.Close)/3, 2)
}

// Movement compares the last two closes: 1 for an advance, -1 for a decline
// and 0 when unchanged or when fewer than two candles exist.
func Movement(daily []model.Candle) int {
	n := len(daily)
	if n < 2 {
		return 0
	}
	switch last, prev := daily[n-1].Close, daily[n-2].Close; {
	case last > prev:
		return 1
	case last < prev:
		return -1
	}
	return 0
}
