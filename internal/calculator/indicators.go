package calculator

import (
	"math"

	"github.com/guregu/null/v6"
	talib "github.com/markcheno/go-talib"

	"TrendSentinel/internal/model"
)

// RSI returns the Wilder RSI of the latest candle. Requires period+1 candles.
func RSI(candles []model.Candle, period int) null.Float {
	if period < 2 || len(candles) < period+1 {
		return null.Float{}
	}
	out := talib.Rsi(extractCloses(candles), period)
	return finite(out[len(out)-1], 2)
}

// ADX returns the average directional index of the latest candle. Requires
// 2*period candles.
func ADX(candles []model.Candle, period int) null.Float {
	if period < 2 || len(candles) < 2*period {
		return null.Float{}
	}
	out := talib.Adx(extractHighs(candles), extractLows(candles), extractCloses(candles), period)
	return finite(out[len(out)-1], 2)
}

// BollingerPctB returns %B of the latest close against bands of the given
// period and width, scaled to 0-100. Flat bands yield null.
func BollingerPctB(candles []model.Candle, period int, stdDev float64) null.Float {
	if period < 2 || len(candles) < period {
		return null.Float{}
	}
	closes := extractCloses(candles)
	upper, _, lower := talib.BBands(closes, period, stdDev, stdDev, talib.SMA)
	last := len(closes) - 1
	width := upper[last] - lower[last]
	if width == 0 || math.IsNaN(width) {
		return null.Float{}
	}
	return finite((closes[last]-lower[last])/width*100, 2)
}

// Supertrend runs the ATR band-flip algorithm and reports whether the latest
// close sits above (UP) or below (DOWN) the final band.
func Supertrend(candles []model.Candle, atrPeriod int, multiplier float64) *model.Supertrend {
	n := len(candles)
	if atrPeriod < 1 || n < atrPeriod+1 {
		return nil
	}
	highs, lows, closes := extractHighs(candles), extractLows(candles), extractCloses(candles)
	atr := talib.Atr(highs, lows, closes, atrPeriod)

	first := atrPeriod
	level := (highs[first]+lows[first])/2 - multiplier*atr[first]
	dir := model.Up

	for i := first + 1; i < n; i++ {
		mid := (highs[i] + lows[i]) / 2
		upper := mid + multiplier*atr[i]
		lower := mid - multiplier*atr[i]

		finalLower := lower
		if lower <= level && dir == model.Up {
			finalLower = level
		}
		finalUpper := upper
		if upper >= level && dir == model.Down {
			finalUpper = level
		}

		if dir == model.Up {
			if closes[i] <= finalLower {
				level, dir = finalUpper, model.Down
			} else {
				level = finalLower
			}
		} else {
			if closes[i] >= finalUpper {
				level, dir = finalLower, model.Up
			} else {
				level = finalUpper
			}
		}
	}

	if math.IsNaN(level) || math.IsInf(level, 0) {
		return nil
	}
	trend := model.Down
	if closes[n-1] > level {
		trend = model.Up
	}
	return &model.Supertrend{Direction: trend, Level: Round(level, 2)}
}

func finite(v float64, places int32) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(Round(v, places))
}
