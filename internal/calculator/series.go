package calculator

import "TrendSentinel/internal/model"

func extractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

func extractHighs(candles []model.Candle) []float64 {
	highs := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
	}
	return highs
}

func extractLows(candles []model.Candle) []float64 {
	lows := make([]float64, len(candles))
	for i, c := range candles {
		lows[i] = c.Low
	}
	return lows
}
