// Package trend implements the directional pattern detector (UDTS) and the
// intraday trend-block segmentation.
package trend

import "TrendSentinel/internal/model"

// Detect classifies candles as UP or DOWN using the anchor/reversal pattern.
//
// The anchor is the most recent GREEN candle that closes above the open of the
// nearest RED candle before it. Once anchored, any later RED candle closing
// below the open of the nearest GREEN candle before it reverses the series to
// DOWN. A series without an anchor falls back to its net move over the closed
// candles. An empty series is UNKNOWN.
func Detect(candles []model.Candle) model.DirectionalPattern {
	p := model.DirectionalPattern{
		Direction:     model.Unknown,
		AnchorGreen:   model.NoIndex,
		AnchorRed:     model.NoIndex,
		ReversalRed:   model.NoIndex,
		ReversalGreen: model.NoIndex,
	}
	if len(candles) == 0 {
		return p
	}

	g1, r1 := findAnchor(candles)
	if g1 == model.NoIndex {
		p.Direction = fallbackDirection(candles)
		return p
	}
	p.AnchorGreen, p.AnchorRed = g1, r1

	for k := g1 + 1; k < len(candles); k++ {
		if !candles[k].IsRed() {
			continue
		}
		// G1 is GREEN, so this search never runs past it.
		g := lastGreenBefore(candles, k)
		if g != model.NoIndex && candles[k].Close < candles[g].Open {
			p.ReversalRed, p.ReversalGreen = k, g
			p.Direction = model.Down
			return p
		}
	}
	p.Direction = model.Up
	return p
}

func findAnchor(candles []model.Candle) (green, red int) {
	for i := len(candles) - 1; i >= 0; i-- {
		if !candles[i].IsGreen() {
			continue
		}
		j := lastRedBefore(candles, i)
		if j != model.NoIndex && candles[i].Close > candles[j].Open {
			return i, j
		}
	}
	return model.NoIndex, model.NoIndex
}

// fallbackDirection treats the final candle as still forming.
func fallbackDirection(candles []model.Candle) model.Direction {
	closed := candles[:len(candles)-1]
	if len(closed) == 0 {
		if candles[0].IsGreen() {
			return model.Up
		}
		return model.Down
	}
	if closed[len(closed)-1].Close-closed[0].Open >= 0 {
		return model.Up
	}
	return model.Down
}

func lastRedBefore(candles []model.Candle, i int) int {
	for j := i - 1; j >= 0; j-- {
		if candles[j].IsRed() {
			return j
		}
	}
	return model.NoIndex
}

func lastGreenBefore(candles []model.Candle, i int) int {
	for j := i - 1; j >= 0; j-- {
		if candles[j].IsGreen() {
			return j
		}
	}
	return model.NoIndex
}

// SupportPrice returns the open of the most recent candle whose color agrees
// with dir. ok is false when no such candle exists.
func SupportPrice(candles []model.Candle, dir model.Direction) (price float64, ok bool) {
	for i := len(candles) - 1; i >= 0; i-- {
		c := candles[i]
		if (dir == model.Up && c.IsGreen()) || (dir == model.Down && c.IsRed()) {
			return c.Open, true
		}
	}
	return 0, false
}
