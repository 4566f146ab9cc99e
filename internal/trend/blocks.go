package trend

import (
	"fmt"
	"math"

	"TrendSentinel/internal/model"
)

// ReversalRule selects the reference price an opposite-colored candle's close
// must cross before a block is closed.
type ReversalRule int

const (
	// ReversalPrevClose compares against the previous candle's close.
	ReversalPrevClose ReversalRule = iota
	// ReversalPrevOpen compares against the previous candle's open.
	ReversalPrevOpen
)

// ParseReversalRule maps "close" and "open" to their rules.
func ParseReversalRule(s string) (ReversalRule, error) {
	switch s {
	case "", "close":
		return ReversalPrevClose, nil
	case "open":
		return ReversalPrevOpen, nil
	}
	return 0, fmt.Errorf("unknown reversal rule %q", s)
}

func (r ReversalRule) String() string {
	if r == ReversalPrevOpen {
		return "open"
	}
	return "close"
}

func (r ReversalRule) reference(prev model.Candle) float64 {
	if r == ReversalPrevOpen {
		return prev.Open
	}
	return prev.Close
}

// Partition splits candles into contiguous trend blocks. A candle whose color
// opposes the current block only starts a new block when its close crosses the
// rule's reference price of the previous candle; otherwise it is absorbed.
// NEITHER candles count as the non-GREEN side.
func Partition(candles []model.Candle, rule ReversalRule) []model.TrendBlock {
	if len(candles) == 0 {
		return nil
	}

	var blocks []model.TrendBlock
	start := 0
	dir := sideOf(candles[0])

	for i := 1; i < len(candles); i++ {
		c, prev := candles[i], candles[i-1]
		if sideOf(c) == dir {
			continue
		}
		ref := rule.reference(prev)
		reversed := (dir == model.Up && c.Close < ref) || (dir == model.Down && c.Close > ref)
		if !reversed {
			continue
		}
		blocks = append(blocks, newBlock(candles[start:i], dir))
		start = i
		dir = sideOf(c)
	}
	return append(blocks, newBlock(candles[start:], dir))
}

func sideOf(c model.Candle) model.Direction {
	if c.IsGreen() {
		return model.Up
	}
	return model.Down
}

func newBlock(candles []model.Candle, dir model.Direction) model.TrendBlock {
	low, high := math.Inf(1), math.Inf(-1)
	for _, c := range candles {
		low = math.Min(low, math.Min(c.Open, c.Close))
		high = math.Max(high, math.Max(c.Open, c.Close))
	}
	return model.TrendBlock{
		Candles:     candles,
		Direction:   dir,
		Power:       high - low,
		AnchorPrice: candles[0].Open,
		Low:         low,
		High:        high,
	}
}
