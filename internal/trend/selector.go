package trend

import "TrendSentinel/internal/model"

// Biggest returns the block with the greatest power, preferring the earliest
// block on ties.
func Biggest(blocks []model.TrendBlock) (model.TrendBlock, bool) {
	if len(blocks) == 0 {
		return model.TrendBlock{}, false
	}
	best := 0
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Power > blocks[best].Power {
			best = i
		}
	}
	return blocks[best], true
}
