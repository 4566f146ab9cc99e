package strategy

import "TrendSentinel/internal/model"

// Inputs holds everything the composite scorer looks at for one symbol.
type Inputs struct {
	// Directions is the UDTS direction per timeframe; missing entries count as UNKNOWN.
	Directions map[model.Timeframe]model.Direction
	// CMP is the latest daily close.
	CMP float64
	// DailySupport is the open of the latest daily candle matching the daily direction.
	DailySupport float64
	HasSupport   bool
	// Biggest is the strongest block of today's 15-minute session.
	Biggest    model.TrendBlock
	HasBiggest bool
	// Opening is the 09:15 15-minute candle.
	Opening    model.Candle
	HasOpening bool
}

// Evaluate computes the composite score from the per-timeframe directions and
// the intraday confirmations.
func Evaluate(in Inputs) *model.ScoreBreakdown {
	up := tripleAgrees(in.Directions, model.Up)
	down := tripleAgrees(in.Directions, model.Down)

	base := scoreBase(in.Directions)
	cross, label, crossDir := scoreCrossover(in, up, down)
	big := scoreBiggest(in, up, down)
	initial := scoreInitial(in, up, down)

	factors := []model.FactorScore{base, cross, big, initial}

	return &model.ScoreBreakdown{
		Factors:            factors,
		Base:               base.Score,
		Crossover:          cross.Score,
		Biggest:            big.Score,
		Initial:            initial.Score,
		Total:              base.Score + cross.Score + big.Score + initial.Score,
		TripleUp:           up,
		TripleDown:         down,
		CrossoverLabel:     label,
		CrossoverDirection: crossDir,
	}
}

// tripleAgrees reports whether monthly, weekly and daily all point in dir.
func tripleAgrees(dirs map[model.Timeframe]model.Direction, dir model.Direction) bool {
	for _, tf := range model.TripleTimeframes {
		if dirs[tf] != dir {
			return false
		}
	}
	return true
}
