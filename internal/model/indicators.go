package model

import "github.com/guregu/null/v6"

// Supertrend is the latest Supertrend reading.
type Supertrend struct {
	Direction Direction `json:"direction"`
	Level     float64   `json:"level"`
}

// TechnicalIndicators holds the indicator readings computed on the full
// (forming candle included) series.
type TechnicalIndicators struct {
	DailyRSI        null.Float  `json:"daily_rsi"`
	DailyADX        null.Float  `json:"daily_adx"`
	DailySupertrend *Supertrend `json:"daily_supertrend"`
	DailyBBPct      null.Float  `json:"daily_bb_pct"`
	WeeklyBBPct     null.Float  `json:"weekly_bb_pct"`
	MonthlyBBPct    null.Float  `json:"monthly_bb_pct"`
}
