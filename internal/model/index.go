package model

import "github.com/guregu/null/v6"

// IndexSummary is the market-wide snapshot shown above the stock table.
type IndexSummary struct {
	Value               float64     `json:"value"`
	ChangePct           float64     `json:"change_pct"`
	Pivot               float64     `json:"pivot"`
	AbovePivot          bool        `json:"above_pivot"`
	BiggestTrend        null.String `json:"biggest_trend"`
	BiggestTrendSupport null.Float  `json:"biggest_trend_support"`
	Advance             int         `json:"advance"`
	Decline             int         `json:"decline"`
}
