package model

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
)

// FactorScore represents a single scoring component.
type FactorScore struct {
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Commentary string `json:"commentary"`
}

// ScoreBreakdown is the output of the composite scorer.
type ScoreBreakdown struct {
	Factors    []FactorScore `json:"-"`
	Base       int           `json:"base"`
	Crossover  int           `json:"cmp"`
	Biggest    int           `json:"biggest"`
	Initial    int           `json:"initial"`
	Total      int           `json:"total"`
	TripleUp   bool          `json:"-"`
	TripleDown bool          `json:"-"`
	// CrossoverLabel is "YES" when the crossover component fired.
	CrossoverLabel     string    `json:"-"`
	CrossoverDirection Direction `json:"-"`
}

// BiggestTrend summarises the most powerful intraday block.
type BiggestTrend struct {
	Direction   Direction  `json:"direction"`
	Support     float64    `json:"support"`
	DistancePct null.Float `json:"distance_pct"`
	CMPDiff     null.Float `json:"cmp_diff"`
	Low         float64    `json:"low"`
	High        float64    `json:"high"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
}

// InitialTrend is the direction of the opening-range candle.
type InitialTrend struct {
	Direction Direction `json:"direction"`
	Support   float64   `json:"support"`
}

// AnalysisResult is the full per-symbol evaluation.
type AnalysisResult struct {
	Symbol           string                   `json:"symbol"`
	Error            string                   `json:"error,omitempty"`
	UDTS             map[Timeframe]Direction  `json:"udts,omitempty"`
	Supports         map[Timeframe]null.Float `json:"supports,omitempty"`
	SupportDistances map[Timeframe]null.Float `json:"support_distances,omitempty"`
	IsTripleUp       bool                     `json:"is_triple_up"`
	IsTripleDown     bool                     `json:"is_triple_down"`
	CMP              null.Float               `json:"cmp"`
	CMPLabel         string                   `json:"cmp_label,omitempty"`
	CMPDirection     Direction                `json:"cmp_direction,omitempty"`
	CMPChangePct     null.Float               `json:"cmp_change_pct"`
	YesterdayClose   null.Float               `json:"yesterday_close"`
	DailySupport     null.Float               `json:"daily_support"`
	DailySupportPct  null.Float               `json:"daily_support_pct"`
	BiggestTrend     *BiggestTrend            `json:"biggest_trend"`
	InitialTrend     *InitialTrend            `json:"initial_trend"`
	MaxDistance      null.Float               `json:"max_distance"`
	Scores           *ScoreBreakdown          `json:"scores,omitempty"`
	Fundamentals     *Fundamentals            `json:"fundamentals,omitempty"`
	Upside           null.Float               `json:"upside"`
	TwoYearHighPct   null.Float               `json:"two_yr_high_pct"`
	Indicators       TechnicalIndicators      `json:"-"`
}

// MarshalJSON lays the indicators and the headline fundamentals out as
// top-level keys, next to the nested fundamentals object.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	type plain AnalysisResult
	out := struct {
		plain
		TechnicalIndicators
		TargetPrice    null.Float  `json:"target_price"`
		AnalystCount   null.Int    `json:"analyst_count"`
		MarketCapTKC   null.Float  `json:"market_cap_tkc"`
		Sector         null.String `json:"sector"`
		Industry       null.String `json:"industry"`
		InstHoldingPct null.String `json:"inst_holding_pct"`
	}{plain: plain(r), TechnicalIndicators: r.Indicators}
	if f := r.Fundamentals; f != nil {
		out.TargetPrice = f.TargetPrice
		out.AnalystCount = f.AnalystCount
		out.MarketCapTKC = f.MarketCapTKC
		out.Sector = f.Sector
		out.Industry = f.Industry
		if f.InstHoldingPct != "" {
			out.InstHoldingPct = null.StringFrom(f.InstHoldingPct)
		}
	}
	return json.Marshal(out)
}

// TotalScore returns the composite total, or -999 when the evaluation produced no scores.
func (r AnalysisResult) TotalScore() int {
	if r.Scores == nil {
		return -999
	}
	return r.Scores.Total
}

// Sector returns the sector name, empty when unknown.
func (r AnalysisResult) Sector() string {
	if r.Fundamentals == nil {
		return ""
	}
	return r.Fundamentals.Sector.ValueOrZero()
}

// Industry returns the industry name, empty when unknown.
func (r AnalysisResult) Industry() string {
	if r.Fundamentals == nil {
		return ""
	}
	return r.Fundamentals.Industry.ValueOrZero()
}
