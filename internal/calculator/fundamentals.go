package calculator

import (
	"fmt"

	"github.com/guregu/null/v6"

	"TrendSentinel/internal/model"
)

// NormalizeFundamentals converts raw ratios into the display units: ROE and
// growth as whole percents, dividend yield as a percent, net income in Rs crore
// and market cap in Rs thousand crore.
func NormalizeFundamentals(raw model.RawFundamentals, instHolding string) model.Fundamentals {
	f := model.Fundamentals{
		Sector:              nonEmpty(raw.Sector),
		Industry:            nonEmpty(raw.Industry),
		ROE:                 scale(raw.ReturnOnEquity, 100, 0),
		PE:                  scale(raw.TrailingPE, 1, 0),
		PB:                  scale(raw.PriceToBook, 1, 1),
		DE:                  scale(raw.DebtToEquity, 1, 0),
		RevenueGrowth:       scale(raw.RevenueGrowth, 100, 0),
		EarningsGrowth:      scale(raw.EarningsGrowth, 100, 0),
		TargetPrice:         raw.TargetMeanPrice,
		InstHoldingPct:      instHolding,
		AnalystCount:        raw.AnalystOpinions,
		DividendYield:       scale(raw.DividendYield, 100, 2),
		NetIncomeCr:         scale(raw.NetIncomeToCommon, 1e-7, 2),
		EnterpriseToEBITDA:  scale(raw.EnterpriseToEBITDA, 1, 2),
		EnterpriseToRevenue: scale(raw.EnterpriseToRevenue, 1, 2),
		MarketCapTKC:        scale(raw.MarketCap, 1e-10, 0),
	}
	if f.InstHoldingPct == "" {
		f.InstHoldingPct = model.InstitutionalNA
	}
	return f
}

// InstitutionalHolding formats a held-by-institutions fraction as a percent
// string with two decimals, or "NA".
func InstitutionalHolding(fraction null.Float) string {
	if !fraction.Valid {
		return model.InstitutionalNA
	}
	return fmt.Sprintf("%.2f", fraction.Float64*100)
}

func scale(v null.Float, factor float64, places int32) null.Float {
	if !v.Valid {
		return v
	}
	return null.FloatFrom(Round(v.Float64*factor, places))
}

func nonEmpty(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}
