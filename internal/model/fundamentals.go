package model

import "github.com/guregu/null/v6"

// InstitutionalNA is reported when no institutional holding figure exists.
const InstitutionalNA = "NA"

// Fundamentals is the normalised fundamentals snapshot of a symbol.
type Fundamentals struct {
	Sector              null.String `json:"sector"`
	Industry            null.String `json:"industry"`
	ROE                 null.Float  `json:"roe"`
	PE                  null.Float  `json:"pe"`
	PB                  null.Float  `json:"pb"`
	DE                  null.Float  `json:"de"`
	RevenueGrowth       null.Float  `json:"revenue_growth"`
	EarningsGrowth      null.Float  `json:"earnings_growth"`
	TargetPrice         null.Float  `json:"target_price"`
	InstHoldingPct      string      `json:"inst_holding_pct"`
	AnalystCount        null.Int    `json:"analyst_count"`
	DividendYield       null.Float  `json:"dividend_yield"`
	NetIncomeCr         null.Float  `json:"net_income_to_common"`
	EnterpriseToEBITDA  null.Float  `json:"enterprise_to_ebitda"`
	EnterpriseToRevenue null.Float  `json:"enterprise_to_revenue"`
	MarketCapTKC        null.Float  `json:"market_cap_tkc"`
}

// RawFundamentals carries the unnormalised ratios as returned by the data source.
type RawFundamentals struct {
	Sector              string
	Industry            string
	ReturnOnEquity      null.Float
	TrailingPE          null.Float
	PriceToBook         null.Float
	DebtToEquity        null.Float
	RevenueGrowth       null.Float
	EarningsGrowth      null.Float
	TargetMeanPrice     null.Float
	HeldPctInstitutions null.Float
	AnalystOpinions     null.Int
	DividendYield       null.Float
	NetIncomeToCommon   null.Float
	EnterpriseToEBITDA  null.Float
	EnterpriseToRevenue null.Float
	MarketCap           null.Float
}
