package calculator

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"TrendSentinel/internal/model"
)

func TestNormalizeFundamentals(t *testing.T) {
	raw := model.RawFundamentals{
		Sector:            "Basic Materials",
		ReturnOnEquity:    null.FloatFrom(0.1234),
		TrailingPE:        null.FloatFrom(41.7),
		PriceToBook:       null.FloatFrom(2.46),
		DividendYield:     null.FloatFrom(0.0042),
		NetIncomeToCommon: null.FloatFrom(1.2345e10),
		MarketCap:         null.FloatFrom(4.1e11),
		TargetMeanPrice:   null.FloatFrom(2500),
		AnalystOpinions:   null.IntFrom(21),
	}
	f := NormalizeFundamentals(raw, "")

	assert.Equal(t, "Basic Materials", f.Sector.String)
	assert.False(t, f.Industry.Valid)
	assert.Equal(t, 12.0, f.ROE.Float64)
	assert.Equal(t, 42.0, f.PE.Float64)
	assert.Equal(t, 2.5, f.PB.Float64)
	assert.Equal(t, 0.42, f.DividendYield.Float64)
	assert.Equal(t, 1234.5, f.NetIncomeCr.Float64)
	assert.Equal(t, 41.0, f.MarketCapTKC.Float64)
	assert.Equal(t, 2500.0, f.TargetPrice.Float64)
	assert.Equal(t, int64(21), f.AnalystCount.Int64)
	assert.False(t, f.DE.Valid)
	assert.Equal(t, model.InstitutionalNA, f.InstHoldingPct)
}

func TestInstitutionalHolding(t *testing.T) {
	assert.Equal(t, "NA", InstitutionalHolding(null.Float{}))
	assert.Equal(t, "23.46", InstitutionalHolding(null.FloatFrom(0.23456)))
}
