package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func trending(n int, start, step float64) []model.Candle {
	out := make([]model.Candle, n)
	p := start
	for i := range out {
		out[i] = model.Candle{Open: p, High: p + step + 1, Low: p - 1, Close: p + step}
		p += step
	}
	return out
}

func TestRSI(t *testing.T) {
	assert.False(t, RSI(trending(10, 100, 1), 14).Valid)

	up := RSI(trending(40, 100, 1), 14)
	require.True(t, up.Valid)
	assert.InDelta(t, 100, up.Float64, 1e-6)

	down := RSI(trending(40, 200, -1), 14)
	require.True(t, down.Valid)
	assert.InDelta(t, 0, down.Float64, 1e-6)
}

func TestADX(t *testing.T) {
	assert.False(t, ADX(trending(20, 100, 1), 14).Valid)

	adx := ADX(trending(60, 100, 2), 14)
	require.True(t, adx.Valid)
	assert.GreaterOrEqual(t, adx.Float64, 0.0)
	assert.LessOrEqual(t, adx.Float64, 100.0)
}

func TestBollingerPctB(t *testing.T) {
	assert.False(t, BollingerPctB(trending(10, 100, 1), 20, 2).Valid)

	flat := make([]model.Candle, 30)
	for i := range flat {
		flat[i] = model.Candle{Open: 100, High: 100, Low: 100, Close: 100}
	}
	assert.False(t, BollingerPctB(flat, 20, 2).Valid)

	pct := BollingerPctB(trending(30, 100, 1), 20, 2)
	require.True(t, pct.Valid)
	assert.Greater(t, pct.Float64, 50.0)
}

func TestSupertrend(t *testing.T) {
	assert.Nil(t, Supertrend(trending(5, 100, 1), 10, 3))

	rising := trending(60, 100, 2)
	st := Supertrend(rising, 10, 3)
	require.NotNil(t, st)
	assert.Equal(t, model.Up, st.Direction)
	assert.Less(t, st.Level, rising[len(rising)-1].Close)

	falling := trending(60, 300, -2)
	st = Supertrend(falling, 10, 3)
	require.NotNil(t, st)
	assert.Equal(t, model.Down, st.Direction)
	assert.False(t, math.IsNaN(st.Level))
}
