package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TrendSentinel/internal/model"
)

func oc(pairs ...float64) []model.Candle {
	out := make([]model.Candle, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Candle{Open: pairs[i], Close: pairs[i+1]})
	}
	return out
}

// dalbharat is a 15-minute session with one strong sell-off between two green candles.
func dalbharat() []model.Candle {
	return oc(
		2132.90, 2147.50,
		2147.30, 2146.40,
		2148.30, 2122.30,
		2123.70, 2118.80,
		2120.10, 2119.10,
		2120.00, 2122.70,
	)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		candles []model.Candle
		want    model.Direction
		g1, r1  int
		r2, g2  int
	}{
		{"empty", nil, model.Unknown, -1, -1, -1, -1},
		{"anchor without reversal", oc(100, 95, 96, 101), model.Up, 1, 0, -1, -1},
		{"anchor then reversal", oc(100, 95, 96, 101, 101, 94), model.Down, 1, 0, 2, 1},
		{"red after anchor holds", oc(100, 95, 96, 101, 101, 99), model.Up, 1, 0, -1, -1},
		{"anchor found on earlier green", oc(100, 95, 95, 102, 110, 108, 108, 109), model.Up, 1, 0, -1, -1},
		{"reversal against later green", oc(100, 95, 96, 101, 101, 100, 100, 103, 103, 99), model.Down, 3, 2, 4, 3},
		{"fixture session", dalbharat(), model.Up, 5, 4, -1, -1},
		{"no anchor net down", oc(110, 105, 105, 100, 100, 98), model.Down, -1, -1, -1, -1},
		{"no anchor net up", oc(100, 101, 101, 103, 103, 104), model.Up, -1, -1, -1, -1},
		{"no anchor flat is up", oc(100, 99, 99, 100, 100, 90), model.Up, -1, -1, -1, -1},
		{"green fails to clear red open", oc(110, 100, 100, 105), model.Down, -1, -1, -1, -1},
		{"single green", oc(100, 101), model.Up, -1, -1, -1, -1},
		{"single red", oc(101, 100), model.Down, -1, -1, -1, -1},
		{"single doji", oc(100, 100), model.Down, -1, -1, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Detect(tt.candles)
			assert.Equal(t, tt.want, p.Direction)
			assert.Equal(t, tt.g1, p.AnchorGreen, "g1")
			assert.Equal(t, tt.r1, p.AnchorRed, "r1")
			assert.Equal(t, tt.r2, p.ReversalRed, "r2")
			assert.Equal(t, tt.g2, p.ReversalGreen, "g2")
		})
	}
}

// The reversal's GREEN reference may be the anchor itself.
func TestDetect_ReversalReferenceIsAnchor(t *testing.T) {
	p := Detect(oc(100, 95, 96, 101, 100, 99, 99, 90))
	assert.Equal(t, model.Down, p.Direction)
	assert.Equal(t, 1, p.AnchorGreen)
	assert.Equal(t, 3, p.ReversalRed)
	assert.Equal(t, p.AnchorGreen, p.ReversalGreen)
	assert.True(t, p.HasAnchor())
	assert.True(t, p.HasReversal())
}

func TestSupportPrice(t *testing.T) {
	price, ok := SupportPrice(dalbharat(), model.Up)
	assert.True(t, ok)
	assert.Equal(t, 2120.00, price)

	price, ok = SupportPrice(dalbharat(), model.Down)
	assert.True(t, ok)
	assert.Equal(t, 2120.10, price)

	_, ok = SupportPrice(oc(100, 101, 101, 102), model.Down)
	assert.False(t, ok)

	_, ok = SupportPrice(nil, model.Up)
	assert.False(t, ok)
}
