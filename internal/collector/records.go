package collector

import (
	"time"

	"github.com/rs/zerolog/log"

	"TrendSentinel/internal/model"
)

// candleRecord is the cached form of a candle.
type candleRecord struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	Close     float64 `json:"close"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    float64 `json:"volume,omitempty"`
}

func toRecords(candles []model.Candle) []candleRecord {
	recs := make([]candleRecord, len(candles))
	for i, c := range candles {
		recs[i] = candleRecord{
			Timestamp: c.Time.Format(time.RFC3339),
			Open:      c.Open,
			Close:     c.Close,
			High:      c.High,
			Low:       c.Low,
			Volume:    c.Volume,
		}
	}
	return recs
}

// fromRecords decodes cached candles. A timestamp that fails to parse leaves
// the candle's Time zero; scoping then falls back to its calendar-only rules.
func fromRecords(recs []candleRecord, symbol string, tf model.Timeframe) []model.Candle {
	candles := make([]model.Candle, len(recs))
	bad := 0
	for i, r := range recs {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			bad++
		}
		candles[i] = model.Candle{Time: ts, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume}
	}
	if bad > 0 {
		log.Warn().Str("symbol", symbol).Str("timeframe", string(tf)).Int("count", bad).Msg("unparseable candle timestamps")
	}
	return candles
}
