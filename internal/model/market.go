package model

import "time"

// Color is the body color of a candle.
type Color string

const (
	Green   Color = "GREEN"
	Red     Color = "RED"
	Neither Color = "NEITHER"
)

// Candle represents a single OHLC bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Classify returns GREEN when close > open, RED when close < open, NEITHER otherwise.
func Classify(c Candle) Color {
	switch {
	case c.Close > c.Open:
		return Green
	case c.Close < c.Open:
		return Red
	default:
		return Neither
	}
}

func (c Candle) IsGreen() bool { return c.Close > c.Open }
func (c Candle) IsRed() bool   { return c.Close < c.Open }

// Timeframe identifies the bar interval of a series.
type Timeframe string

const (
	Monthly    Timeframe = "monthly"
	Weekly     Timeframe = "weekly"
	Daily      Timeframe = "daily"
	Hourly     Timeframe = "1hour"
	FifteenMin Timeframe = "15min"
)

// Timeframes lists every timeframe in evaluation order.
var Timeframes = []Timeframe{Monthly, Weekly, Daily, Hourly, FifteenMin}

// TripleTimeframes are the timeframes that make up a triple alignment.
var TripleTimeframes = []Timeframe{Monthly, Weekly, Daily}

// ParseTimeframe validates a timeframe name.
func ParseTimeframe(s string) (Timeframe, bool) {
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf, true
		}
	}
	return "", false
}
