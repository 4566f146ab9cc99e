package model

// Direction is the trend direction of a series or block.
type Direction string

const (
	Up      Direction = "UP"
	Down    Direction = "DOWN"
	Unknown Direction = "UNKNOWN"
)

// Score returns +100 for UP, -100 for DOWN and 0 otherwise.
func (d Direction) Score() int {
	switch d {
	case Up:
		return 100
	case Down:
		return -100
	}
	return 0
}

// NoIndex marks an absent candle index in a DirectionalPattern.
const NoIndex = -1

// DirectionalPattern is the outcome of the UDTS detector. Indices refer to the
// evaluated series and are NoIndex when the corresponding candle was not found.
type DirectionalPattern struct {
	Direction     Direction `json:"direction"`
	AnchorGreen   int       `json:"g1"`
	AnchorRed     int       `json:"r1"`
	ReversalRed   int       `json:"r2"`
	ReversalGreen int       `json:"g2"`
}

func (p DirectionalPattern) HasAnchor() bool   { return p.AnchorGreen != NoIndex }
func (p DirectionalPattern) HasReversal() bool { return p.ReversalRed != NoIndex }

// TrendBlock is a maximal run of candles treated as one directional move.
type TrendBlock struct {
	Candles     []Candle
	Direction   Direction
	Power       float64
	AnchorPrice float64
	Low         float64
	High        float64
}

func (b TrendBlock) First() Candle { return b.Candles[0] }
func (b TrendBlock) Last() Candle  { return b.Candles[len(b.Candles)-1] }
