package strategy

import (
	"fmt"
	"strings"

	"TrendSentinel/internal/model"
)

const (
	LabelYes = "YES"
	LabelNo  = "NO"
)

// scoreBase sums ±100 per timeframe over all five timeframes.
func scoreBase(dirs map[model.Timeframe]model.Direction) model.FactorScore {
	score := 0
	parts := make([]string, 0, len(model.Timeframes))
	for _, tf := range model.Timeframes {
		d := dirs[tf]
		score += d.Score()
		parts = append(parts, fmt.Sprintf("%s=%s", tf, orUnknown(d)))
	}
	return model.FactorScore{
		Name:       "Base",
		Score:      score,
		Commentary: strings.Join(parts, " "),
	}
}

// scoreCrossover fires when a triple alignment is confirmed by the current
// price sitting on the right side of the daily support.
func scoreCrossover(in Inputs, up, down bool) (model.FactorScore, string, model.Direction) {
	f := model.FactorScore{Name: "CMP vs daily support"}
	if in.CMP == 0 || !in.HasSupport || in.DailySupport == 0 {
		f.Commentary = "no price or support"
		return f, LabelNo, ""
	}

	var label string
	var dir model.Direction
	switch {
	case up && in.CMP > in.DailySupport:
		f.Score, label, dir = 100, LabelYes, model.Up
	case up:
		label, dir = LabelNo, model.Down
	case down && in.CMP < in.DailySupport:
		f.Score, label, dir = -100, LabelYes, model.Down
	case down:
		label, dir = LabelNo, model.Up
	default:
		f.Commentary = "no triple alignment"
		return f, LabelNo, ""
	}
	f.Commentary = fmt.Sprintf("cmp %.2f, support %.2f", in.CMP, in.DailySupport)
	return f, label, dir
}

// scoreBiggest rewards a biggest 15-minute block that agrees with the triple alignment.
func scoreBiggest(in Inputs, up, down bool) model.FactorScore {
	f := model.FactorScore{Name: "Biggest 15m trend"}
	if !in.HasBiggest {
		f.Commentary = "no session blocks"
		return f
	}
	switch {
	case up && in.Biggest.Direction == model.Up:
		f.Score = 100
	case down && in.Biggest.Direction == model.Down:
		f.Score = -100
	}
	f.Commentary = fmt.Sprintf("%s, power %.2f", in.Biggest.Direction, in.Biggest.Power)
	return f
}

// scoreInitial rewards an opening-range candle whose color agrees with the triple alignment.
func scoreInitial(in Inputs, up, down bool) model.FactorScore {
	f := model.FactorScore{Name: "Opening range"}
	if !in.HasOpening {
		f.Commentary = "no 09:15 candle"
		return f
	}
	switch model.Classify(in.Opening) {
	case model.Green:
		if up {
			f.Score = 100
		}
		f.Commentary = "green"
	case model.Red:
		if down {
			f.Score = -100
		}
		f.Commentary = "red"
	default:
		f.Commentary = "doji"
	}
	return f
}

// InitialDirection is the opening-range trend reported alongside the score:
// UP for a green candle, DOWN for a red one, false otherwise.
func InitialDirection(c model.Candle) (model.Direction, bool) {
	switch model.Classify(c) {
	case model.Green:
		return model.Up, true
	case model.Red:
		return model.Down, true
	}
	return "", false
}

func orUnknown(d model.Direction) model.Direction {
	if d == "" {
		return model.Unknown
	}
	return d
}
