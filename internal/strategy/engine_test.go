package strategy

import (
	"testing"

	"TrendSentinel/internal/model"
)

func dirs(m, w, d, h, q model.Direction) map[model.Timeframe]model.Direction {
	return map[model.Timeframe]model.Direction{
		model.Monthly:    m,
		model.Weekly:     w,
		model.Daily:      d,
		model.Hourly:     h,
		model.FifteenMin: q,
	}
}

func TestEvaluate_AllUp(t *testing.T) {
	in := Inputs{
		Directions:   dirs(model.Up, model.Up, model.Up, model.Up, model.Up),
		CMP:          110,
		DailySupport: 100,
		HasSupport:   true,
		Biggest:      model.TrendBlock{Direction: model.Up, Power: 12},
		HasBiggest:   true,
		Opening:      model.Candle{Open: 100, Close: 103},
		HasOpening:   true,
	}
	s := Evaluate(in)
	if s.Base != 500 {
		t.Errorf("expected base 500, got %d", s.Base)
	}
	if s.Crossover != 100 || s.Biggest != 100 || s.Initial != 100 {
		t.Errorf("expected all confirmations, got cmp=%d biggest=%d initial=%d", s.Crossover, s.Biggest, s.Initial)
	}
	if s.Total != 800 {
		t.Errorf("expected total 800, got %d", s.Total)
	}
	if !s.TripleUp || s.TripleDown {
		t.Error("expected triple up only")
	}
	if s.CrossoverLabel != LabelYes || s.CrossoverDirection != model.Up {
		t.Errorf("unexpected crossover %s/%s", s.CrossoverLabel, s.CrossoverDirection)
	}
	if len(s.Factors) != 4 {
		t.Fatalf("expected 4 factors, got %d", len(s.Factors))
	}
}

func TestEvaluate_AllDown(t *testing.T) {
	in := Inputs{
		Directions:   dirs(model.Down, model.Down, model.Down, model.Down, model.Down),
		CMP:          90,
		DailySupport: 100,
		HasSupport:   true,
		Biggest:      model.TrendBlock{Direction: model.Down},
		HasBiggest:   true,
		Opening:      model.Candle{Open: 100, Close: 97},
		HasOpening:   true,
	}
	s := Evaluate(in)
	if s.Total != -800 {
		t.Errorf("expected total -800, got %d", s.Total)
	}
	if s.CrossoverLabel != LabelYes || s.CrossoverDirection != model.Down {
		t.Errorf("unexpected crossover %s/%s", s.CrossoverLabel, s.CrossoverDirection)
	}
}

func TestEvaluate_TripleUpPriceBelowSupport(t *testing.T) {
	in := Inputs{
		Directions:   dirs(model.Up, model.Up, model.Up, model.Down, model.Down),
		CMP:          95,
		DailySupport: 100,
		HasSupport:   true,
	}
	s := Evaluate(in)
	if s.Base != 100 {
		t.Errorf("expected base 100, got %d", s.Base)
	}
	if s.Crossover != 0 || s.CrossoverLabel != LabelNo || s.CrossoverDirection != model.Down {
		t.Errorf("unexpected crossover %d %s/%s", s.Crossover, s.CrossoverLabel, s.CrossoverDirection)
	}
}

func TestEvaluate_NoTripleNoConfirmations(t *testing.T) {
	in := Inputs{
		Directions:   dirs(model.Up, model.Down, model.Up, model.Up, model.Up),
		CMP:          110,
		DailySupport: 100,
		HasSupport:   true,
		Biggest:      model.TrendBlock{Direction: model.Up},
		HasBiggest:   true,
		Opening:      model.Candle{Open: 100, Close: 101},
		HasOpening:   true,
	}
	s := Evaluate(in)
	if s.TripleUp || s.TripleDown {
		t.Error("expected no triple alignment")
	}
	if s.Total != s.Base || s.Base != 300 {
		t.Errorf("expected only base 300, got base=%d total=%d", s.Base, s.Total)
	}
	if s.CrossoverDirection != "" {
		t.Errorf("expected no crossover direction, got %s", s.CrossoverDirection)
	}
}

func TestEvaluate_UnknownContributesZero(t *testing.T) {
	in := Inputs{Directions: dirs(model.Unknown, model.Up, model.Up, model.Unknown, model.Down)}
	s := Evaluate(in)
	if s.Base != 100 {
		t.Errorf("expected base 100, got %d", s.Base)
	}

	s = Evaluate(Inputs{})
	if s.Total != 0 {
		t.Errorf("expected total 0 for empty inputs, got %d", s.Total)
	}
}

func TestScoreInitial_DojiAndDisagreement(t *testing.T) {
	up := dirs(model.Up, model.Up, model.Up, model.Up, model.Up)
	doji := Evaluate(Inputs{Directions: up, Opening: model.Candle{Open: 100, Close: 100}, HasOpening: true})
	if doji.Initial != 0 {
		t.Errorf("expected doji to score 0, got %d", doji.Initial)
	}
	red := Evaluate(Inputs{Directions: up, Opening: model.Candle{Open: 100, Close: 99}, HasOpening: true})
	if red.Initial != 0 {
		t.Errorf("expected red opening under triple up to score 0, got %d", red.Initial)
	}
}

func TestInitialDirection(t *testing.T) {
	tests := []struct {
		c    model.Candle
		dir  model.Direction
		want bool
	}{
		{model.Candle{Open: 1, Close: 2}, model.Up, true},
		{model.Candle{Open: 2, Close: 1}, model.Down, true},
		{model.Candle{Open: 1, Close: 1}, "", false},
	}
	for _, tt := range tests {
		dir, ok := InitialDirection(tt.c)
		if dir != tt.dir || ok != tt.want {
			t.Errorf("%+v: expected %s/%v, got %s/%v", tt.c, tt.dir, tt.want, dir, ok)
		}
	}
}
