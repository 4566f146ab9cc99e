package batch

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendSentinel/internal/model"
)

func stock(symbol, sector, industry string, m, w, d model.Direction) model.AnalysisResult {
	return model.AnalysisResult{
		Symbol: symbol,
		UDTS: map[model.Timeframe]model.Direction{
			model.Monthly: m, model.Weekly: w, model.Daily: d,
		},
		IsTripleUp:   m == model.Up && w == model.Up && d == model.Up,
		IsTripleDown: m == model.Down && w == model.Down && d == model.Down,
		Fundamentals: &model.Fundamentals{
			Sector:        null.StringFrom(sector),
			Industry:      null.StringFrom(industry),
			DividendYield: null.FloatFrom(1.2),
		},
	}
}

func TestSectorTrends(t *testing.T) {
	up, down := model.Up, model.Down
	results := []model.AnalysisResult{
		stock("A", "Tech", "IT", up, up, up),                // 300
		stock("B", "Tech", "IT", up, up, down),              // 100
		stock("C", "Banks", "Bank", down, down, down),       // -300
		stock("D", "Banks", "Bank", down, up, down),         // -100
		stock("E", "Banks", "NBFC", down, down, down),       // -300
		stock("F", "Energy", "Oil", up, down, up),           // 100
		stock("G", "Flat", "Misc", up, down, model.Unknown), // 0
		{Symbol: "ERR", Error: "boom"},
	}

	tr := SectorTrends(results)
	require.Len(t, tr.Up, 2)
	assert.Equal(t, "Tech", tr.Up[0].Name)
	assert.Equal(t, 200.0, tr.Up[0].MedianScore)
	assert.Equal(t, 50.0, tr.Up[0].PctFullyUp)
	assert.Equal(t, "Energy", tr.Up[1].Name)

	require.Len(t, tr.Down, 1)
	assert.Equal(t, "Banks", tr.Down[0].Name)
	assert.Equal(t, -300.0, tr.Down[0].MedianScore)
	assert.Equal(t, 3, tr.Down[0].StockCount)
	assert.Equal(t, 66.67, tr.Down[0].PctFullyDown)
	assert.Equal(t, 1.2, tr.Down[0].Stocks[0].DividendYield.Float64)

	ind := IndustryTrends(results)
	require.Len(t, ind.Down, 2)
	assert.Equal(t, "NBFC", ind.Down[0].Name)
	assert.Equal(t, "Bank", ind.Down[1].Name)
	assert.Equal(t, -200.0, ind.Down[1].MedianScore)
}

func TestSectorTrends_TopLimitAndTieBreak(t *testing.T) {
	var results []model.AnalysisResult
	for i := 0; i < 8; i++ {
		sector := fmt.Sprintf("S%d", i)
		results = append(results, stock(sector, sector, "x", model.Up, model.Up, model.Unknown))
	}
	// Same median of 200, but half the stocks are fully up.
	results = append(results,
		stock("Za", "Z", "x", model.Up, model.Up, model.Up),
		stock("Zb", "Z", "x", model.Up, model.Up, model.Down),
	)

	tr := SectorTrends(results)
	require.Len(t, tr.Up, TopSectors)
	assert.Equal(t, "Z", tr.Up[0].Name)
	assert.Equal(t, "S0", tr.Up[1].Name)
	assert.Empty(t, tr.Down)
	assert.NotNil(t, tr.Down)
}

func TestTripleScore(t *testing.T) {
	assert.Equal(t, 0, TripleScore(nil))
	assert.Equal(t, -100, TripleScore(map[model.Timeframe]model.Direction{
		model.Monthly: model.Down, model.Weekly: model.Unknown, model.Hourly: model.Up,
	}))
}

func TestGroupTrend_JSONKeyedByGroup(t *testing.T) {
	results := []model.AnalysisResult{
		stock("HDFCBANK", "Financial Services", "Banks", model.Up, model.Up, model.Up),
	}

	raw, err := json.Marshal(SectorTrends(results))
	require.NoError(t, err)
	var sectors map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw, &sectors))
	require.Len(t, sectors["up_trends"], 1)
	assert.Equal(t, "Financial Services", sectors["up_trends"][0]["sector"])
	assert.Equal(t, 300.0, sectors["up_trends"][0]["median_score"])
	assert.NotContains(t, sectors["up_trends"][0], "industry")
	assert.NotContains(t, sectors["up_trends"][0], "name")

	raw, err = json.Marshal(IndustryTrends(results))
	require.NoError(t, err)
	var industries map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw, &industries))
	require.Len(t, industries["up_trends"], 1)
	assert.Equal(t, "Banks", industries["up_trends"][0]["industry"])
	assert.NotContains(t, industries["up_trends"][0], "sector")
	assert.Empty(t, industries["down_trends"])
}
