package batch

import (
	"encoding/json"
	"sort"

	"github.com/guregu/null/v6"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

const (
	TopSectors    = 5
	TopIndustries = 10
)

// GroupMember is one stock's contribution to a sector or industry trend.
type GroupMember struct {
	Symbol              string     `json:"symbol"`
	TripleScore         int        `json:"triple_score"`
	FullyUp             bool       `json:"is_fully_up"`
	FullyDown           bool       `json:"is_fully_down"`
	DividendYield       null.Float `json:"dividend_yield"`
	EnterpriseToEBITDA  null.Float `json:"enterprise_to_ebitda"`
	EnterpriseToRevenue null.Float `json:"enterprise_to_revenue"`
}

// Group kinds; each names the JSON key that carries a trend's group name.
const (
	GroupSector   = "sector"
	GroupIndustry = "industry"
)

// GroupTrend aggregates the triple scores of the stocks in one group.
type GroupTrend struct {
	Group          string        `json:"-"`
	Name           string        `json:"-"`
	MedianScore    float64       `json:"median_score"`
	StockCount     int           `json:"stock_count"`
	FullyUpCount   int           `json:"fully_up_count"`
	PctFullyUp     float64       `json:"pct_fully_up"`
	FullyDownCount int           `json:"fully_down_count"`
	PctFullyDown   float64       `json:"pct_fully_down"`
	Stocks         []GroupMember `json:"stocks"`
}

// MarshalJSON keys the group name by its kind: {"sector": "Banks", ...}.
func (g GroupTrend) MarshalJSON() ([]byte, error) {
	type plain GroupTrend
	out := struct {
		Sector   *string `json:"sector,omitempty"`
		Industry *string `json:"industry,omitempty"`
		plain
	}{plain: plain(g)}
	if g.Group == GroupIndustry {
		out.Industry = &g.Name
	} else {
		out.Sector = &g.Name
	}
	return json.Marshal(out)
}

// Trends lists the strongest groups in each direction.
type Trends struct {
	Up   []GroupTrend `json:"up_trends"`
	Down []GroupTrend `json:"down_trends"`
}

// SectorTrends groups results by sector and keeps the top five each way.
func SectorTrends(results []model.AnalysisResult) Trends {
	return groupTrends(results, GroupSector, model.AnalysisResult.Sector, TopSectors)
}

// IndustryTrends groups results by industry and keeps the top ten each way.
func IndustryTrends(results []model.AnalysisResult) Trends {
	return groupTrends(results, GroupIndustry, model.AnalysisResult.Industry, TopIndustries)
}

// TripleScore sums ±100 over the monthly, weekly and daily directions.
func TripleScore(udts map[model.Timeframe]model.Direction) int {
	score := 0
	for _, tf := range model.TripleTimeframes {
		score += udts[tf].Score()
	}
	return score
}

func groupTrends(results []model.AnalysisResult, group string, groupOf func(model.AnalysisResult) string, top int) Trends {
	groups := make(map[string][]GroupMember)
	var order []string
	for _, res := range results {
		name := groupOf(res)
		if name == "" || res.Error != "" || len(res.UDTS) == 0 {
			continue
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		m := GroupMember{
			Symbol:      res.Symbol,
			TripleScore: TripleScore(res.UDTS),
			FullyUp:     res.IsTripleUp,
			FullyDown:   res.IsTripleDown,
		}
		if f := res.Fundamentals; f != nil {
			m.DividendYield = f.DividendYield
			m.EnterpriseToEBITDA = f.EnterpriseToEBITDA
			m.EnterpriseToRevenue = f.EnterpriseToRevenue
		}
		groups[name] = append(groups[name], m)
	}

	var up, down []GroupTrend
	for _, name := range order {
		g := summarize(name, groups[name])
		g.Group = group
		switch {
		case g.MedianScore > 0:
			up = append(up, g)
		case g.MedianScore < 0:
			down = append(down, g)
		}
	}

	sort.SliceStable(up, func(i, j int) bool {
		if up[i].MedianScore != up[j].MedianScore {
			return up[i].MedianScore > up[j].MedianScore
		}
		return up[i].PctFullyUp > up[j].PctFullyUp
	})
	sort.SliceStable(down, func(i, j int) bool {
		if down[i].MedianScore != down[j].MedianScore {
			return down[i].MedianScore < down[j].MedianScore
		}
		return down[i].PctFullyDown > down[j].PctFullyDown
	})

	return Trends{Up: head(up, top), Down: head(down, top)}
}

func summarize(name string, members []GroupMember) GroupTrend {
	scores := make([]int, len(members))
	g := GroupTrend{Name: name, StockCount: len(members), Stocks: members}
	for i, m := range members {
		scores[i] = m.TripleScore
		if m.FullyUp {
			g.FullyUpCount++
		}
		if m.FullyDown {
			g.FullyDownCount++
		}
	}
	g.MedianScore = calculator.Round(median(scores), 2)
	n := float64(len(members))
	g.PctFullyUp = calculator.Round(float64(g.FullyUpCount)/n*100, 2)
	g.PctFullyDown = calculator.Round(float64(g.FullyDownCount)/n*100, 2)
	return g
}

func median(v []int) float64 {
	s := append([]int(nil), v...)
	sort.Ints(s)
	n := len(s)
	if n%2 == 0 {
		return float64(s[n/2-1]+s[n/2]) / 2
	}
	return float64(s[n/2])
}

func head(g []GroupTrend, n int) []GroupTrend {
	if len(g) > n {
		return g[:n]
	}
	if g == nil {
		return []GroupTrend{}
	}
	return g
}
