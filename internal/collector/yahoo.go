package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// chartWindow is the interval and lookback requested per timeframe.
var chartWindow = map[model.Timeframe]struct{ Interval, Range string }{
	model.Monthly:    {"1mo", "3y"},
	model.Weekly:     {"1wk", "1y"},
	model.Daily:      {"1d", "3mo"},
	model.Hourly:     {"1h", "30d"},
	model.FifteenMin: {"15m", "5d"},
}

const summaryModules = "assetProfile,financialData,defaultKeyStatistics,summaryDetail"

// YahooFetcher implements Fetcher using the Yahoo Finance public API.
type YahooFetcher struct {
	Client     *http.Client
	ChartURL   string
	SummaryURL string
	Suffix     string // exchange suffix appended to symbols
}

// NewYahooFetcher creates a new Yahoo Finance fetcher for NSE listings.
func NewYahooFetcher(chartURL, summaryURL, proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		Client:     newHTTPClient(proxyURL),
		ChartURL:   strings.TrimRight(chartURL, "/"),
		SummaryURL: strings.TrimRight(summaryURL, "/"),
		Suffix:     ".NS",
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol adds the exchange suffix. Index tickers ("^NSEI") go through
// unchanged.
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if !strings.HasPrefix(symbol, "^") {
		symbol += f.Suffix
	}
	return url.PathEscape(symbol)
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(vals []interface{}, i int) interface{} {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("yahoo: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// FetchCandles returns the bars of one timeframe, oldest first, with prices
// rounded to two decimals.
func (f *YahooFetcher) FetchCandles(ctx context.Context, symbol string, tf model.Timeframe) ([]model.Candle, error) {
	w, ok := chartWindow[tf]
	if !ok {
		return nil, fmt.Errorf("yahoo: unsupported timeframe %q", tf)
	}
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s", f.ChartURL, f.yahooSymbol(symbol), w.Interval, w.Range)
	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s %s: %w", symbol, tf, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	candles := make([]model.Candle, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(at(quote.Open, i))
		h := toFloat(at(quote.High, i))
		l := toFloat(at(quote.Low, i))
		c := toFloat(at(quote.Close, i))
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		candles = append(candles, model.Candle{
			Time:   time.Unix(ts, 0),
			Open:   calculator.Round(o, 2),
			High:   calculator.Round(h, 2),
			Low:    calculator.Round(l, 2),
			Close:  calculator.Round(c, 2),
			Volume: toFloat(at(quote.Volume, i)),
		})
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} number wrapper.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) nullFloat() null.Float {
	if v.Raw == nil {
		return null.Float{}
	}
	return null.FloatFrom(*v.Raw)
}

func (v rawValue) nullInt() null.Int {
	if v.Raw == nil {
		return null.Int{}
	}
	return null.IntFrom(int64(*v.Raw))
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
			FinancialData struct {
				ReturnOnEquity          rawValue `json:"returnOnEquity"`
				DebtToEquity            rawValue `json:"debtToEquity"`
				RevenueGrowth           rawValue `json:"revenueGrowth"`
				EarningsGrowth          rawValue `json:"earningsGrowth"`
				TargetMeanPrice         rawValue `json:"targetMeanPrice"`
				NumberOfAnalystOpinions rawValue `json:"numberOfAnalystOpinions"`
			} `json:"financialData"`
			DefaultKeyStatistics struct {
				PriceToBook             rawValue `json:"priceToBook"`
				NetIncomeToCommon       rawValue `json:"netIncomeToCommon"`
				EnterpriseToEbitda      rawValue `json:"enterpriseToEbitda"`
				EnterpriseToRevenue     rawValue `json:"enterpriseToRevenue"`
				HeldPercentInstitutions rawValue `json:"heldPercentInstitutions"`
			} `json:"defaultKeyStatistics"`
			SummaryDetail struct {
				TrailingPE    rawValue `json:"trailingPE"`
				DividendYield rawValue `json:"dividendYield"`
				MarketCap     rawValue `json:"marketCap"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchFundamentals returns the unnormalised fundamentals of symbol.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string) (model.RawFundamentals, error) {
	u := fmt.Sprintf("%s/%s?modules=%s", f.SummaryURL, f.yahooSymbol(symbol), summaryModules)
	body, err := f.get(ctx, u)
	if err != nil {
		return model.RawFundamentals{}, err
	}

	var s yahooSummary
	if err := json.Unmarshal(body, &s); err != nil {
		return model.RawFundamentals{}, fmt.Errorf("yahoo decode summary: %w", err)
	}
	if s.QuoteSummary.Error != nil {
		return model.RawFundamentals{}, fmt.Errorf("yahoo api error: %s", s.QuoteSummary.Error.Description)
	}
	if len(s.QuoteSummary.Result) == 0 {
		return model.RawFundamentals{}, fmt.Errorf("yahoo %s summary: %w", symbol, ErrNoData)
	}

	r := s.QuoteSummary.Result[0]
	return model.RawFundamentals{
		Sector:              r.AssetProfile.Sector,
		Industry:            r.AssetProfile.Industry,
		ReturnOnEquity:      r.FinancialData.ReturnOnEquity.nullFloat(),
		TrailingPE:          r.SummaryDetail.TrailingPE.nullFloat(),
		PriceToBook:         r.DefaultKeyStatistics.PriceToBook.nullFloat(),
		DebtToEquity:        r.FinancialData.DebtToEquity.nullFloat(),
		RevenueGrowth:       r.FinancialData.RevenueGrowth.nullFloat(),
		EarningsGrowth:      r.FinancialData.EarningsGrowth.nullFloat(),
		TargetMeanPrice:     r.FinancialData.TargetMeanPrice.nullFloat(),
		HeldPctInstitutions: r.DefaultKeyStatistics.HeldPercentInstitutions.nullFloat(),
		AnalystOpinions:     r.FinancialData.NumberOfAnalystOpinions.nullInt(),
		DividendYield:       r.SummaryDetail.DividendYield.nullFloat(),
		NetIncomeToCommon:   r.DefaultKeyStatistics.NetIncomeToCommon.nullFloat(),
		EnterpriseToEBITDA:  r.DefaultKeyStatistics.EnterpriseToEbitda.nullFloat(),
		EnterpriseToRevenue: r.DefaultKeyStatistics.EnterpriseToRevenue.nullFloat(),
		MarketCap:           r.SummaryDetail.MarketCap.nullFloat(),
	}, nil
}
