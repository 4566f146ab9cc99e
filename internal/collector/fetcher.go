package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"TrendSentinel/internal/model"
)

// ErrRateLimited is returned by fetchers when the upstream throttles requests.
// It is the only error the collector retries.
var ErrRateLimited = errors.New("rate limited")

// ErrNoData is returned when the upstream answers without any usable rows.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol string, tf model.Timeframe) ([]model.Candle, error)
	FetchFundamentals(ctx context.Context, symbol string) (model.RawFundamentals, error)
	Name() string
}

// UniverseFetcher lists the constituents of an index.
type UniverseFetcher interface {
	FetchConstituents(ctx context.Context, list string) ([]string, error)
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
