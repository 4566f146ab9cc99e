package collector

import (
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
)

const (
	ListNifty50  = "nifty50"
	ListNifty500 = "nifty500"
)

var (
	//go:embed universe/nifty50.txt
	nifty50Fallback string
	//go:embed universe/nifty500.txt
	nifty500Fallback string
)

// indexPatterns identify index rows that appear in some constituent files.
var indexPatterns = []string{"NIFTY500", "NIFTY200", "NIFTY50", "NIFTYJR", "NIFTYMIDCAP", "NIFTYBANK"}

// IsIndexSymbol reports whether symbol names a NIFTY index rather than a stock.
func IsIndexSymbol(symbol string) bool {
	clean := strings.NewReplacer(" ", "", "-", "").Replace(strings.ToUpper(symbol))
	if clean == "" {
		return false
	}
	for _, p := range indexPatterns {
		if strings.Contains(clean, p) {
			return true
		}
	}
	return false
}

// IsValidSymbol rejects empty, placeholder and index symbols.
func IsValidSymbol(symbol string) bool {
	clean := strings.ToUpper(strings.TrimSpace(symbol))
	if clean == "" {
		return false
	}
	if strings.Contains(clean, "DUMMY") || strings.Contains(clean, "TEST") {
		return false
	}
	return !IsIndexSymbol(clean)
}

// FallbackSymbols returns the built-in constituents of list.
func FallbackSymbols(list string) []string {
	raw := nifty500Fallback
	if list == ListNifty50 {
		raw = nifty50Fallback
	}
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if s := strings.TrimSpace(line); IsValidSymbol(s) {
			out = append(out, s)
		}
	}
	return out
}

// ExpectedSize is the nominal constituent count of list.
func ExpectedSize(list string) int {
	if list == ListNifty50 {
		return 50
	}
	return 500
}

// NSEFetcher downloads index constituent CSVs from NSE archives.
type NSEFetcher struct {
	Client  *http.Client
	HomeURL string // visited first to obtain session cookies; optional
	URLs    map[string]string
}

// NewNSEFetcher creates a fetcher with a cookie jar and optional proxy support.
func NewNSEFetcher(nifty50URL, nifty500URL, proxyURL string) *NSEFetcher {
	client := newHTTPClient(proxyURL)
	client.Jar, _ = cookiejar.New(nil)
	return &NSEFetcher{
		Client:  client,
		HomeURL: "https://www.nseindia.com",
		URLs: map[string]string{
			ListNifty50:  nifty50URL,
			ListNifty500: nifty500URL,
		},
	}
}

func (f *NSEFetcher) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/csv,application/csv,text/plain")
	return req, nil
}

// FetchConstituents returns the valid symbols listed in the list's CSV.
func (f *NSEFetcher) FetchConstituents(ctx context.Context, list string) ([]string, error) {
	u, ok := f.URLs[list]
	if !ok {
		return nil, fmt.Errorf("nse: unknown list %q", list)
	}

	if f.HomeURL != "" {
		if req, err := f.newRequest(ctx, f.HomeURL); err == nil {
			if resp, err := f.Client.Do(req); err == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}
	}

	req, err := f.newRequest(ctx, u)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nse fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("nse: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nse fetch: status %d, body: %s", resp.StatusCode, string(body))
	}
	return parseConstituents(resp.Body)
}

func parseConstituents(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("nse csv header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), "Symbol") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("nse csv: no Symbol column in %v", header)
	}

	var symbols []string
	seen := make(map[string]bool)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("nse csv row: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		s := strings.ToUpper(strings.TrimSpace(rec[col]))
		if IsValidSymbol(s) && !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		return nil, ErrNoData
	}
	return symbols, nil
}
