package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"RELIANCE", true},
		{"M&M", true},
		{"", false},
		{"  ", false},
		{"DUMMYSTOCK", false},
		{"TESTCO", false},
		{"NIFTY 50", false},
		{"NIFTY-500", false},
		{"NIFTYBANK", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidSymbol(tt.symbol), tt.symbol)
	}
}

func TestFallbackSymbols(t *testing.T) {
	n50 := FallbackSymbols(ListNifty50)
	assert.Len(t, n50, ExpectedSize(ListNifty50))
	assert.Contains(t, n50, "RELIANCE")

	n500 := FallbackSymbols(ListNifty500)
	assert.GreaterOrEqual(t, len(n500), ExpectedSize(ListNifty500)*9/10)
	for _, s := range n500 {
		assert.True(t, IsValidSymbol(s), s)
	}
}

func TestParseConstituents(t *testing.T) {
	csv := "\ufeffCompany Name,Industry,Symbol,Series,ISIN Code\n" +
		"Reliance Industries Ltd.,Oil Gas,RELIANCE,EQ,INE002A01018\n" +
		"Tata Consultancy Services Ltd.,IT,tcs,EQ,INE467B01029\n" +
		"Dup,IT,TCS,EQ,X\n" +
		"Index,Index,NIFTY 50,EQ,X\n" +
		"Short row\n"

	got, err := parseConstituents(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"RELIANCE", "TCS"}, got)

	_, err = parseConstituents(strings.NewReader("Name,Code\nA,B\n"))
	assert.Error(t, err)

	_, err = parseConstituents(strings.NewReader("Symbol\n"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNSEFetcher_FetchConstituents(t *testing.T) {
	var homeHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			homeHits++
			http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "x"})
		case "/n50.csv":
			w.Write([]byte("Symbol\nINFY\nHDFCBANK\n"))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	f := NewNSEFetcher(srv.URL+"/n50.csv", srv.URL+"/n500.csv", "")
	f.HomeURL = srv.URL + "/"

	got, err := f.FetchConstituents(context.Background(), ListNifty50)
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "HDFCBANK"}, got)
	assert.Equal(t, 1, homeHits)

	_, err = f.FetchConstituents(context.Background(), ListNifty500)
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = f.FetchConstituents(context.Background(), "sensex")
	assert.Error(t, err)
}
