package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string

	// SymbolMap maps internal symbols to Yahoo tickers.
	SymbolMap map[string]string
}

// NewYahooFetcher creates a fetcher with sane timeouts. symbolMap may be nil.
func NewYahooFetcher(symbolMap map[string]string) *YahooFetcher {
	return &YahooFetcher{
		Client:    &http.Client{Timeout: 30 * time.Second},
		BaseURL:   "https://query1.finance.yahoo.com",
		SymbolMap: symbolMap,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) ticker(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from the Yahoo chart API. Price
// columns arrive as interface{} because nulls appear on halted sessions.
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
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// FetchDaily returns the full daily history (range=max).
func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string) ([]market.Bar, error) {
	return f.fetchChart(ctx, symbol, "1d", "max")
}

// FetchIntraday returns a 5-minute series covering the last trading day.
func (f *YahooFetcher) FetchIntraday(ctx context.Context, symbol string) ([]market.Bar, error) {
	return f.fetchChart(ctx, symbol, "5m", "1d")
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]market.Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.ticker(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo fetch %s: status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: read body: %w", symbol, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: decode: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %s: %s", symbol, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo fetch %s: empty result", symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]market.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		c, ok := toFloat(quote.Close[i])
		if !ok {
			continue // null bar, session gap
		}
		bar := market.Bar{Time: ts * 1000, Close: c}
		if v, ok := toFloat(at(quote.Open, i)); ok {
			bar.Open = v
		} else {
			bar.Open = c
		}
		if v, ok := toFloat(at(quote.High, i)); ok {
			bar.High = v
		} else {
			bar.High = c
		}
		if v, ok := toFloat(at(quote.Low, i)); ok {
			bar.Low = v
		} else {
			bar.Low = c
		}
		if v, ok := toFloat(at(quote.Volume, i)); ok {
			bar.Volume = v
		}
		bars = append(bars, bar)
	}
	return market.Normalize(bars), nil
}

func at(col []interface{}, i int) interface{} {
	if i < len(col) {
		return col[i]
	}
	return nil
}
