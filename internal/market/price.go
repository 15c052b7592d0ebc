// Package market resolves daily price changes and scans the stock
// universe for the day's biggest movers.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// PriceSource fetches an ordered series of daily closing prices.
type PriceSource interface {
	Closes(ctx context.Context, symbol string, start, end time.Time) ([]float64, error)
}

const (
	naverChartURL = "https://api.finance.naver.com/siseJson.naver"
	yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// NaverPriceSource reads daily quotes from the Naver Finance chart
// endpoint. Used for the KR market.
type NaverPriceSource struct {
	BaseURL   string
	UserAgent string
	client    *http.Client
}

// NewNaverPriceSource creates a Naver-backed price source.
func NewNaverPriceSource(userAgent string) *NaverPriceSource {
	return &NaverPriceSource{
		BaseURL:   naverChartURL,
		UserAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Closes fetches daily closes from start to end, oldest first.
func (s *NaverPriceSource) Closes(ctx context.Context, symbol string, start, end time.Time) ([]float64, error) {
	params := url.Values{
		"symbol":      {symbol},
		"requestType": {"1"},
		"startTime":   {start.Format("20060102")},
		"endTime":     {end.Format("20060102")},
		"timeframe":   {"day"},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("naver chart error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("naver chart returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	// Response is a JSON array of rows; the first row is the header
	// [날짜, 시가, 고가, 저가, 종가, 거래량, ...].
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding naver chart: %w", err)
	}

	var closes []float64
	for i, row := range rows {
		if i == 0 || len(row) < 5 {
			continue
		}
		if c, ok := row[4].(float64); ok {
			closes = append(closes, c)
		}
	}
	return closes, nil
}

// YahooPriceSource reads daily quotes from the Yahoo Finance chart API.
// Used for the US market.
type YahooPriceSource struct {
	BaseURL   string
	UserAgent string
	client    *http.Client
}

// NewYahooPriceSource creates a Yahoo-backed price source.
func NewYahooPriceSource(userAgent string) *YahooPriceSource {
	return &YahooPriceSource{
		BaseURL:   yahooChartURL,
		UserAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Closes fetches daily closes from start to end, oldest first.
func (s *YahooPriceSource) Closes(ctx context.Context, symbol string, start, end time.Time) ([]float64, error) {
	params := url.Values{
		"period1":  {fmt.Sprintf("%d", start.Unix())},
		"period2":  {fmt.Sprintf("%d", end.Unix())},
		"interval": {"1d"},
	}

	reqURL := fmt.Sprintf("%s/%s?%s", s.BaseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart returned %d", resp.StatusCode)
	}

	var result struct {
		Chart struct {
			Result []struct {
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding yahoo chart: %w", err)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty yahoo chart for %s", symbol)
	}

	var closes []float64
	for _, c := range result.Chart.Result[0].Indicators.Quote[0].Close {
		if c != nil {
			closes = append(closes, *c)
		}
	}
	return closes, nil
}
