package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NSEClient fetches equity quotes from an NSE-style quote-equity endpoint.
// HTTPClient is injectable so tests can point it at an httptest server.
type NSEClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    RateLimiter
	UserAgent  string
}

// NewNSEClient builds a client with a sane default HTTP timeout.
func NewNSEClient(baseURL string, limiter RateLimiter) *NSEClient {
	return &NSEClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: NewDefaultHTTPClient(),
		Limiter:    limiter,
		UserAgent:  "stock-analyzer-go",
	}
}

// NewDefaultHTTPClient provides an http.Client with a timeout.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *NSEClient) Name() string { return "nse" }

// quoteEquityResp mirrors the priceInfo section of /api/quote-equity.
// Numeric fields arrive as either JSON numbers or comma-grouped strings
// ("1,234.55" for prices above a thousand), so they decode as any.
type quoteEquityResp struct {
	PriceInfo struct {
		LastPrice     any `json:"lastPrice"`
		PreviousClose any `json:"previousClose"`
		Open          any `json:"open"`
		WeekHighLow   struct {
			Min any `json:"min"`
			Max any `json:"max"`
		} `json:"weekHighLow"`
	} `json:"priceInfo"`
}

// FetchQuote calls /api/quote-equity?symbol=X and returns a validated quote.
// Every failure mode wraps ErrFetchFailed so the caller can treat them
// uniformly as "no observation this tick".
func (c *NSEClient) FetchQuote(ctx context.Context, symbol string) (Quote, error) {
	if c.HTTPClient == nil {
		return Quote{}, fmt.Errorf("%w: http client not set", ErrFetchFailed)
	}
	if c.Limiter != nil {
		c.Limiter.Wait()
	}

	endpoint := c.BaseURL + "/api/quote-equity?symbol=" + url.QueryEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var payload quoteEquityResp
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("%w: decode payload: %v", ErrFetchFailed, err)
	}

	q := Quote{Symbol: symbol}
	fields := []struct {
		name string
		raw  any
		dst  *float64
	}{
		{"lastPrice", payload.PriceInfo.LastPrice, &q.LastPrice},
		{"previousClose", payload.PriceInfo.PreviousClose, &q.PreviousClose},
		{"open", payload.PriceInfo.Open, &q.Open},
		{"weekHighLow.min", payload.PriceInfo.WeekHighLow.Min, &q.WeekLow},
		{"weekHighLow.max", payload.PriceInfo.WeekHighLow.Max, &q.WeekHigh},
	}
	for _, f := range fields {
		v, err := parsePrice(f.raw)
		if err != nil {
			return Quote{}, fmt.Errorf("%w: field %s: %v", ErrFetchFailed, f.name, err)
		}
		*f.dst = v
	}
	if q.LastPrice <= 0 || q.PreviousClose <= 0 {
		return Quote{}, fmt.Errorf("%w: non-positive price in payload", ErrFetchFailed)
	}
	return q, nil
}

// parsePrice accepts a JSON number or a comma-grouped numeric string.
// NaN and Inf are rejected here: strconv.ParseFloat accepts "NaN"/"Inf"
// spellings, and a non-finite price would defeat every downstream
// comparison (NaN compares false against any threshold).
func parsePrice(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("non-finite value %v", v)
		}
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %v", v, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("non-finite value %q", v)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing field")
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}
