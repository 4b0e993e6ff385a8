package gateway

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*NSEClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewNSEClient(srv.URL, nil)
	c.HTTPClient = srv.Client()
	return c, srv
}

func TestNSEClient_FetchQuote(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quote-equity", r.URL.Path)
		assert.Equal(t, "RELIANCE", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		// NSE mixes plain numbers with comma-grouped strings.
		w.Write([]byte(`{"priceInfo":{
			"lastPrice":"2,810.55",
			"previousClose":2795.0,
			"open":"2,800.00",
			"weekHighLow":{"min":"2,220.30","max":3024.9}
		}}`))
	})
	defer srv.Close()

	q, err := c.FetchQuote(context.Background(), "RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, "RELIANCE", q.Symbol)
	assert.InDelta(t, 2810.55, q.LastPrice, 1e-9)
	assert.InDelta(t, 2795.0, q.PreviousClose, 1e-9)
	assert.InDelta(t, 2800.0, q.Open, 1e-9)
	assert.InDelta(t, 2220.30, q.WeekLow, 1e-9)
	assert.InDelta(t, 3024.9, q.WeekHigh, 1e-9)
}

func TestNSEClient_FailureModes(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>blocked</html>`))
			},
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"priceInfo":{"lastPrice":100.0}}`))
			},
		},
		{
			name: "unparseable price string",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"priceInfo":{"lastPrice":"N/A","previousClose":1,"open":1,"weekHighLow":{"min":1,"max":1}}}`))
			},
		},
		{
			name: "non-positive price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"priceInfo":{"lastPrice":0,"previousClose":1,"open":1,"weekHighLow":{"min":1,"max":1}}}`))
			},
		},
		{
			name: "NaN price string",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"priceInfo":{"lastPrice":"NaN","previousClose":1,"open":1,"weekHighLow":{"min":1,"max":1}}}`))
			},
		},
		{
			name: "infinite price string",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"priceInfo":{"lastPrice":1,"previousClose":"Inf","open":1,"weekHighLow":{"min":1,"max":1}}}`))
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newTestClient(tc.handler)
			defer srv.Close()

			_, err := c.FetchQuote(context.Background(), "TCS")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFetchFailed), "all failures must wrap ErrFetchFailed, got %v", err)
		})
	}
}

func TestNSEClient_ConnectionRefused(t *testing.T) {
	c := NewNSEClient("http://127.0.0.1:1", nil)
	_, err := c.FetchQuote(context.Background(), "TCS")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		raw     any
		want    float64
		wantErr bool
	}{
		{raw: 123.45, want: 123.45},
		{raw: "1,234.55", want: 1234.55},
		{raw: "99", want: 99},
		{raw: nil, wantErr: true},
		{raw: true, wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "Inf", wantErr: true},
		{raw: "-Inf", wantErr: true},
		{raw: math.NaN(), wantErr: true},
		{raw: math.Inf(1), wantErr: true},
	}
	for _, tc := range testCases {
		got, err := parsePrice(tc.raw)
		if tc.wantErr {
			assert.Error(t, err, "raw=%v", tc.raw)
			continue
		}
		require.NoError(t, err, "raw=%v", tc.raw)
		assert.InDelta(t, tc.want, got, 1e-9)
	}
}
