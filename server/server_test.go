package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analyzer-go/gateway"
	"stock-analyzer-go/market"
	"stock-analyzer-go/metrics"
	"stock-analyzer-go/scheduler"
)

type fixedFetcher struct {
	mu     sync.Mutex
	quotes map[string]gateway.Quote
}

func (f *fixedFetcher) Name() string { return "fixed" }

func (f *fixedFetcher) FetchQuote(_ context.Context, symbol string) (gateway.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[symbol]
	if !ok {
		return gateway.Quote{}, fmt.Errorf("%w: no quote", gateway.ErrFetchFailed)
	}
	return q, nil
}

type wsFixture struct {
	srv  *httptest.Server
	conn *websocket.Conn
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	store, err := market.NewStore(300, []string{"TCS", "INFY"})
	require.NoError(t, err)

	fetcher := &fixedFetcher{quotes: map[string]gateway.Quote{
		"TCS":  {Symbol: "TCS", LastPrice: 3500, PreviousClose: 3480},
		"INFY": {Symbol: "INFY", LastPrice: 1500, PreviousClose: 1490},
	}}
	pub := market.NewPublisher()
	sched := scheduler.New(scheduler.Config{Mode: scheduler.ModeManual}, fetcher, store, pub, nil, nil)
	server := New(sched, store, market.NewZoomState(), pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)
	go server.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &wsFixture{srv: srv, conn: conn}
}

func (fx *wsFixture) send(t *testing.T, cmd command) {
	t.Helper()
	require.NoError(t, fx.conn.WriteJSON(cmd))
}

// dial opens an extra client connection to the same server.
func (fx *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(fx.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntilOn(t *testing.T, conn *websocket.Conn, pred func(chartPayload) bool) chartPayload {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "no matching frame before deadline")
		var p chartPayload
		require.NoError(t, json.Unmarshal(raw, &p))
		if pred(p) {
			return p
		}
	}
}

// readUntil reads frames until pred matches or the deadline passes.
func (fx *wsFixture) readUntil(t *testing.T, pred func(chartPayload) bool) chartPayload {
	t.Helper()
	return readUntilOn(t, fx.conn, pred)
}

func TestServer_SelectPushesChart(t *testing.T) {
	fx := newWSFixture(t)
	fx.send(t, command{Op: "select", Symbol: "TCS"})

	p := fx.readUntil(t, func(p chartPayload) bool {
		return p.Type == "chart" && p.Symbol == "TCS" && len(p.Series) > 0
	})
	assert.Equal(t, 3500.0, p.Series[len(p.Series)-1].Price)
	assert.Equal(t, 3480.0, p.PrevClose)
	assert.True(t, p.TrendUp)
	assert.False(t, p.Crash)
	assert.Equal(t, string(market.ColorUp), p.Color)
	assert.Less(t, p.YMin, 3500.0)
	assert.Greater(t, p.YMax, 3500.0)
}

func TestServer_ZoomCommands(t *testing.T) {
	fx := newWSFixture(t)
	fx.send(t, command{Op: "select", Symbol: "TCS"})
	fx.readUntil(t, func(p chartPayload) bool { return p.Type == "chart" && len(p.Series) > 0 })

	fx.send(t, command{Op: "zoom_in"})
	p := fx.readUntil(t, func(p chartPayload) bool { return p.Zoom > 0 && p.Zoom < 1.0 })
	assert.InDelta(t, 0.8, p.Zoom, 1e-9)

	fx.send(t, command{Op: "zoom_out"})
	p = fx.readUntil(t, func(p chartPayload) bool { return p.Zoom > 0.9 })
	assert.InDelta(t, 1.0, p.Zoom, 1e-9)
}

func TestServer_ManualRefresh(t *testing.T) {
	fx := newWSFixture(t)
	fx.send(t, command{Op: "select", Symbol: "INFY"})
	fx.readUntil(t, func(p chartPayload) bool { return p.Symbol == "INFY" && len(p.Series) == 1 })

	fx.send(t, command{Op: "refresh"})
	p := fx.readUntil(t, func(p chartPayload) bool { return p.Symbol == "INFY" && len(p.Series) == 2 })
	assert.Len(t, p.Series, 2)
}

func TestServer_LateJoinerGetsCurrentState(t *testing.T) {
	fx := newWSFixture(t)
	fx.send(t, command{Op: "select", Symbol: "TCS"})
	fx.readUntil(t, func(p chartPayload) bool { return p.Type == "chart" && len(p.Series) > 0 })

	// A client connecting between refreshes gets the selected instrument's
	// last-known chart without issuing any command.
	late := fx.dial(t)
	p := readUntilOn(t, late, func(p chartPayload) bool { return p.Type == "chart" })
	assert.Equal(t, "TCS", p.Symbol)
	assert.NotEmpty(t, p.Series)
	assert.Equal(t, 3480.0, p.PrevClose)
}

func TestServer_ZoomGaugeStartsAtDefault(t *testing.T) {
	newWSFixture(t)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ZoomFactor), 1e-9)
}

func TestServer_BadCommands(t *testing.T) {
	fx := newWSFixture(t)

	fx.send(t, command{Op: "select", Symbol: "BOGUS"})
	p := fx.readUntil(t, func(p chartPayload) bool { return p.Type == "error" })
	assert.Contains(t, p.Error, "unknown instrument")

	fx.send(t, command{Op: "explode"})
	p = fx.readUntil(t, func(p chartPayload) bool { return p.Type == "error" })
	assert.Contains(t, p.Error, "unknown op")
}
