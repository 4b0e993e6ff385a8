// Package server is the presentation adapter: it pushes renderable chart
// payloads to UI clients over WebSocket and turns their commands (refresh,
// zoom, instrument selection) into scheduler and zoom-state calls.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stock-analyzer-go/infrastructure/logger"
	"stock-analyzer-go/market"
	"stock-analyzer-go/metrics"
	"stock-analyzer-go/scheduler"
)

// command is a client→server frame.
type command struct {
	Op     string `json:"op"` // select, refresh, zoom_in, zoom_out
	Symbol string `json:"symbol,omitempty"`
}

// pricePoint is one series sample in a chart payload.
type pricePoint struct {
	Ts    int64   `json:"ts"` // unix milliseconds
	Price float64 `json:"price"`
}

// chartPayload is a server→client frame: everything a renderer needs for a
// continuous series with a latest-point marker, a dashed previous-close
// line, and padded vertical bounds.
type chartPayload struct {
	Type      string       `json:"type"` // chart or error
	Symbol    string       `json:"symbol,omitempty"`
	Series    []pricePoint `json:"series,omitempty"`
	TrendUp   bool         `json:"trend_up"`
	Crash     bool         `json:"crash"`
	Color     string       `json:"color,omitempty"`
	PrevClose float64      `json:"prev_close,omitempty"`
	Zoom      float64      `json:"zoom,omitempty"`
	YMin      float64      `json:"y_min,omitempty"`
	YMax      float64      `json:"y_max,omitempty"`
	Stale     bool         `json:"stale,omitempty"` // last fetch failed; series is last-known
	Error     string       `json:"error,omitempty"`
}

// Server bridges the core to WebSocket clients.
type Server struct {
	hub      *Hub
	sched    *scheduler.Scheduler
	store    *market.Store
	zoom     *market.ZoomState
	updates  <-chan market.Update
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// New wires a server and subscribes it to refresh updates.
func New(sched *scheduler.Scheduler, store *market.Store, zoom *market.ZoomState, pub *market.Publisher, log *logger.Logger) *Server {
	metrics.ZoomFactor.Set(zoom.Factor())
	return &Server{
		hub:     NewHub(),
		sched:   sched,
		store:   store,
		zoom:    zoom,
		updates: pub.Subscribe(),
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The UI is served from arbitrary local origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler exposes the WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// Run consumes refresh updates and broadcasts them until ctx is done.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-s.updates:
			s.broadcastUpdate(u)
		}
	}
}

func (s *Server) broadcastUpdate(u market.Update) {
	s.broadcast(s.buildPayload(u))
}

func (s *Server) buildPayload(u market.Update) chartPayload {
	p := chartPayload{
		Type:      "chart",
		Symbol:    u.Symbol,
		Series:    toPoints(u.Samples),
		TrendUp:   u.Signals.TrendUp,
		Crash:     u.Signals.Crash,
		Color:     string(u.Signals.Color),
		PrevClose: u.PrevClose,
	}
	if u.Err != nil {
		p.Stale = true
		p.Error = u.Err.Error()
	}
	view := market.BuildView(u.Symbol, u.Samples, u.Signals, u.PrevClose, s.zoom.Factor())
	p.Zoom = view.ZoomFactor
	p.YMin = view.YMin
	p.YMax = view.YMax
	return p
}

// selectedPayload rebuilds the selected instrument's last-known frame from
// the store. ok is false while nothing is selected or observed yet.
func (s *Server) selectedPayload() (chartPayload, bool) {
	sym := s.sched.Selected()
	if sym == "" {
		return chartPayload{}, false
	}
	samples, err := s.store.Window(sym)
	if err != nil || len(samples) == 0 {
		return chartPayload{}, false
	}
	sig, err := market.Derive(samples, s.sched.Policy())
	if err != nil {
		return chartPayload{}, false
	}
	pc, _ := s.store.PrevClose(sym)
	return s.buildPayload(market.Update{Symbol: sym, Samples: samples, Signals: sig, PrevClose: pc}), true
}

// rebroadcastSelected pushes the selected instrument's current state to all
// clients. Used after zoom and select so the display reacts without a fetch.
func (s *Server) rebroadcastSelected() {
	if p, ok := s.selectedPayload(); ok {
		s.broadcast(p)
	}
}

func (s *Server) broadcast(p chartPayload) {
	msg, err := json.Marshal(p)
	if err != nil {
		if s.log != nil {
			s.log.Error("marshal payload", zap.Error(err))
		}
		return
	}
	s.hub.Broadcast(msg)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.log != nil {
			s.log.Warn("ws upgrade", zap.Error(err))
		}
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 8)}
	s.hub.add(c)

	go s.writePump(c)
	s.sendCurrent(c)
	s.readPump(c)
}

func (s *Server) writePump(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	c.conn.Close()
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.hub.remove(c)
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.sendError(c, "malformed command")
			continue
		}
		s.dispatch(c, cmd)
	}
}

func (s *Server) dispatch(c *client, cmd command) {
	switch cmd.Op {
	case "select":
		if err := s.sched.Select(cmd.Symbol); err != nil {
			s.sendError(c, err.Error())
			return
		}
		// Reselected instruments resume their retained window immediately.
		s.rebroadcastSelected()
	case "refresh":
		s.sched.TriggerRefresh()
	case "zoom_in":
		metrics.ZoomFactor.Set(s.zoom.ZoomIn())
		s.rebroadcastSelected()
	case "zoom_out":
		metrics.ZoomFactor.Set(s.zoom.ZoomOut())
		s.rebroadcastSelected()
	default:
		s.sendError(c, "unknown op: "+cmd.Op)
	}
}

// sendCurrent greets a fresh connection with the selected instrument's
// last-known state, so clients joining between refreshes are not blank.
func (s *Server) sendCurrent(c *client) {
	p, ok := s.selectedPayload()
	if !ok {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (s *Server) sendError(c *client, msg string) {
	raw, err := json.Marshal(chartPayload{Type: "error", Error: msg})
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func toPoints(samples []market.Observation) []pricePoint {
	out := make([]pricePoint, len(samples))
	for i, s := range samples {
		out[i] = pricePoint{Ts: s.Ts.UnixMilli(), Price: s.Price}
	}
	return out
}
