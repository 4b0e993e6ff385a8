// Package scheduler drives when new observations are appended: on a fixed
// period in auto mode, or on explicit triggers in manual mode.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"stock-analyzer-go/gateway"
	"stock-analyzer-go/infrastructure/logger"
	"stock-analyzer-go/market"
	"stock-analyzer-go/metrics"
	"stock-analyzer-go/recorder"
)

// Mode selects the trigger source.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// State is the per-instrument refresh state.
type State int

const (
	StateIdle State = iota
	StateFetching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateFetching:
		return "FETCHING"
	default:
		return "UNKNOWN"
	}
}

// Config holds the scheduler settings.
type Config struct {
	Mode     Mode
	Interval time.Duration // auto-mode tick period
}

// Scheduler owns the fetch→append→derive→publish cycle. Per-instrument
// fetches never overlap: a tick that lands while the previous fetch for the
// same symbol is still in flight is skipped, so window append order always
// matches observation order. Instruments are otherwise fully independent.
type Scheduler struct {
	cfg     Config
	fetcher gateway.Fetcher
	store   *market.Store
	pub     *market.Publisher
	rec     recorder.Recorder
	log     *logger.Logger
	clock   Clock

	mu       sync.Mutex
	policy   market.SignalPolicy
	selected string
	states   map[string]State

	triggers chan string
	wg       sync.WaitGroup
}

// New wires a scheduler. rec may be nil for no history recording.
func New(cfg Config, fetcher gateway.Fetcher, store *market.Store, pub *market.Publisher, rec recorder.Recorder, log *logger.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		pub:      pub,
		rec:      rec,
		log:      log,
		clock:    System,
		policy:   market.DefaultSignalPolicy(),
		states:   make(map[string]State),
		triggers: make(chan string, 16),
	}
}

// SetClock replaces the clock. Call before Run; used by tests.
func (s *Scheduler) SetClock(c Clock) {
	if c != nil {
		s.clock = c
	}
}

// SetPolicy swaps the signal policy. Safe while running; the next derivation
// uses the new thresholds (hot-reload path).
func (s *Scheduler) SetPolicy(p market.SignalPolicy) {
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
}

// Policy returns the active signal policy.
func (s *Scheduler) Policy() market.SignalPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// State reports the refresh state for one instrument.
func (s *Scheduler) State(symbol string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[symbol]
}

// Selected returns the instrument currently driven by the tick loop.
func (s *Scheduler) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select switches the driven instrument. The previous instrument's window is
// left intact and resumes when reselected. Selecting a never-observed
// instrument performs a bootstrap fetch so the first display is not blank.
func (s *Scheduler) Select(symbol string) error {
	if !s.store.Tracked(symbol) {
		return fmt.Errorf("%w: %s", market.ErrUnknownInstrument, symbol)
	}
	s.mu.Lock()
	s.selected = symbol
	s.mu.Unlock()

	if n, err := s.store.Len(symbol); err == nil && n == 0 {
		s.enqueue(symbol)
	}
	return nil
}

// TriggerRefresh requests one manual refresh of the selected instrument.
func (s *Scheduler) TriggerRefresh() {
	if sym := s.Selected(); sym != "" {
		s.enqueue(sym)
	}
}

func (s *Scheduler) enqueue(symbol string) {
	select {
	case s.triggers <- symbol:
	default:
		// Trigger queue full: the pending trigger already covers this refresh.
	}
}

// Run blocks until ctx is done. In auto mode the selected instrument is
// refreshed every Interval; explicit triggers are honored in both modes.
func (s *Scheduler) Run(ctx context.Context) {
	var tick <-chan time.Time
	if s.cfg.Mode == ModeAuto {
		t := time.NewTicker(s.cfg.Interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case <-tick:
			if sym := s.Selected(); sym != "" {
				s.refresh(ctx, sym)
			}
		case sym := <-s.triggers:
			s.refresh(ctx, sym)
		}
	}
}

// refresh starts one asynchronous fetch cycle for symbol, unless one is
// already in flight for it.
func (s *Scheduler) refresh(ctx context.Context, symbol string) {
	s.mu.Lock()
	if s.states[symbol] == StateFetching {
		s.mu.Unlock()
		metrics.ObserveFetch(symbol, metrics.OutcomeSkipped)
		if s.log != nil {
			s.log.Debug("tick skipped, fetch in flight", zap.String("symbol", symbol))
		}
		return
	}
	s.states[symbol] = StateFetching
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.states[symbol] = StateIdle
			s.mu.Unlock()
		}()
		s.fetchAndCommit(ctx, symbol)
	}()
}

func (s *Scheduler) fetchAndCommit(ctx context.Context, symbol string) {
	q, err := s.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		s.failTick(symbol, err)
		return
	}

	obs := market.Observation{Ts: s.clock.Now(), Price: q.LastPrice}
	if err := s.store.Append(symbol, obs, q.PreviousClose); err != nil {
		s.failTick(symbol, err)
		return
	}

	samples, err := s.store.Window(symbol)
	if err != nil {
		s.failTick(symbol, err)
		return
	}
	sig, err := market.Derive(samples, s.Policy())
	if err != nil {
		s.failTick(symbol, err)
		return
	}

	metrics.ObserveFetch(symbol, metrics.OutcomeSuccess)
	metrics.ObserveWindow(symbol, len(samples), obs.Price, sig.TrendUp, sig.Crash)
	if s.log != nil {
		s.log.LogFetch(symbol, metrics.OutcomeSuccess, map[string]interface{}{
			"price":  obs.Price,
			"window": len(samples),
		})
		if sig.Crash {
			s.log.LogSignal(symbol, sig.TrendUp, sig.Crash, map[string]interface{}{
				"price":      obs.Price,
				"prev_close": q.PreviousClose,
			})
		}
	}
	if err := s.rec.RecordObservation(recorder.ObservationRow{
		Symbol:    symbol,
		Ts:        obs.Ts,
		Price:     obs.Price,
		PrevClose: q.PreviousClose,
		Crash:     sig.Crash,
	}); err != nil && s.log != nil {
		s.log.LogError(err, map[string]interface{}{
			"op":     "record_observation",
			"symbol": symbol,
		})
	}

	s.pub.Publish(market.Update{
		Symbol:    symbol,
		Samples:   samples,
		Signals:   sig,
		PrevClose: q.PreviousClose,
	})
}

// failTick surfaces a failed refresh without touching the window: the update
// carries the last-known state plus the error, so displays keep their data.
func (s *Scheduler) failTick(symbol string, cause error) {
	metrics.ObserveFetch(symbol, metrics.OutcomeFailure)
	if s.log != nil {
		s.log.LogFetch(symbol, metrics.OutcomeFailure, map[string]interface{}{
			"error": cause.Error(),
		})
	}

	u := market.Update{Symbol: symbol, Err: cause}
	if samples, err := s.store.Window(symbol); err == nil {
		u.Samples = samples
		if len(samples) > 0 {
			if sig, derr := market.Derive(samples, s.Policy()); derr == nil {
				u.Signals = sig
			}
		}
	}
	if pc, err := s.store.PrevClose(symbol); err == nil {
		u.PrevClose = pc
	}
	s.pub.Publish(u)
}
