package market

import (
	"fmt"
	"sync"
)

// Store keeps one sliding window per tracked instrument. Windows are created
// lazily on first append and live for the process lifetime.
//
// Locking is per instrument: appends and reads for one symbol serialize on
// that symbol's entry, while other instruments proceed independently. Reads
// hand out copies, so a renderer never iterates a window mid-append.
type Store struct {
	capacity int

	mu      sync.RWMutex
	entries map[string]*storeEntry
}

type storeEntry struct {
	mu        sync.Mutex
	win       *Window
	prevClose float64
}

// NewStore builds a store for the configured tracked set.
func NewStore(capacity int, instruments []string) (*Store, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if len(instruments) == 0 {
		return nil, ErrNoInstruments
	}
	entries := make(map[string]*storeEntry, len(instruments))
	for _, sym := range instruments {
		if sym == "" {
			return nil, fmt.Errorf("%w: empty symbol in tracked set", ErrUnknownInstrument)
		}
		entries[sym] = nil
	}
	return &Store{capacity: capacity, entries: entries}, nil
}

// Tracked reports whether symbol is part of the configured set.
func (s *Store) Tracked(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[symbol]
	return ok
}

// Symbols returns the tracked set.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for sym := range s.entries {
		out = append(out, sym)
	}
	return out
}

// Append records an observation for symbol and overwrites its reference line.
// The previous close rides along with each observation event; it is not part
// of the window itself.
func (s *Store) Append(symbol string, obs Observation, prevClose float64) error {
	e, err := s.entry(symbol, true)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.win.Append(obs)
	e.prevClose = prevClose
	return nil
}

// Window returns a snapshot of symbol's window, oldest first. A tracked
// instrument that was never observed yields an empty slice, not an error.
func (s *Store) Window(symbol string) ([]Observation, error) {
	e, err := s.entry(symbol, false)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return []Observation{}, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.win.Samples(), nil
}

// Len returns the current sample count for symbol.
func (s *Store) Len(symbol string) (int, error) {
	e, err := s.entry(symbol, false)
	if err != nil {
		return 0, err
	}
	if e == nil {
		return 0, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.win.Len(), nil
}

// PrevClose returns the reference line attached to symbol's latest
// observation. Zero until the first successful append.
func (s *Store) PrevClose(symbol string) (float64, error) {
	e, err := s.entry(symbol, false)
	if err != nil {
		return 0, err
	}
	if e == nil {
		return 0, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prevClose, nil
}

// entry validates the symbol and, when create is set, lazily initializes its
// window. Returns nil for a tracked-but-unobserved symbol when create is false.
func (s *Store) entry(symbol string, create bool) (*storeEntry, error) {
	s.mu.RLock()
	e, ok := s.entries[symbol]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	if e != nil || !create {
		return e, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.entries[symbol]; e != nil {
		return e, nil
	}
	win, err := NewWindow(s.capacity)
	if err != nil {
		return nil, err
	}
	e = &storeEntry{win: win}
	s.entries[symbol] = e
	return e, nil
}
