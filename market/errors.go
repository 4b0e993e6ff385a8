package market

import "errors"

var (
	// ErrInvalidCapacity rejects a zero or negative window capacity at construction.
	ErrInvalidCapacity = errors.New("window capacity must be > 0")
	// ErrNoInstruments rejects an empty tracked set at construction.
	ErrNoInstruments = errors.New("tracked instrument set must not be empty")
	// ErrUnknownInstrument is returned for symbols outside the tracked set.
	ErrUnknownInstrument = errors.New("unknown instrument")
	// ErrEmptyWindow is returned when signals are requested for a window with
	// no observations. The scheduler guarantees a bootstrap fetch before the
	// first derivation, so hitting this is a caller bug, not a runtime condition.
	ErrEmptyWindow = errors.New("cannot derive signals from empty window")
)
