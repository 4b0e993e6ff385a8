package market

// Color is the display state derived from trend and crash.
type Color string

const (
	ColorUp    Color = "up"
	ColorDown  Color = "down"
	ColorAlert Color = "alert"
)

// SignalPolicy carries the tunable signal thresholds.
type SignalPolicy struct {
	// CrashDrawdown is the fractional drop from the window peak that flags a
	// crash. 0.03 means the latest price sits below 97% of the running peak.
	CrashDrawdown float64
}

// DefaultSignalPolicy returns the observed defaults.
func DefaultSignalPolicy() SignalPolicy {
	return SignalPolicy{CrashDrawdown: 0.03}
}

// Signals is a derived snapshot. It is recomputed from the window on every
// call and never accumulated, so it cannot drift from the window contents.
type Signals struct {
	TrendUp bool
	Crash   bool
	Color   Color
}

// Derive computes the signal snapshot for a window, oldest first.
// Crash uses strict less-than: latest exactly at the threshold is not a crash.
func Derive(samples []Observation, policy SignalPolicy) (Signals, error) {
	if len(samples) == 0 {
		return Signals{}, ErrEmptyWindow
	}

	first := samples[0].Price
	last := samples[len(samples)-1].Price

	peak := first
	for _, s := range samples[1:] {
		if s.Price > peak {
			peak = s.Price
		}
	}

	sig := Signals{
		TrendUp: last >= first,
		Crash:   last < peak*(1-policy.CrashDrawdown),
	}
	switch {
	case sig.Crash:
		sig.Color = ColorAlert
	case sig.TrendUp:
		sig.Color = ColorUp
	default:
		sig.Color = ColorDown
	}
	return sig, nil
}
