package market

import "time"

// Observation is a single sampled price point. Immutable once recorded.
type Observation struct {
	Ts    time.Time
	Price float64
}
