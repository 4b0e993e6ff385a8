package market

import "sync"

// Zoom step multipliers and the documented clamp. The source GUI left the
// factor unbounded; [0.1, 10.0] keeps the display band usable at both ends.
const (
	zoomInStep  = 0.8
	zoomOutStep = 1.25
	minZoom     = 0.1
	maxZoom     = 10.0
)

// ZoomState is the per-session vertical display scale. It only affects
// rendering padding, never data retention.
type ZoomState struct {
	mu     sync.Mutex
	factor float64
}

// NewZoomState starts at factor 1.0.
func NewZoomState() *ZoomState {
	return &ZoomState{factor: 1.0}
}

// ZoomIn tightens the display band and returns the new factor.
func (z *ZoomState) ZoomIn() float64 {
	return z.apply(zoomInStep)
}

// ZoomOut widens the display band and returns the new factor.
func (z *ZoomState) ZoomOut() float64 {
	return z.apply(zoomOutStep)
}

// Factor returns the current multiplier.
func (z *ZoomState) Factor() float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.factor
}

func (z *ZoomState) apply(step float64) float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.factor *= step
	if z.factor < minZoom {
		z.factor = minZoom
	}
	if z.factor > maxZoom {
		z.factor = maxZoom
	}
	return z.factor
}
