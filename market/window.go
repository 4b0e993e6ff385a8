package market

// Window is a bounded, insertion-ordered sequence of observations for one
// instrument. Appending beyond capacity evicts from the head (FIFO), so the
// retained samples are always the most recent ones, oldest first.
type Window struct {
	capacity int
	samples  []Observation
}

// NewWindow creates a window with the given maximum sample count.
func NewWindow(capacity int) (*Window, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Window{
		capacity: capacity,
		samples:  make([]Observation, 0, capacity),
	}, nil
}

// Append inserts at the tail and evicts from the head once full.
func (w *Window) Append(obs Observation) {
	w.samples = append(w.samples, obs)
	if len(w.samples) > w.capacity {
		w.samples = w.samples[len(w.samples)-w.capacity:]
	}
}

// Samples returns a copy of the current contents, oldest first. Callers may
// hold and iterate the slice while new appends happen.
func (w *Window) Samples() []Observation {
	out := make([]Observation, len(w.samples))
	copy(out, w.samples)
	return out
}

// Len reports how many observations are currently retained.
func (w *Window) Len() int {
	return len(w.samples)
}

// Latest returns the newest observation. ok is false while the window is empty.
func (w *Window) Latest() (Observation, bool) {
	if len(w.samples) == 0 {
		return Observation{}, false
	}
	return w.samples[len(w.samples)-1], true
}
