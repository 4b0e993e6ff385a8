package market

// ChartView is the renderable form of one instrument's state: the series,
// the derived signals, the previous-close reference line, and vertical
// bounds padded according to the zoom factor. Rendering itself stays with
// the consumer.
type ChartView struct {
	Symbol     string
	Series     []Observation
	Signals    Signals
	PrevClose  float64
	ZoomFactor float64
	YMin       float64
	YMax       float64
}

// BuildView assembles a ChartView. Vertical padding is
// (max-min) * 0.3 * zoom; a flat or single-sample series falls back to
// 1% of the latest price so the band never collapses to zero height.
func BuildView(symbol string, samples []Observation, sig Signals, prevClose, zoom float64) ChartView {
	v := ChartView{
		Symbol:     symbol,
		Series:     samples,
		Signals:    sig,
		PrevClose:  prevClose,
		ZoomFactor: zoom,
	}
	if len(samples) == 0 {
		return v
	}

	lo, hi := samples[0].Price, samples[0].Price
	for _, s := range samples[1:] {
		if s.Price < lo {
			lo = s.Price
		}
		if s.Price > hi {
			hi = s.Price
		}
	}

	pad := (hi - lo) * 0.3 * zoom
	if pad == 0 {
		pad = samples[len(samples)-1].Price * 0.01
	}
	v.YMin = lo - pad
	v.YMax = hi + pad
	return v
}
