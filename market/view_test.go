package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildView_Padding(t *testing.T) {
	samples := obsSeries(100.0, 110.0, 105.0)
	sig, _ := Derive(samples, DefaultSignalPolicy())

	v := BuildView("TCS", samples, sig, 104.0, 1.0)

	// pad = (110 - 100) * 0.3 * 1.0 = 3.0
	assert.InDelta(t, 97.0, v.YMin, 1e-9)
	assert.InDelta(t, 113.0, v.YMax, 1e-9)
	assert.Equal(t, 104.0, v.PrevClose)
}

func TestBuildView_ZoomScalesPadding(t *testing.T) {
	samples := obsSeries(100.0, 110.0)
	sig, _ := Derive(samples, DefaultSignalPolicy())

	wide := BuildView("TCS", samples, sig, 0, 2.0)
	tight := BuildView("TCS", samples, sig, 0, 0.5)

	assert.Greater(t, wide.YMax-wide.YMin, tight.YMax-tight.YMin)
	// pad = 10 * 0.3 * 2 = 6
	assert.InDelta(t, 94.0, wide.YMin, 1e-9)
	assert.InDelta(t, 116.0, wide.YMax, 1e-9)
}

func TestBuildView_FlatSeriesFallback(t *testing.T) {
	samples := obsSeries(200.0, 200.0, 200.0)
	sig, _ := Derive(samples, DefaultSignalPolicy())

	v := BuildView("INFY", samples, sig, 0, 1.0)

	// Flat range: pad falls back to 1% of the latest price.
	assert.InDelta(t, 198.0, v.YMin, 1e-9)
	assert.InDelta(t, 202.0, v.YMax, 1e-9)
	assert.False(t, math.IsNaN(v.YMin))
}

func TestBuildView_SingleSample(t *testing.T) {
	samples := obsSeries(150.0)
	sig, _ := Derive(samples, DefaultSignalPolicy())

	v := BuildView("SBIN", samples, sig, 149.0, 1.0)
	assert.InDelta(t, 148.5, v.YMin, 1e-9)
	assert.InDelta(t, 151.5, v.YMax, 1e-9)
}

func TestBuildView_EmptySeries(t *testing.T) {
	v := BuildView("SBIN", nil, Signals{}, 0, 1.0)
	assert.Zero(t, v.YMin)
	assert.Zero(t, v.YMax)
	assert.Empty(t, v.Series)
}
