package calibrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/realsense"
)

// rampFrame builds a frame whose valid samples are base+1 .. base+n mm.
func rampFrame(base, n int) *realsense.DepthFrame {
	data := make([]uint16, n)
	for i := range data {
		data[i] = uint16(base + i + 1)
	}
	return &realsense.DepthFrame{Width: n, Height: 1, Data: data}
}

func TestFromPercentiles(t *testing.T) {
	t.Parallel()

	frames := []*realsense.DepthFrame{rampFrame(0, 1000)}
	rng := FromPercentiles(frames, 5, 95)

	// 5th/95th percentile of 1..1000 with linear interpolation
	assert.Equal(t, 50, rng.MinMM)
	assert.Equal(t, 950, rng.MaxMM)
}

func TestFromPercentilesTooFewSamples(t *testing.T) {
	t.Parallel()

	// 50 valid samples is below the calibration minimum
	frames := []*realsense.DepthFrame{rampFrame(1000, 50)}
	rng := FromPercentiles(frames, 5, 95)

	assert.Equal(t, Range{MinMM: DefaultMinMM, MaxMM: DefaultMaxMM}, rng)
}

func TestFromPercentilesIgnoresInvalidSamples(t *testing.T) {
	t.Parallel()

	// zeros are holes, they must not drag the low percentile down
	frame := rampFrame(0, 1000)
	zeros := &realsense.DepthFrame{Width: 500, Height: 1, Data: make([]uint16, 500)}
	rng := FromPercentiles([]*realsense.DepthFrame{frame, zeros, nil}, 5, 95)

	assert.Equal(t, 50, rng.MinMM)
	assert.Equal(t, 950, rng.MaxMM)
}

func TestFromPercentilesDegenerateWindow(t *testing.T) {
	t.Parallel()

	// constant depth collapses the percentile window
	data := make([]uint16, 200)
	for i := range data {
		data[i] = 1500
	}
	frames := []*realsense.DepthFrame{{Width: 200, Height: 1, Data: data}}
	rng := FromPercentiles(frames, 5, 95)

	assert.Equal(t, Range{MinMM: DefaultMinMM, MaxMM: DefaultMaxMM}, rng)
}

func TestSetRangeRejectsInverted(t *testing.T) {
	t.Parallel()

	c := New(Range{MinMM: 300, MaxMM: 4500}, 5, 95, 0)

	require.Error(t, c.SetRange(500, 500))
	require.Error(t, c.SetRange(2000, 1000))
	assert.Equal(t, Range{MinMM: 300, MaxMM: 4500}, c.Range(), "rejected write must keep the prior range")

	require.NoError(t, c.SetRange(400, 2000))
	assert.Equal(t, Range{MinMM: 400, MaxMM: 2000}, c.Range())
}

func TestNewFallsBackOnInvalidSeed(t *testing.T) {
	t.Parallel()

	c := New(Range{MinMM: 500, MaxMM: 500}, 5, 95, 0)
	assert.Equal(t, Range{MinMM: DefaultMinMM, MaxMM: DefaultMaxMM}, c.Range())
}

func TestObserveInitialCalibration(t *testing.T) {
	t.Parallel()

	c := New(Range{MinMM: 300, MaxMM: 4500}, 5, 95, 0)
	now := time.Now()

	c.Observe([]*realsense.DepthFrame{rampFrame(0, 1000)}, now)
	assert.Equal(t, Range{MinMM: 50, MaxMM: 950}, c.Range())

	// refresh disabled: later observations never move the range
	c.Observe([]*realsense.DepthFrame{rampFrame(1000, 1000)}, now.Add(time.Hour))
	assert.Equal(t, Range{MinMM: 50, MaxMM: 950}, c.Range())
}

func TestObservePeriodicRefreshBlends(t *testing.T) {
	t.Parallel()

	c := New(Range{MinMM: 300, MaxMM: 4500}, 5, 95, time.Second)
	t0 := time.Now()

	c.Observe([]*realsense.DepthFrame{rampFrame(0, 1000)}, t0)
	require.Equal(t, Range{MinMM: 50, MaxMM: 950}, c.Range())

	// within the refresh period: no change
	c.Observe([]*realsense.DepthFrame{rampFrame(1000, 1000)}, t0.Add(500*time.Millisecond))
	require.Equal(t, Range{MinMM: 50, MaxMM: 950}, c.Range())

	// past the refresh period: blended halfway toward the fresh window
	c.Observe([]*realsense.DepthFrame{rampFrame(1000, 1000)}, t0.Add(2*time.Second))
	assert.Equal(t, Range{MinMM: 550, MaxMM: 1450}, c.Range())
}

func TestObserveEmptyIsNoop(t *testing.T) {
	t.Parallel()

	c := New(Range{MinMM: 300, MaxMM: 4500}, 5, 95, time.Second)
	c.Observe(nil, time.Now())
	assert.Equal(t, Range{MinMM: 300, MaxMM: 4500}, c.Range())
}
