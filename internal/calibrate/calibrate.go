// Package calibrate maintains the adaptive depth clipping range used to
// normalize depth frames before detection.
package calibrate

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/errors"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/realsense"
)

// Default clipping range applied when calibration lacks samples.
const (
	DefaultMinMM = 400
	DefaultMaxMM = 3500
)

// minSamples is the number of valid depth samples required before percentile
// calibration is trusted over the default range.
const minSamples = 100

// smoothingAlpha blends periodic recalibration results into the current
// range to avoid abrupt jumps.
const smoothingAlpha = 0.5

// Range is a depth clipping window in millimeters. Invariant: MinMM < MaxMM.
type Range struct {
	MinMM int
	MaxMM int
}

// Width returns the range width in millimeters.
func (r Range) Width() int { return r.MaxMM - r.MinMM }

// Calibrator holds the process-wide depth range. Reads are lock-free via
// atomic replace, every write replaces the whole pair.
type Calibrator struct {
	rng atomic.Pointer[Range]

	pLow    float64
	pHigh   float64
	refresh time.Duration

	mu          sync.Mutex
	didInitial  bool
	lastRefresh time.Time
}

// New creates a calibrator seeded with the configured range. An invalid
// seed falls back to the default range.
func New(seed Range, pLow, pHigh float64, refresh time.Duration) *Calibrator {
	if seed.MaxMM <= seed.MinMM {
		seed = Range{MinMM: DefaultMinMM, MaxMM: DefaultMaxMM}
	}
	c := &Calibrator{pLow: pLow, pHigh: pHigh, refresh: refresh}
	c.rng.Store(&seed)
	return c
}

// Range returns the current depth range.
func (c *Calibrator) Range() Range {
	return *c.rng.Load()
}

// SetRange replaces the range from an explicit command. Writes with
// max <= min are rejected, the prior value is kept.
func (c *Calibrator) SetRange(minMM, maxMM int) error {
	if maxMM <= minMM {
		return errors.Newf("rejected depth range %d..%d mm: max must be greater than min", minMM, maxMM).
			Component("calibrate").
			Category(errors.CategoryValidation).
			Build()
	}
	c.rng.Store(&Range{MinMM: minMM, MaxMM: maxMM})
	return nil
}

// Observe feeds the depth frames of one tick into the calibrator. The first
// call with samples performs the initial calibration, later calls refresh
// the range on the configured period with exponential smoothing.
func (c *Calibrator) Observe(frames []*realsense.DepthFrame, now time.Time) {
	if len(frames) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.didInitial {
		fresh := FromPercentiles(frames, c.pLow, c.pHigh)
		c.rng.Store(&fresh)
		c.didInitial = true
		c.lastRefresh = now
		GetLogger().Info("initial depth calibration",
			"min_mm", fresh.MinMM, "max_mm", fresh.MaxMM)
		return
	}

	if c.refresh <= 0 || now.Sub(c.lastRefresh) < c.refresh {
		return
	}

	fresh := FromPercentiles(frames, c.pLow, c.pHigh)
	cur := *c.rng.Load()
	blended := Range{
		MinMM: int(smoothingAlpha*float64(fresh.MinMM) + (1-smoothingAlpha)*float64(cur.MinMM)),
		MaxMM: int(smoothingAlpha*float64(fresh.MaxMM) + (1-smoothingAlpha)*float64(cur.MaxMM)),
	}
	if blended.MaxMM <= blended.MinMM {
		blended = Range{MinMM: DefaultMinMM, MaxMM: DefaultMaxMM}
	}
	c.rng.Store(&blended)
	c.lastRefresh = now
	GetLogger().Info("depth calibration refreshed",
		"min_mm", blended.MinMM, "max_mm", blended.MaxMM)
}

// FromPercentiles pools all valid (>0) samples across the frames and
// computes the [pLow, pHigh] percentile window. Fewer than minSamples valid
// samples, or a degenerate window, yields the default range.
func FromPercentiles(frames []*realsense.DepthFrame, pLow, pHigh float64) Range {
	var vals []float64
	for _, f := range frames {
		if f == nil {
			continue
		}
		for _, v := range f.Data {
			if v > 0 {
				vals = append(vals, float64(v))
			}
		}
	}
	if len(vals) < minSamples {
		return Range{MinMM: DefaultMinMM, MaxMM: DefaultMaxMM}
	}

	sort.Float64s(vals)
	minMM := int(percentile(vals, pLow))
	maxMM := int(percentile(vals, pHigh))
	if maxMM <= minMM {
		return Range{MinMM: DefaultMinMM, MaxMM: DefaultMaxMM}
	}
	return Range{MinMM: minMM, MaxMM: maxMM}
}

// percentile computes the p-th percentile of sorted values with linear
// interpolation between adjacent ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
