// testing.go: in-package test doubles for the detector boundary.
package detect

import (
	"context"
	"image"
	"sync"
)

// StaticDetector returns preconfigured counts in order, cycling when the
// batch is larger than the configured list. Used in tests and by the
// simulated hub.
type StaticDetector struct {
	mu         sync.Mutex
	counts     []int
	confidence float64
	calls      int
}

// NewStaticDetector creates a detector answering with the given per-image
// counts.
func NewStaticDetector(counts ...int) *StaticDetector {
	return &StaticDetector{counts: counts, confidence: 0.5}
}

// Detect returns one Result per image with the preconfigured counts.
func (d *StaticDetector) Detect(_ context.Context, images []*image.RGBA) ([]Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	results := make([]Result, len(images))
	for i := range images {
		if len(d.counts) > 0 {
			results[i] = Result{Count: d.counts[i%len(d.counts)]}
		}
	}
	return results, nil
}

// SetConfidence records the threshold.
func (d *StaticDetector) SetConfidence(conf float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.confidence = conf
}

// Confidence returns the recorded threshold.
func (d *StaticDetector) Confidence() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.confidence
}

// Calls returns how many batches have been run.
func (d *StaticDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// Close is a no-op.
func (d *StaticDetector) Close() {}
