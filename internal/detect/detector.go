// Package detect defines the person detection boundary and a TFLite-backed
// implementation.
package detect

import (
	"context"
	"image"
)

// Result is the detection outcome for one input image.
type Result struct {
	Count int               // number of persons detected
	Boxes []image.Rectangle // bounding boxes in input pixel coordinates
}

// Detector turns a batch of detector-ready images into per-image person
// counts. Implementations are synchronous, at most one batch is in flight.
type Detector interface {
	// Detect runs inference over the batch in order. The returned slice
	// has one Result per input image.
	Detect(ctx context.Context, images []*image.RGBA) ([]Result, error)
	// SetConfidence updates the confidence threshold applied to later
	// batches.
	SetConfidence(conf float64)
	// Confidence returns the current confidence threshold.
	Confidence() float64
	// Close releases the model resources.
	Close()
}
