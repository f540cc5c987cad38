// Package realsense owns the depth camera fleet: SDK boundary interfaces,
// a registry with background discovery and bounded per-device capture.
package realsense

import (
	"image"
	"time"
)

// DepthFrame is one 16-bit depth matrix in millimeters.
type DepthFrame struct {
	Width  int
	Height int
	Data   []uint16 // row-major, Width*Height samples
}

// At returns the depth sample at (x, y) in millimeters.
func (f *DepthFrame) At(x, y int) uint16 {
	return f.Data[y*f.Width+x]
}

// FramePair is one aligned depth+color capture from a single device. Scoped
// to the tick that produced it, never retained.
type FramePair struct {
	Serial     string
	CapturedAt time.Time
	Depth      *DepthFrame
	Color      *image.RGBA
}

// Device is one opened capture stream. Implementations are owned exclusively
// by the registry, handles never leak past its API.
type Device interface {
	// Serial returns the device serial identifier.
	Serial() string
	// Capture blocks until one aligned frame pair is available or the
	// timeout elapses.
	Capture(timeout time.Duration) (*FramePair, error)
	// Close stops the capture stream.
	Close() error
}

// StreamConfig is the capture stream configuration applied on open.
type StreamConfig struct {
	Width  int
	Height int
	FPS    int
}

// Provider abstracts the camera SDK: enumeration plus opening a stream with
// depth-to-color alignment configured.
type Provider interface {
	// Enumerate returns the serials of all currently connected devices.
	Enumerate() ([]string, error)
	// Open starts a capture stream on the device with the given serial.
	Open(serial string, cfg StreamConfig) (Device, error)
}
