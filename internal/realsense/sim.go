// sim.go: simulated camera provider for development without RealSense
// hardware and for tests.
package realsense

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"
)

// SimProvider presents a configurable set of simulated cameras. Devices can
// be attached and detached at runtime to exercise discovery.
type SimProvider struct {
	mu      sync.Mutex
	serials []string
	failing map[string]bool
}

// NewSimProvider creates a provider presenting the given serials.
func NewSimProvider(serials ...string) *SimProvider {
	p := &SimProvider{failing: make(map[string]bool)}
	p.serials = append(p.serials, serials...)
	return p
}

// Enumerate returns the currently attached serials.
func (p *SimProvider) Enumerate() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.serials))
	copy(out, p.serials)
	return out, nil
}

// Open starts a simulated stream for the serial.
func (p *SimProvider) Open(serial string, cfg StreamConfig) (Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.serials {
		if s == serial {
			return &simDevice{serial: serial, cfg: cfg, provider: p}, nil
		}
	}
	return nil, fmt.Errorf("no such device: %s", serial)
}

// Attach adds a serial to the enumeration set.
func (p *SimProvider) Attach(serial string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.serials {
		if s == serial {
			return
		}
	}
	p.serials = append(p.serials, serial)
}

// Detach removes a serial from the enumeration set.
func (p *SimProvider) Detach(serial string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.serials {
		if s == serial {
			p.serials = append(p.serials[:i], p.serials[i+1:]...)
			return
		}
	}
}

// SetFailing marks a device so its captures error until cleared.
func (p *SimProvider) SetFailing(serial string, failing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing[serial] = failing
}

func (p *SimProvider) isFailing(serial string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failing[serial]
}

type simDevice struct {
	serial   string
	cfg      StreamConfig
	provider *SimProvider

	mu     sync.Mutex
	closed bool
}

func (d *simDevice) Serial() string { return d.serial }

// Capture synthesizes one frame pair: a flat floor at 3000 mm with one
// square blob at 1200 mm so depth processing has structure to work on.
func (d *simDevice) Capture(timeout time.Duration) (*FramePair, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("device %s is closed", d.serial)
	}
	if d.provider.isFailing(d.serial) {
		return nil, fmt.Errorf("simulated capture timeout on %s", d.serial)
	}

	w, h := d.cfg.Width, d.cfg.Height
	depth := &DepthFrame{Width: w, Height: h, Data: make([]uint16, w*h)}
	for i := range depth.Data {
		depth.Data[i] = 3000
	}
	// blob roughly centered, a quarter of the frame
	for y := h / 4; y < h/2; y++ {
		for x := w / 4; x < w/2; x++ {
			depth.Data[y*w+x] = 1200
		}
	}

	clr := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			clr.SetRGBA(x, y, color.RGBA{R: 96, G: 96, B: 96, A: 255})
		}
	}

	return &FramePair{
		Serial:     d.serial,
		CapturedAt: time.Now(),
		Depth:      depth,
		Color:      clr,
	}, nil
}

func (d *simDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
