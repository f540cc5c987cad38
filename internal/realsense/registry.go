// registry.go: thread-safe registry of live devices with background discovery.
package realsense

import (
	"sort"
	"sync"
	"time"
)

const (
	discoveryPeriod = 1 * time.Second
	captureTimeout  = 200 * time.Millisecond
)

// Registry discovers devices on a fixed period and owns all open capture
// streams. Add and remove transitions happen only under the registry lock.
type Registry struct {
	provider Provider
	cfg      StreamConfig

	mu      sync.RWMutex
	devices map[string]Device

	quit     chan struct{}
	done     chan struct{}
	shutOnce sync.Once
	started  bool
}

// NewRegistry creates a registry for the given provider. Discovery does not
// run until Start is called.
func NewRegistry(provider Provider, cfg StreamConfig) *Registry {
	return &Registry{
		provider: provider,
		cfg:      cfg,
		devices:  make(map[string]Device),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background discovery loop.
func (r *Registry) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()
	go r.discoveryLoop()
}

// discoveryLoop polls the provider, opens newly seen serials and closes
// vanished ones. Open failures are logged and retried on the next poll,
// never fatal.
func (r *Registry) discoveryLoop() {
	defer close(r.done)
	ticker := time.NewTicker(discoveryPeriod)
	defer ticker.Stop()

	r.refresh()
	for {
		select {
		case <-r.quit:
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

func (r *Registry) refresh() {
	serials, err := r.provider.Enumerate()
	if err != nil {
		GetLogger().Error("device enumeration failed", "error", err)
		return
	}

	current := make(map[string]bool, len(serials))
	for _, s := range serials {
		current[s] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// open newly seen serials
	for _, serial := range serials {
		if _, known := r.devices[serial]; known {
			continue
		}
		dev, err := r.provider.Open(serial, r.cfg)
		if err != nil {
			GetLogger().Warn("failed to open device, will retry", "serial", serial, "error", err)
			continue
		}
		r.devices[serial] = dev
		GetLogger().Info("device opened", "serial", serial,
			"width", r.cfg.Width, "height", r.cfg.Height, "fps", r.cfg.FPS)
	}

	// close vanished serials
	for serial, dev := range r.devices {
		if current[serial] {
			continue
		}
		if err := dev.Close(); err != nil {
			GetLogger().Warn("error closing vanished device", "serial", serial, "error", err)
		}
		delete(r.devices, serial)
		GetLogger().Info("device removed", "serial", serial)
	}
}

// List returns a sorted snapshot of live device serials.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	serials := make([]string, 0, len(r.devices))
	for serial := range r.devices {
		serials = append(serials, serial)
	}
	sort.Strings(serials)
	return serials
}

// CaptureAll pulls one frame pair from every live device with a bounded
// per-device wait. Devices that time out or error are omitted from the
// result for this tick, partial results are accepted. The second return
// value is the number of devices attempted, so callers can count failures
// against the set that was actually live for this tick.
func (r *Registry) CaptureAll() (map[string]*FramePair, int) {
	r.mu.RLock()
	devices := make(map[string]Device, len(r.devices))
	for serial, dev := range r.devices {
		devices[serial] = dev
	}
	r.mu.RUnlock()

	out := make(map[string]*FramePair, len(devices))
	for serial, dev := range devices {
		pair, err := dev.Capture(captureTimeout)
		if err != nil {
			GetLogger().Warn("capture failed, skipping device for this tick", "serial", serial, "error", err)
			continue
		}
		if pair == nil || pair.Depth == nil || pair.Color == nil {
			continue
		}
		out[serial] = pair
	}
	return out, len(devices)
}

// Shutdown stops discovery and closes all devices. Idempotent.
func (r *Registry) Shutdown() {
	r.shutOnce.Do(func() {
		close(r.quit)

		r.mu.Lock()
		started := r.started
		r.mu.Unlock()
		if started {
			<-r.done
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		for serial, dev := range r.devices {
			if err := dev.Close(); err != nil {
				GetLogger().Warn("error closing device on shutdown", "serial", serial, "error", err)
			}
			delete(r.devices, serial)
		}
	})
}
