// tick.go: one full capture, calibrate, process, detect, assemble, publish
// cycle.
package hub

import (
	"context"
	"encoding/json"
	"image"
	"sort"
	"time"

	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/assemble"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/detect"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/frameproc"
	"github.com/chiaramastino/MEI-IntelRealSense-TopView-People-Count-Per-Area-Plugin-UE5/internal/realsense"
)

// tick runs one full cycle. Errors are logged and absorbed, the scheduling
// loop never stops because of a failed tick.
func (h *Hub) tick(now time.Time) {
	frames, attempted := h.registry.CaptureAll()

	if h.metrics != nil {
		h.metrics.Hub.DevicesLive.Set(float64(attempted))
		h.metrics.Hub.CaptureFailures.Add(float64(attempted - len(frames)))
	}

	h.mu.Lock()
	autoDepth := h.autoDepth
	useDepth := h.useDepthInput
	h.mu.Unlock()

	if autoDepth && len(frames) > 0 {
		depthFrames := make([]*realsense.DepthFrame, 0, len(frames))
		for _, pair := range frames {
			depthFrames = append(depthFrames, pair.Depth)
		}
		h.calibrator.Observe(depthFrames, now)
	}

	serials, images := h.prepareInputs(frames, useDepth)

	if len(images) == 0 {
		snapshot := h.assembler.Assemble(nil, now)
		h.publish(snapshot)
		return
	}

	start := time.Now()
	results, err := h.detector.Detect(context.Background(), images)
	if err != nil {
		GetLogger().Error("detection failed, skipping tick", "error", err)
		return
	}
	if h.metrics != nil {
		h.metrics.Hub.DetectionLatency.Observe(time.Since(start).Seconds())
	}

	entries := make([]assemble.Entry, 0, len(results))
	total := 0
	for i, res := range results {
		entry := assemble.Entry{Serial: serials[i], Count: res.Count}
		if h.session != nil {
			entry.Annotated = detect.Annotate(images[i], res.Boxes)
		}
		entries = append(entries, entry)
		total += res.Count
	}

	snapshot := h.assembler.Assemble(entries, now)
	h.publish(snapshot)

	if h.metrics != nil {
		h.metrics.Hub.TicksTotal.Inc()
		h.metrics.Hub.PeopleCounted.Add(float64(total))
	}

	GetLogger().Debug("tick complete",
		"devices", len(serials),
		"people", total,
		"session_total", h.assembler.SessionTotal())
}

// prepareInputs converts the tick's frame pairs into detector-ready images,
// ordered by serial so counts can be paired back to devices.
func (h *Hub) prepareInputs(frames map[string]*realsense.FramePair, useDepth bool) ([]string, []*image.RGBA) {
	serials := make([]string, 0, len(frames))
	for serial := range frames {
		serials = append(serials, serial)
	}
	sort.Strings(serials)

	mode := frameproc.ModeColor
	if useDepth {
		mode = frameproc.ModeDepth
	}
	rng := h.calibrator.Range()

	images := make([]*image.RGBA, 0, len(serials))
	for _, serial := range serials {
		img := frameproc.Process(frames[serial], rng, mode,
			h.settings.Hub.Detector.InputWidth, h.settings.Hub.Detector.InputHeight)
		images = append(images, img)
	}
	return serials, images
}

// publish sends the snapshot on the data channel and mirrors it to MQTT
// when the mirror is connected.
func (h *Hub) publish(snapshot any) {
	h.publisher.SendJSON(snapshot)
	if h.metrics != nil {
		h.metrics.Hub.PayloadsSent.Inc()
	}

	if h.mqttClient != nil && h.mqttClient.IsConnected() {
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.mqttClient.Publish(ctx, h.settings.Hub.MQTT.Topic, string(payload)); err != nil {
			GetLogger().Debug("MQTT mirror publish failed", "error", err)
		}
	}
}
