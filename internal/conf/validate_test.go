package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Hub.DataPort = 7777
	s.Hub.CmdPort = 7780
	s.Hub.Capture = CaptureSettings{Width: 640, Height: 480, FPS: 30}
	s.Hub.Detector = DetectorSettings{Confidence: 0.55, InputWidth: 640, InputHeight: 480}
	s.Hub.Depth = DepthSettings{MinMM: 300, MaxMM: 4500, PLow: 5, PHigh: 95}
	s.Router.DataPort = 7777
	s.Router.CmdPort = 7780
	s.Router.OSC = OSCSettings{InPort: 5001, MilluminHost: "127.0.0.1", MilluminPort: 5000}
	return s
}

func TestValidateSettingsAccepts(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero data port", func(s *Settings) { s.Hub.DataPort = 0 }},
		{"command port too large", func(s *Settings) { s.Hub.CmdPort = 70000 }},
		{"zero resolution", func(s *Settings) { s.Hub.Capture.Width = 0 }},
		{"zero frame rate", func(s *Settings) { s.Hub.Capture.FPS = 0 }},
		{"confidence above one", func(s *Settings) { s.Hub.Detector.Confidence = 1.5 }},
		{"inverted depth range", func(s *Settings) { s.Hub.Depth.MinMM = 5000 }},
		{"inverted percentiles", func(s *Settings) { s.Hub.Depth.PLow = 95; s.Hub.Depth.PHigh = 5 }},
		{"router data port", func(s *Settings) { s.Router.DataPort = -1 }},
		{"router osc port", func(s *Settings) { s.Router.OSC.InPort = 0 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(s)
			assert.Error(t, ValidateSettings(s))
		})
	}
}
