package portaudio

import (
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/tejashwikalptaru/goscope/internal/domain"
)

// toDeviceInfo converts a PortAudio device, flagging loopback captures.
func toDeviceInfo(d *portaudio.DeviceInfo) domain.DeviceInfo {
	info := domain.DeviceInfo{
		ID:                d.Index,
		Name:              d.Name,
		InputChannels:     d.MaxInputChannels,
		OutputChannels:    d.MaxOutputChannels,
		DefaultSampleRate: d.DefaultSampleRate,
	}
	if d.HostApi != nil {
		info.HostAPI = d.HostApi.Name
	}
	info.IsLoopback = info.CanCapture() && isLoopbackName(info.Name, loopbackMarkers)
	return info
}

// isLoopbackName reports whether name contains any marker, ignoring case.
func isLoopbackName(name string, markers []string) bool {
	lower := strings.ToLower(name)
	for _, m := range markers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// streamChannels caps a device's input channels at maxChannels.
func streamChannels(maxInput int) int {
	if maxInput <= 0 {
		return 0
	}
	if maxInput > maxChannels {
		return maxChannels
	}
	return maxInput
}
