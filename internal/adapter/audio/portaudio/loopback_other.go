//go:build !windows && !darwin && !linux

package portaudio

var loopbackMarkers = []string{"Monitor of", ".monitor"}
