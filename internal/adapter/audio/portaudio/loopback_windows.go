package portaudio

// WASAPI loopback endpoints as exposed by PortAudio builds with loopback
// support, and the legacy Realtek capture of the mixed output.
var loopbackMarkers = []string{"[Loopback]", "Stereo Mix"}
