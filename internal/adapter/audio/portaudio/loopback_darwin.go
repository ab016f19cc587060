package portaudio

// CoreAudio has no native loopback; these virtual drivers route output back
// to an input.
var loopbackMarkers = []string{"BlackHole", "Soundflower", "Loopback Audio"}
