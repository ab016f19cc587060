package portaudio

// PulseAudio and PipeWire expose a monitor source per sink.
var loopbackMarkers = []string{"Monitor of", ".monitor"}
