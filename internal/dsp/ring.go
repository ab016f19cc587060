package dsp

// Ring is a fixed-capacity FIFO of samples that drops the oldest values as
// new ones arrive. It always holds exactly Len() samples, starting at zero.
//
// A Ring is not safe for concurrent use. The capture worker writes it and
// publishes copies taken with Snapshot.
type Ring struct {
	buf  []float64
	head int // index of the oldest sample
}

// NewRing creates a zero-filled ring of the given capacity.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Len returns the fixed number of samples in the ring.
func (r *Ring) Len() int {
	return len(r.buf)
}

// Push appends samples, evicting the oldest ones.
func (r *Ring) Push(samples []float64) {
	// Only the last Len() samples can survive
	if len(samples) > len(r.buf) {
		samples = samples[len(samples)-len(r.buf):]
	}
	for _, s := range samples {
		r.buf[r.head] = s
		r.head++
		if r.head == len(r.buf) {
			r.head = 0
		}
	}
}

// Snapshot returns a copy of the ring, oldest sample first.
func (r *Ring) Snapshot() []float64 {
	out := make([]float64, len(r.buf))
	n := copy(out, r.buf[r.head:])
	copy(out[n:], r.buf[:r.head])
	return out
}

// Reset zeroes every sample.
func (r *Ring) Reset() {
	for i := range r.buf {
		r.buf[i] = 0
	}
	r.head = 0
}
