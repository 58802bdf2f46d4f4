package audio

// sampleRing buffers interleaved stereo samples between the APU and the
// host. When the host falls behind, the oldest frame is dropped so the
// buffer always holds the most recent audio.
type sampleRing struct {
	buf  []int16
	head int
	tail int
	size int
}

func newSampleRing(frames int) *sampleRing {
	return &sampleRing{buf: make([]int16, frames*2)}
}

// push appends one stereo frame, evicting the oldest frame if full.
func (rb *sampleRing) push(left, right int16) {
	if rb.size == len(rb.buf) {
		rb.head = (rb.head + 2) % len(rb.buf)
		rb.size -= 2
	}
	rb.buf[rb.tail] = left
	rb.buf[rb.tail+1] = right
	rb.tail = (rb.tail + 2) % len(rb.buf)
	rb.size += 2
}

// pop copies up to len(dst) samples into dst, keeping frames whole, and
// returns how many samples were written.
func (rb *sampleRing) pop(dst []int16) int {
	n := len(dst) &^ 1
	if n > rb.size {
		n = rb.size
	}
	for i := 0; i < n; i++ {
		dst[i] = rb.buf[rb.head]
		rb.head = (rb.head + 1) % len(rb.buf)
	}
	rb.size -= n
	return n
}

// available returns the number of buffered samples.
func (rb *sampleRing) available() int { return rb.size }

func (rb *sampleRing) reset() {
	rb.head = 0
	rb.tail = 0
	rb.size = 0
}
