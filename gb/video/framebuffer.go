package video

// Screen dimensions of the DMG LCD.
const (
	FrameWidth  = 160
	FrameHeight = 144
)

// FrameSize is the number of pixels in one frame.
const FrameSize = FrameWidth * FrameHeight

// shadePalette maps the four DMG shades to 32-bit ARGB.
var shadePalette = [4]uint32{
	0xFFFFFFFF,
	0xFFAAAAAA,
	0xFF555555,
	0xFF000000,
}

// FrameBuffer holds two full frames of 2-bit shades: the back buffer the
// scanline renderer writes into, and the front buffer handed to the host.
// The buffers swap when the frame completes, so the host never observes a
// partially drawn frame.
type FrameBuffer struct {
	buffers [2][FrameSize]uint8
	front   uint8
}

// NewFrameBuffer returns a frame buffer with both frames cleared to white.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// SetPixel writes a shade into the back buffer.
func (f *FrameBuffer) SetPixel(x, y int, shade uint8) {
	f.buffers[1-f.front][y*FrameWidth+x] = shade
}

// Swap promotes the back buffer to front.
func (f *FrameBuffer) Swap() {
	f.front = 1 - f.front
}

// Clear fills the back buffer with shade 0.
func (f *FrameBuffer) Clear() {
	back := &f.buffers[1-f.front]
	for i := range back {
		back[i] = 0
	}
}

// Front returns the completed frame as one shade byte per pixel in row-major
// order. The slice aliases internal storage and is valid until the next
// frame completes.
func (f *FrameBuffer) Front() []uint8 {
	return f.buffers[f.front][:]
}

// RGBA expands the completed frame into dst as 32-bit ARGB pixels. dst must
// hold FrameSize entries.
func (f *FrameBuffer) RGBA(dst []uint32) {
	front := &f.buffers[f.front]
	for i := range front {
		dst[i] = shadePalette[front[i]&3]
	}
}
