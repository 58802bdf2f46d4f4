// Package state implements the save-state codec: a fixed-layout
// little-endian walk over every component's fields. Components append to a
// Writer in a stable documented order and read back from a Reader in the
// same order, which makes the blob size a constant for a given build.
package state

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a Reader runs out of input mid-walk.
var ErrShortBuffer = errors.New("state: buffer too short")

// Writer accumulates the serialized machine state.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity for a typical full snapshot.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 32*1024)}
}

// Bytes returns the accumulated blob.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) U16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) I16(v int16) {
	w.U16(uint16(v))
}

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// Raw appends a raw byte region of fixed length.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Reader walks a blob produced by Writer. After a failed read every
// subsequent read returns the zero value; callers check Err once at the end.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader wraps an existing blob.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = ErrShortBuffer
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) I16() int16 {
	return int16(r.U16())
}

func (r *Reader) Bool() bool {
	return r.U8() != 0
}

// Raw fills dst with the next len(dst) bytes.
func (r *Reader) Raw(dst []byte) {
	b := r.take(len(dst))
	if b != nil {
		copy(dst, b)
	}
}
