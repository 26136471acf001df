package codec

import (
	"io"
)

// Buffer is the read buffer of one connection. Bytes are appended at the end
// by Fill and consumed from the front by the Decoder.
//
// Slices handed out by the Decoder point into the buffer and stay valid until
// the next call to Fill, which may move unconsumed bytes to the front.
type Buffer struct {
	data []byte
	r    int // start of unconsumed bytes
	w    int // end of buffered bytes
}

// NewBuffer creates a buffer able to hold one frame with a payload of up to
// maxPayload bytes
func NewBuffer(maxPayload int) *Buffer {
	return &Buffer{data: make([]byte, HeaderLen+maxPayload)}
}

// Len returns the number of buffered but not yet consumed bytes
func (b *Buffer) Len() int {
	return b.w - b.r
}

// Bytes returns the unconsumed bytes
func (b *Buffer) Bytes() []byte {
	return b.data[b.r:b.w]
}

// Write appends p to the buffer. It returns io.ErrShortWrite if p does not
// fit. It is used to feed the decoder without a reader.
func (b *Buffer) Write(p []byte) (int, error) {
	b.compact()
	n := copy(b.data[b.w:], p)
	b.w += n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Fill reads once from r into the free space of the buffer.
// A read of zero bytes without error is reported as io.ErrNoProgress.
func (b *Buffer) Fill(r io.Reader) (int, error) {
	b.compact()
	if b.w == len(b.data) {
		return 0, io.ErrShortBuffer
	}

	n, err := r.Read(b.data[b.w:])
	b.w += n
	if n > 0 {
		return n, nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	return 0, err
}

// Reset drops all buffered bytes
func (b *Buffer) Reset() {
	b.r, b.w = 0, 0
}

// advance consumes n bytes and returns them
func (b *Buffer) advance(n int) []byte {
	p := b.data[b.r : b.r+n]
	b.r += n
	return p
}

// compact moves the unconsumed bytes to the front of the buffer
func (b *Buffer) compact() {
	if b.r == 0 {
		return
	}
	if b.r == b.w {
		b.r, b.w = 0, 0
		return
	}
	b.w = copy(b.data, b.data[b.r:b.w])
	b.r = 0
}
