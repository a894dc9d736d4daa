package velocypack

// inlineBufferSize is the number of bytes a Buffer can hold before its
// first heap allocation. Most top-level values fit.
const inlineBufferSize = 160

// growthFactor is applied to the capacity whenever the buffer overflows.
const growthFactor = 3 // over 2, i.e. 1.5x

// Buffer is an append-only byte container. It starts out writing into an
// inline region and switches to heap storage on first overflow. Bytes
// handed out by Bytes are valid until the next Reserve, Push or Append.
//
// A Buffer must not be copied after first use; Clone makes a deep copy.
type Buffer struct {
	b      []byte
	inline [inlineBufferSize]byte
}

// NewBuffer returns an empty buffer backed by its inline region.
func NewBuffer() *Buffer {
	var buf Buffer
	buf.b = buf.inline[:0]
	return &buf
}

// Len returns the number of bytes written so far.
func (buf *Buffer) Len() int {
	return len(buf.b)
}

// Bytes returns the written bytes. The slice is invalidated by any
// subsequent mutation of the buffer.
func (buf *Buffer) Bytes() []byte {
	return buf.b
}

// Push appends a single byte.
func (buf *Buffer) Push(c byte) {
	buf.Reserve(1)
	buf.b = append(buf.b, c)
}

// Append appends p.
func (buf *Buffer) Append(p []byte) {
	buf.Reserve(len(p))
	buf.b = append(buf.b, p...)
}

// Reserve makes room for n more bytes, growing the capacity by at least
// the growth factor when it must reallocate.
func (buf *Buffer) Reserve(n int) {
	if buf.b == nil {
		buf.b = buf.inline[:0]
	}
	if cap(buf.b)-len(buf.b) >= n {
		return
	}

	newCap := cap(buf.b) * growthFactor / 2
	if newCap < len(buf.b)+n {
		newCap = len(buf.b) + n
	}
	nb := make([]byte, len(buf.b), newCap)
	copy(nb, buf.b)
	buf.b = nb
}

// Grow extends the buffer by n zero bytes and returns the new length.
// Zero-filling matters after Reset: extending re-exposes old storage.
func (buf *Buffer) Grow(n int) int {
	buf.Reserve(n)
	l := len(buf.b)
	buf.b = buf.b[:l+n]
	for i := l; i < l+n; i++ {
		buf.b[i] = 0
	}
	return len(buf.b)
}

// Truncate shortens the buffer to n bytes.
func (buf *Buffer) Truncate(n int) {
	buf.b = buf.b[:n]
}

// Reset empties the buffer but keeps its storage for reuse.
func (buf *Buffer) Reset() {
	if buf.b == nil {
		buf.b = buf.inline[:0]
	}
	buf.b = buf.b[:0]
}

// Clone returns a deep copy of the buffer.
func (buf *Buffer) Clone() *Buffer {
	nb := NewBuffer()
	nb.Append(buf.b)
	return nb
}
