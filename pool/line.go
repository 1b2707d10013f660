// Package pool provides sync.Pool wrappers for reducing GC pressure.
package pool

import "sync"

// LineBuilder builds one ER7 segment line in a reusable byte buffer. The
// serializer acquires one per segment instead of allocating a fresh buffer
// for every line.
type LineBuilder struct {
	buf []byte
}

// lineBuilderPool holds reusable LineBuilder instances.
var lineBuilderPool = sync.Pool{
	New: func() any {
		return &LineBuilder{
			buf: make([]byte, 0, 256),
		}
	},
}

// AcquireLineBuilder gets a LineBuilder from the pool.
// Call Release() when done to return it to the pool.
func AcquireLineBuilder() *LineBuilder {
	lb := lineBuilderPool.Get().(*LineBuilder)
	lb.Reset()
	return lb
}

// Release returns the LineBuilder to the pool.
func (b *LineBuilder) Release() {
	if b == nil {
		return
	}
	// Don't return oversized buffers to the pool.
	if cap(b.buf) <= 1<<16 {
		lineBuilderPool.Put(b)
	}
}

// Reset clears the buffer without deallocating.
func (b *LineBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the current length of the line.
func (b *LineBuilder) Len() int {
	return len(b.buf)
}

// WriteString appends a string to the line.
func (b *LineBuilder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteByte appends a single byte to the line.
func (b *LineBuilder) WriteByte(c byte) {
	b.buf = append(b.buf, c)
}

// WriteJoined appends parts joined by sep.
func (b *LineBuilder) WriteJoined(parts []string, sep byte) {
	for i, part := range parts {
		if i > 0 {
			b.buf = append(b.buf, sep)
		}
		b.buf = append(b.buf, part...)
	}
}

// String returns a copy of the accumulated line.
func (b *LineBuilder) String() string {
	return string(b.buf)
}
