// Package jsonenc appends compact JSON to byte slices without reflection on
// the common paths. Objects keep caller order and HTML characters are not
// escaped.
package jsonenc

import "sync"

// Buffer is a growing byte buffer. The zero value is ready to use.
type Buffer struct{ B []byte }

func (buf *Buffer) writeString(s string) { buf.B = append(buf.B, s...) }
func (buf *Buffer) writeByte(c byte)     { buf.B = append(buf.B, c) }
func (buf *Buffer) writeBytes(p []byte)  { buf.B = append(buf.B, p...) }

// String returns the encoded bytes as a string.
func (buf *Buffer) String() string { return string(buf.B) }

// Len reports the number of encoded bytes.
func (buf *Buffer) Len() int { return len(buf.B) }

var bufPool = sync.Pool{New: func() any { return &Buffer{B: make([]byte, 0, 512)} }}

// Get returns an empty pooled buffer.
func Get() *Buffer {
	buf := bufPool.Get().(*Buffer)
	buf.B = buf.B[:0]
	return buf
}

// Put returns buf to the pool. Large buffers are dropped.
func Put(buf *Buffer) {
	if cap(buf.B) <= 64*1024 {
		bufPool.Put(buf)
	}
}
