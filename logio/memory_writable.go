package logio

import (
	"bytes"
	"io"
)

// MemoryWritable buffers writes in memory and hands them back line by line.
// The read cursor is independent of the write position. It is not safe for
// concurrent use.
type MemoryWritable struct {
	buf    []byte
	off    int
	closed bool
}

// NewMemoryWritable returns an empty in-memory sink.
func NewMemoryWritable() *MemoryWritable {
	return &MemoryWritable{}
}

// Write appends p to the buffer.
func (m *MemoryWritable) Write(p []byte) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	m.buf = append(m.buf, p...)
	return len(p), nil
}

// ReadLine returns the next unread line including its trailing newline. A
// final line without a newline is returned as is. io.EOF means everything
// written so far has been consumed.
func (m *MemoryWritable) ReadLine() (string, error) {
	if m.closed {
		return "", ErrClosed
	}
	if m.off >= len(m.buf) {
		return "", io.EOF
	}

	rest := m.buf[m.off:]
	end := len(rest)
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		end = i + 1
	}
	m.off += end
	return string(rest[:end]), nil
}

// Len is the number of unread bytes.
func (m *MemoryWritable) Len() int {
	return len(m.buf) - m.off
}

// String returns everything written, read or not.
func (m *MemoryWritable) String() string {
	return string(m.buf)
}

// Close releases the buffer. Closing twice is a no-op.
func (m *MemoryWritable) Close() error {
	m.buf = nil
	m.off = 0
	m.closed = true
	return nil
}
