// Package mem provides the byte buffers and the bound object model for
// declarative memory layouts.
//
// A Buffer is the raw storage for a device memory image. Binding a
// parsed structure definition to a Buffer produces a tree of typed
// accessors (Struct, Array, Int, Bits, BCD, Char) that read and write
// the buffer in place: every SetValue writes through immediately and
// every Value re-reads the buffer, so the buffer is always the single
// source of truth and is what gets shipped to or from the device.
//
// Nothing in this package locks. A buffer and the views bound to it
// belong to one session at a time; callers needing cross-goroutine
// access must serialize it externally.
package mem

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange is returned for buffer access outside the valid extent.
var ErrOutOfRange = errors.New("offset out of range")

// Buffer is the raw storage a layout is bound to. Implementations must
// support random access at byte granularity.
type Buffer interface {
	// Len returns the addressable size in bytes.
	Len() int
	// Peek returns n bytes starting at offset. The result is a copy.
	Peek(offset, n int) ([]byte, error)
	// Poke overwrites len(data) bytes starting at offset.
	Poke(offset int, data []byte) error
}

// Map is a contiguous memory image, the common case for radios that
// transfer their full address space.
type Map struct {
	data []byte
}

// NewMap returns a Map holding a copy of data.
func NewMap(data []byte) *Map {
	return &Map{data: append([]byte(nil), data...)}
}

// Len returns the image size in bytes.
func (m *Map) Len() int { return len(m.data) }

// Peek returns a copy of n bytes starting at offset.
func (m *Map) Peek(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > len(m.data) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, offset, offset+n, len(m.data))
	}
	return append([]byte(nil), m.data[offset:offset+n]...), nil
}

// Poke overwrites bytes starting at offset.
func (m *Map) Poke(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > len(m.data) {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, offset, offset+len(data), len(m.data))
	}
	copy(m.data[offset:], data)
	return nil
}

// Bytes returns a copy of the entire image, ready for transmission to
// the device or saving to a file.
func (m *Map) Bytes() []byte {
	return append([]byte(nil), m.data...)
}

// Truncate shortens the image to size bytes. Views bound beyond the new
// size become invalid.
func (m *Map) Truncate(size int) {
	if size < len(m.data) {
		m.data = m.data[:size]
	}
}

// Hexdump returns a printable representation of the range [start, end),
// 16 bytes per row.
func (m *Map) Hexdump(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end <= 0 || end > len(m.data) {
		end = len(m.data)
	}

	var b strings.Builder
	for row := start; row < end; row += 16 {
		fmt.Fprintf(&b, "%08x  ", row)
		for i := row; i < row+16; i++ {
			if i < end {
				fmt.Fprintf(&b, "%02x ", m.data[i])
			} else {
				b.WriteString("   ")
			}
		}
		b.WriteByte(' ')
		for i := row; i < min(row+16, end); i++ {
			c := m.data[i]
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			b.WriteByte(c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// SparseMap is an address-keyed memory image for protocols that address
// a large space but only ever transfer a few regions of it. Bytes that
// were never written read back as the fill byte (0xFF by default, the
// dominant "erased" convention).
type SparseMap struct {
	size int
	fill byte
	data map[int]byte
}

// NewSparseMap returns an empty sparse image of the given addressable
// size with 0xFF fill.
func NewSparseMap(size int) *SparseMap {
	return &SparseMap{size: size, fill: 0xFF, data: make(map[int]byte)}
}

// SetFill changes the byte returned for unwritten addresses.
func (m *SparseMap) SetFill(b byte) { m.fill = b }

// Len returns the addressable size in bytes.
func (m *SparseMap) Len() int { return m.size }

// Peek returns n bytes starting at offset; unwritten addresses yield
// the fill byte.
func (m *SparseMap) Peek(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > m.size {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, offset, offset+n, m.size)
	}
	out := make([]byte, n)
	for i := range out {
		if b, ok := m.data[offset+i]; ok {
			out[i] = b
		} else {
			out[i] = m.fill
		}
	}
	return out, nil
}

// Poke overwrites bytes starting at offset.
func (m *SparseMap) Poke(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > m.size {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrOutOfRange, offset, offset+len(data), m.size)
	}
	for i, b := range data {
		m.data[offset+i] = b
	}
	return nil
}

// Populated returns how many addresses have been explicitly written.
func (m *SparseMap) Populated() int { return len(m.data) }
