package mem

import (
	"errors"
	"fmt"
)

// ErrSizeMismatch is returned by SetRaw when the data length does not
// match the element's underlying width.
var ErrSizeMismatch = errors.New("raw data size mismatch")

// Element is one bound accessor in the object tree: a leaf field, a
// struct, or an array. An Element is a non-owning view into its Buffer;
// reads and writes go straight through with no caching.
//
// The binder validates that every element's extent fits the buffer, so
// the raw accessors do not return read errors; shrinking the buffer
// underneath a bound view (Map.Truncate) invalidates the views and
// makes these methods panic.
type Element interface {
	// Offset returns the byte offset of the element in the buffer.
	Offset() int
	// Size returns the element size in bits.
	Size() int
	// GetRaw returns a copy of the literal underlying bytes.
	GetRaw() []byte
	// SetRaw overwrites the underlying bytes; data must be exactly
	// Size()/8 bytes.
	SetRaw(data []byte) error
	// FillRaw overwrites every underlying byte with b.
	FillRaw(b byte)
}

// view carries the buffer binding common to all leaf elements.
type view struct {
	buf    Buffer
	offset int
	width  int // underlying bytes
}

// Offset returns the byte offset of the element in the buffer.
func (v view) Offset() int { return v.offset }

func (v view) GetRaw() []byte {
	return mustPeek(v.buf, v.offset, v.width)
}

func (v view) SetRaw(data []byte) error {
	if len(data) != v.width {
		return fmt.Errorf("%w: got %d bytes, field holds %d", ErrSizeMismatch, len(data), v.width)
	}
	mustPoke(v.buf, v.offset, data)
	return nil
}

func (v view) FillRaw(b byte) {
	fill := make([]byte, v.width)
	for i := range fill {
		fill[i] = b
	}
	mustPoke(v.buf, v.offset, fill)
}

func mustPeek(buf Buffer, offset, n int) []byte {
	data, err := buf.Peek(offset, n)
	if err != nil {
		panic(fmt.Sprintf("mem: bound view no longer covered by buffer: %v", err))
	}
	return data
}

func mustPoke(buf Buffer, offset int, data []byte) {
	if err := buf.Poke(offset, data); err != nil {
		panic(fmt.Sprintf("mem: bound view no longer covered by buffer: %v", err))
	}
}
