package mem

import (
	"errors"
	"fmt"
)

// ErrIndexRange is returned for array access outside the declared
// bounds.
var ErrIndexRange = errors.New("array index out of range")

// ErrNotBCD is returned by the whole-array BCD accessors on arrays of
// other element types.
var ErrNotBCD = errors.New("not a BCD array")

// ErrNotChar is returned by the text accessors on arrays of other
// element types.
var ErrNotChar = errors.New("not a char array")

// ErrTextLength is returned by SetText when the string length does not
// match the declared array length.
var ErrTextLength = errors.New("text length mismatch")

// Array is a fixed-length homogeneous sequence of bound elements.
// Beyond per-element access it gives whole-array views for the two
// aggregate conventions of the layout language: multi-byte BCD numbers
// and fixed-width strings.
type Array struct {
	buf    Buffer
	offset int
	elems  []Element
}

// NewArray returns an array over elems, which must be contiguous in
// buf starting at offset and all share one element type.
func NewArray(buf Buffer, offset int, elems []Element) *Array {
	return &Array{buf: buf, offset: offset, elems: elems}
}

// Len returns the declared element count.
func (a *Array) Len() int { return len(a.elems) }

// At returns the i-th element.
func (a *Array) At(i int) (Element, error) {
	if i < 0 || i >= len(a.elems) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexRange, i, len(a.elems))
	}
	return a.elems[i], nil
}

// Elements returns the elements in order for iteration.
func (a *Array) Elements() []Element {
	return append([]Element(nil), a.elems...)
}

// Offset returns the byte offset of the first element.
func (a *Array) Offset() int { return a.offset }

// Size returns the total size in bits.
func (a *Array) Size() int {
	size := 0
	for _, el := range a.elems {
		size += el.Size()
	}
	return size
}

// GetRaw returns a copy of the array's contiguous underlying bytes.
func (a *Array) GetRaw() []byte {
	return mustPeek(a.buf, a.offset, a.Size()/8)
}

// SetRaw overwrites the array's bytes; data must be exactly Size()/8
// bytes. Elements that share bytes (bit arrays) are overwritten as a
// whole span.
func (a *Array) SetRaw(data []byte) error {
	if len(data) != a.Size()/8 {
		return fmt.Errorf("%w: got %d bytes, array holds %d", ErrSizeMismatch, len(data), a.Size()/8)
	}
	mustPoke(a.buf, a.offset, data)
	return nil
}

// FillRaw overwrites every byte of the array with b.
func (a *Array) FillRaw(b byte) {
	fill := make([]byte, a.Size()/8)
	for i := range fill {
		fill[i] = b
	}
	mustPoke(a.buf, a.offset, fill)
}

// BCDValue decodes the whole array as one packed BCD integer, honoring
// the lbcd/bbcd byte order of the elements. An erased array (0xFF
// bytes) decodes to a value larger than any valid reading; use Valid on
// the elements to detect it.
func (a *Array) BCDValue() (int64, error) {
	var value int64
	for i := range a.elems {
		el := a.elems[a.bcdIndex(i)]
		bcd, ok := el.(*BCD)
		if !ok {
			return 0, fmt.Errorf("%w: element %T", ErrNotBCD, el)
		}
		tens, ones := bcd.Digits()
		value = value*100 + int64(tens*10+ones)
	}
	return value, nil
}

// SetBCDValue encodes v across the whole array as packed BCD, honoring
// the lbcd/bbcd byte order; v wraps modulo the array's capacity.
func (a *Array) SetBCDValue(v int64) error {
	for i := len(a.elems) - 1; i >= 0; i-- {
		el := a.elems[a.bcdIndex(i)]
		bcd, ok := el.(*BCD)
		if !ok {
			return fmt.Errorf("%w: element %T", ErrNotBCD, el)
		}
		bcd.SetValue(v % 100)
		v /= 100
	}
	return nil
}

// bcdIndex maps a most-significant-first position to the element index,
// reversing for little-endian (lbcd) runs.
func (a *Array) bcdIndex(i int) int {
	if bcd, ok := a.elems[0].(*BCD); ok && bcd.LittleEndian() {
		return len(a.elems) - 1 - i
	}
	return i
}

// Text returns the full fixed-width string verbatim, including any pad
// bytes.
func (a *Array) Text() (string, error) {
	raw := make([]byte, 0, len(a.elems))
	for _, el := range a.elems {
		ch, ok := el.(*Char)
		if !ok {
			return "", fmt.Errorf("%w: element %T", ErrNotChar, el)
		}
		raw = append(raw, ch.Value())
	}
	return string(raw), nil
}

// TextBefore returns the string up to (excluding) the first pad byte.
// Radio formats disagree on padding, so the pad is the caller's choice;
// 0xFF is the dominant convention.
func (a *Array) TextBefore(pad byte) (string, error) {
	full, err := a.Text()
	if err != nil {
		return "", err
	}
	for i := 0; i < len(full); i++ {
		if full[i] == pad {
			return full[:i], nil
		}
	}
	return full, nil
}

// SetText writes s across the array; s must be exactly Len() bytes.
// Callers pad shorter names themselves, using whatever pad byte their
// format requires.
func (a *Array) SetText(s string) error {
	if len(s) != len(a.elems) {
		return fmt.Errorf("%w: got %d chars, array holds %d", ErrTextLength, len(s), len(a.elems))
	}
	for i, el := range a.elems {
		ch, ok := el.(*Char)
		if !ok {
			return fmt.Errorf("%w: element %T", ErrNotChar, el)
		}
		ch.SetValue(s[i])
	}
	return nil
}

func (a *Array) String() string {
	return fmt.Sprintf("array[%d] at %#04x", len(a.elems), a.offset)
}
