package mem

import "fmt"

// Bits is one member of a bitfield run: a value of nbits bits inside a
// storage cell of one or more bytes shared with its siblings. Bit
// numbering is MSB-first: the first member declared in a run occupies
// the most significant bits of the cell.
type Bits struct {
	view
	little bool
	shift  int // the member occupies cell bits [shift-nbits, shift)
	nbits  int
}

// NewBits binds a bitfield member. storage is the width in bytes of the
// shared cell, little its byte order; the member occupies bits
// [shift-nbits, shift) counting from the least significant end of the
// cell value.
func NewBits(buf Buffer, offset, storage int, little bool, shift, nbits int) *Bits {
	if nbits < 1 || shift > storage*8 || shift-nbits < 0 {
		panic(fmt.Sprintf("mem: invalid bitfield member (storage %d, shift %d, bits %d)",
			storage, shift, nbits))
	}
	return &Bits{
		view:   view{buf: buf, offset: offset, width: storage},
		little: little,
		shift:  shift,
		nbits:  nbits,
	}
}

// Size returns the member width in bits.
func (f *Bits) Size() int { return f.nbits }

// Bits returns the member width in bits (same as Size).
func (f *Bits) Bits() int { return f.nbits }

func (f *Bits) cell() *Int {
	return NewInt(f.buf, f.offset, f.width, false, f.little)
}

func (f *Bits) mask() int64 {
	return (1<<uint(f.nbits) - 1) << uint(f.shift-f.nbits)
}

// Value decodes the member from the shared cell.
func (f *Bits) Value() int64 {
	cell := f.cell().Value()
	return (cell & f.mask()) >> uint(f.shift-f.nbits)
}

// SetValue writes the member, preserving the sibling bits of the cell
// (byte-level read-modify-write).
func (f *Bits) SetValue(v int64) {
	mask := f.mask()
	cell := f.cell().Value() &^ mask
	cell |= (v << uint(f.shift-f.nbits)) & mask
	f.cell().SetValue(cell)
}

func (f *Bits) String() string {
	return fmt.Sprintf("%d (%db @ %#04x)", f.Value(), f.nbits, f.offset)
}
