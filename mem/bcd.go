package mem

import "fmt"

// BCD is a single packed binary-coded-decimal byte: two decimal digits,
// tens in the high nibble. Multi-byte BCD values are arrays of BCD
// elements; the byte order (lbcd vs bbcd) lives on the array.
//
// Decoding is deliberately lenient: nibbles outside 0-9 decode at face
// value (0xF as 15), so an erased 0xFF byte reads as 165, strictly
// greater than any valid two-digit value. Use Valid to detect the
// sentinel case.
type BCD struct {
	view
	little bool
}

// NewBCD binds one BCD byte at offset. little records whether the byte
// belongs to a little-endian (lbcd) run.
func NewBCD(buf Buffer, offset int, little bool) *BCD {
	return &BCD{
		view:   view{buf: buf, offset: offset, width: 1},
		little: little,
	}
}

// Size returns the field size in bits.
func (f *BCD) Size() int { return 8 }

// Digits returns the two digits of the byte, high nibble first.
func (f *BCD) Digits() (tens, ones int) {
	b := f.GetRaw()[0]
	return int(b >> 4), int(b & 0x0F)
}

// Value decodes the byte as tens*10 + ones.
func (f *BCD) Value() int64 {
	tens, ones := f.Digits()
	return int64(tens*10 + ones)
}

// SetValue encodes v modulo 100 into the byte.
func (f *BCD) SetValue(v int64) {
	v %= 100
	if v < 0 {
		v += 100
	}
	mustPoke(f.buf, f.offset, []byte{byte(v/10)<<4 | byte(v%10)})
}

// Valid reports whether both nibbles are decimal digits.
func (f *BCD) Valid() bool {
	tens, ones := f.Digits()
	return tens <= 9 && ones <= 9
}

// LittleEndian reports whether the byte belongs to an lbcd run.
func (f *BCD) LittleEndian() bool { return f.little }

func (f *BCD) String() string {
	tens, ones := f.Digits()
	return fmt.Sprintf("%X%X", tens, ones)
}
