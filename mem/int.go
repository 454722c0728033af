package mem

import "fmt"

// Int is a plain integer field of 1 to 4 underlying bytes, signed or
// unsigned, big or little endian.
type Int struct {
	view
	signed bool
	little bool
}

// NewInt binds an integer field of the given byte width at offset.
// Width must be between 1 and 4.
func NewInt(buf Buffer, offset, width int, signed, little bool) *Int {
	if width < 1 || width > 4 {
		panic(fmt.Sprintf("mem: invalid integer width %d", width))
	}
	return &Int{
		view:   view{buf: buf, offset: offset, width: width},
		signed: signed,
		little: little,
	}
}

// Size returns the field size in bits.
func (f *Int) Size() int { return f.width * 8 }

// Value decodes the field from the buffer.
func (f *Int) Value() int64 {
	raw := f.GetRaw()
	var u uint64
	if f.little {
		for i := f.width - 1; i >= 0; i-- {
			u = u<<8 | uint64(raw[i])
		}
	} else {
		for i := 0; i < f.width; i++ {
			u = u<<8 | uint64(raw[i])
		}
	}
	if f.signed {
		shift := 64 - uint(f.width*8)
		return int64(u<<shift) >> shift
	}
	return int64(u)
}

// SetValue encodes v into the buffer, truncating to the field width
// (two's complement wraparound, matching C assignment semantics).
func (f *Int) SetValue(v int64) {
	u := uint64(v)
	raw := make([]byte, f.width)
	if f.little {
		for i := 0; i < f.width; i++ {
			raw[i] = byte(u >> (8 * uint(i)))
		}
	} else {
		for i := f.width - 1; i >= 0; i-- {
			raw[f.width-1-i] = byte(u >> (8 * uint(i)))
		}
	}
	mustPoke(f.buf, f.offset, raw)
}

// Signed reports whether the field is a signed type.
func (f *Int) Signed() bool { return f.signed }

// LittleEndian reports whether the field uses little-endian byte order.
func (f *Int) LittleEndian() bool { return f.little }

func (f *Int) String() string {
	return fmt.Sprintf("0x%0*X", f.width*2, uint64(f.Value())&(1<<(uint(f.width)*8)-1))
}
