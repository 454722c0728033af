package mem

// Char is a single byte interpreted as an ASCII character. Fixed-width
// strings are arrays of Char elements.
type Char struct {
	view
}

// NewChar binds one character byte at offset.
func NewChar(buf Buffer, offset int) *Char {
	return &Char{view: view{buf: buf, offset: offset, width: 1}}
}

// Size returns the field size in bits.
func (f *Char) Size() int { return 8 }

// Value returns the underlying byte.
func (f *Char) Value() byte {
	return f.GetRaw()[0]
}

// SetValue writes the byte.
func (f *Char) SetValue(b byte) {
	mustPoke(f.buf, f.offset, []byte{b})
}

func (f *Char) String() string {
	return string(rune(f.Value()))
}
