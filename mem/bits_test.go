package mem

import (
	"testing"

	"github.com/gobitwise/gobitwise/internal/testutil"
)

func TestBitsMSBFirst(t *testing.T) {
	// 0b1011_0110: first 1-bit member is the MSB.
	buf := NewMap([]byte{0xB6})

	high := NewBits(buf, 0, 1, false, 8, 1)
	mid := NewBits(buf, 0, 1, false, 7, 3)
	low := NewBits(buf, 0, 1, false, 4, 4)

	testutil.Equal(t, int64(1), high.Value())
	testutil.Equal(t, int64(0b011), mid.Value())
	testutil.Equal(t, int64(0b0110), low.Value())
}

func TestBitsSetPreservesSiblings(t *testing.T) {
	buf := NewMap([]byte{0x00})

	high := NewBits(buf, 0, 1, false, 8, 1)
	mid := NewBits(buf, 0, 1, false, 7, 3)
	low := NewBits(buf, 0, 1, false, 4, 4)

	mid.SetValue(0b101)
	testutil.EqualBytes(t, []byte{0b0101_0000}, mustPeek(buf, 0, 1))

	high.SetValue(1)
	low.SetValue(0b1111)
	testutil.EqualBytes(t, []byte{0b1101_1111}, mustPeek(buf, 0, 1))
	testutil.Equal(t, int64(0b101), mid.Value(), "siblings untouched")
}

func TestBitsSetTruncates(t *testing.T) {
	buf := NewMap([]byte{0x00})
	f := NewBits(buf, 0, 1, false, 7, 3)

	f.SetValue(0xFF)
	testutil.Equal(t, int64(0b111), f.Value())
	testutil.EqualBytes(t, []byte{0b0111_0000}, mustPeek(buf, 0, 1))
}

func TestBitsWideCell(t *testing.T) {
	// A 16-bit big-endian cell split 4/12.
	buf := NewMap([]byte{0xAB, 0xCD})

	hi := NewBits(buf, 0, 2, false, 16, 4)
	lo := NewBits(buf, 0, 2, false, 12, 12)

	testutil.Equal(t, int64(0xA), hi.Value())
	testutil.Equal(t, int64(0xBCD), lo.Value())

	lo.SetValue(0x123)
	testutil.EqualBytes(t, []byte{0xA1, 0x23}, mustPeek(buf, 0, 2))
}

func TestBitsLittleEndianCell(t *testing.T) {
	// The cell value is assembled little-endian before bit extraction,
	// so the high member lives in the second byte.
	buf := NewMap([]byte{0xCD, 0xAB})

	hi := NewBits(buf, 0, 2, true, 16, 4)
	testutil.Equal(t, int64(0xA), hi.Value())

	hi.SetValue(0x5)
	testutil.EqualBytes(t, []byte{0xCD, 0x5B}, mustPeek(buf, 0, 2))
}

func TestBitsSize(t *testing.T) {
	buf := NewMap([]byte{0x00})
	f := NewBits(buf, 0, 1, false, 7, 3)
	testutil.Equal(t, 3, f.Size())
	testutil.Equal(t, 3, f.Bits())
}

func TestBitsInvalidSpanPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for shift beyond the cell")
		}
	}()
	NewBits(NewMap(make([]byte, 1)), 0, 1, false, 9, 1)
}
