package gobitwise

import (
	"errors"
	"testing"

	"github.com/gobitwise/gobitwise/internal/testutil"
	"github.com/gobitwise/gobitwise/mem"
	"github.com/gobitwise/gobitwise/peg"
)

func TestParseBindScalars(t *testing.T) {
	root, err := ParseBind("struct { u8 a; u16 b; } x;", []byte{0x05, 0x00, 0x0A})
	testutil.NoError(t, err)

	a, err := root.Path("x.a")
	testutil.NoError(t, err)
	testutil.Equal(t, int64(5), a.(*mem.Int).Value())

	b, err := root.Path("x.b")
	testutil.NoError(t, err)
	testutil.Equal(t, int64(10), b.(*mem.Int).Value())
}

func TestDefinitionReusableAcrossBuffers(t *testing.T) {
	def, err := Parse("u8 x;")
	testutil.NoError(t, err)
	testutil.Equal(t, 1, def.Decls())

	for want, image := range map[int64][]byte{3: {3}, 9: {9}} {
		root, diags, err := def.Bind(mem.NewMap(image))
		testutil.NoError(t, err)
		testutil.Len(t, diags, 0)

		x, err := mem.FieldAs[*mem.Int](root, "x")
		testutil.NoError(t, err)
		testutil.Equal(t, want, x.Value())
	}
}

func TestEmptyDefinition(t *testing.T) {
	_, err := Parse("")
	testutil.ErrorIs(t, err, ErrEmptyDefinition)
}

func TestSyntaxErrorSurfaces(t *testing.T) {
	_, err := Parse("u8 foo")
	var serr *peg.SyntaxError
	testutil.True(t, errors.As(err, &serr), "want *peg.SyntaxError, got %v", err)
}

func TestWithOffset(t *testing.T) {
	def, err := Parse("u8 x;")
	testutil.NoError(t, err)

	root, _, err := def.Bind(NewMap([]byte{0, 0, 42}), WithOffset(2))
	testutil.NoError(t, err)

	x, err := mem.FieldAs[*mem.Int](root, "x")
	testutil.NoError(t, err)
	testutil.Equal(t, int64(42), x.Value())
}

func TestBCDFrequencyRoundTrip(t *testing.T) {
	root, err := ParseBind("lbcd freq[4];", make([]byte, 4))
	testutil.NoError(t, err)

	freq, err := mem.FieldAs[*mem.Array](root, "freq")
	testutil.NoError(t, err)

	testutil.NoError(t, freq.SetBCDValue(14652000))
	v, err := freq.BCDValue()
	testutil.NoError(t, err)
	testutil.Equal(t, int64(14652000), v)
}

func TestSeekToPlacesField(t *testing.T) {
	image := make([]byte, 0x20)
	image[0x10] = 0x5A
	root, err := ParseBind("u8 before; u16 pad; #seekto 0x10; u8 x;", image)
	testutil.NoError(t, err)

	x, err := mem.FieldAs[*mem.Int](root, "x")
	testutil.NoError(t, err)
	testutil.Equal(t, 0x10, x.Offset())
	testutil.Equal(t, int64(0x5A), x.Value())
}

func TestBitfieldRoundTrip(t *testing.T) {
	root, err := ParseBind("u8 flag1:1, flag2:3, flag3:4;", []byte{0x00})
	testutil.NoError(t, err)

	flag2, err := mem.FieldAs[*mem.Bits](root, "flag2")
	testutil.NoError(t, err)
	flag2.SetValue(0b110)

	testutil.Equal(t, int64(0b110), flag2.Value())
	for _, other := range []string{"flag1", "flag3"} {
		el, err := mem.FieldAs[*mem.Bits](root, other)
		testutil.NoError(t, err)
		testutil.Equal(t, int64(0), el.Value(), "%s untouched", other)
	}
}

func TestBindDiagnosticsReturned(t *testing.T) {
	def, err := Parse("u8 flag:1;")
	testutil.NoError(t, err)

	_, diags, err := def.Bind(NewMap(make([]byte, 1)))
	testutil.NoError(t, err)
	testutil.Len(t, diags, 1)
	testutil.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestBindTooSmallBuffer(t *testing.T) {
	_, err := ParseBind("u32 x;", make([]byte, 2))
	testutil.Error(t, err)
}

func TestIdempotentRebind(t *testing.T) {
	def, err := Parse("struct { u8 id; lbcd freq[2]; } slots[2];")
	testutil.NoError(t, err)

	image := []byte{1, 0x50, 0x14, 2, 0x00, 0x45}
	first, _, err := def.Bind(NewMap(image))
	testutil.NoError(t, err)
	second, _, err := def.Bind(NewMap(image))
	testutil.NoError(t, err)

	for _, path := range []string{"slots[0].id", "slots[1].id"} {
		a, err := first.Path(path)
		testutil.NoError(t, err)
		b, err := second.Path(path)
		testutil.NoError(t, err)
		testutil.Equal(t, a.(*mem.Int).Value(), b.(*mem.Int).Value(), path)
	}
}

func TestSparseMapBinding(t *testing.T) {
	def, err := Parse("#seekto 0x1000; lbcd rxtone[2];")
	testutil.NoError(t, err)

	img := NewSparseMap(0x2000)
	root, _, err := def.Bind(img)
	testutil.NoError(t, err)

	// Unwritten sparse bytes read as the erased sentinel.
	tone, err := mem.FieldAs[*mem.Array](root, "rxtone")
	testutil.NoError(t, err)
	v, err := tone.BCDValue()
	testutil.NoError(t, err)
	testutil.Equal(t, int64(16665), v, "0xFFFF decodes leniently")

	testutil.NoError(t, tone.SetBCDValue(885))
	testutil.Equal(t, 2, img.Populated())
}
