package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobitwise/gobitwise"
	"github.com/gobitwise/gobitwise/mem"
)

// mobileLayout exercises the reusable-type and union features: a named
// slot type instantiated twice, and a union overlaying the checksum
// words of the calibration block.
const mobileLayout = `
struct vfo {
    ul32 freq;
    ul16 step;
    u8 txpower:2,
       mode:2,
       unused:4;
    char label[8];
};
struct vfo vfoa;
struct vfo vfob;
#seekto 0x0100;
struct vfo scanedge[4];
#seekto 0x0200;
union {
    ul32 word;
    u8 bytes[4];
} checksum;
u8 sealed;
`

func bindMobile(t *testing.T, image []byte) *mem.Struct {
	t.Helper()
	root, err := gobitwise.ParseBind(mobileLayout, image)
	require.NoError(t, err)
	return root
}

func TestMobileNamedTypeInstances(t *testing.T) {
	image := make([]byte, 0x0240)
	// vfoa at 0, vfob at 15 (4+2+1+8 bytes each).
	image[0] = 0x50
	image[1] = 0x07
	image[2] = 0x96
	image[3] = 0x08 // 144.05 MHz in Hz, little-endian 0x08960750
	copy(image[7:15], "CALL    ")
	image[15+6] = 0b0110_0000 // vfob: txpower=1, mode=2

	root := bindMobile(t, image)

	freq, err := root.Path("vfoa.freq")
	require.NoError(t, err)
	require.EqualValues(t, 144050000, freq.(*mem.Int).Value())

	label, err := root.Path("vfoa.label")
	require.NoError(t, err)
	text, err := label.(*mem.Array).TextBefore(' ')
	require.NoError(t, err)
	require.Equal(t, "CALL", text)

	power, err := root.Path("vfob.txpower")
	require.NoError(t, err)
	require.EqualValues(t, 1, power.(*mem.Bits).Value())
	mode, err := root.Path("vfob.mode")
	require.NoError(t, err)
	require.EqualValues(t, 2, mode.(*mem.Bits).Value())
}

func TestMobileScanEdges(t *testing.T) {
	image := make([]byte, 0x0240)
	root := bindMobile(t, image)

	edges, err := mem.FieldAs[*mem.Array](root, "scanedge")
	require.NoError(t, err)
	require.Equal(t, 4, edges.Len())

	// Each edge is a full vfo struct at 15-byte stride from 0x0100.
	for i := 0; i < 4; i++ {
		el, err := edges.At(i)
		require.NoError(t, err)
		require.Equal(t, 0x0100+15*i, el.Offset())
	}
}

func TestMobileChecksumUnion(t *testing.T) {
	image := make([]byte, 0x0240)
	root := bindMobile(t, image)

	word, err := root.Path("checksum.word")
	require.NoError(t, err)
	word.(*mem.Int).SetValue(0xDEADBEEF)

	for i, want := range []int64{0xEF, 0xBE, 0xAD, 0xDE} {
		b, err := root.Path("checksum.bytes[" + string(rune('0'+i)) + "]")
		require.NoError(t, err)
		require.Equal(t, want, b.(*mem.Int).Value(), "byte %d aliases the word", i)
	}

	// The cursor resumed after the widest member.
	sealed, err := root.Path("sealed")
	require.NoError(t, err)
	require.Equal(t, 0x0204, sealed.Offset())
}

func TestMobileWriteLabel(t *testing.T) {
	image := make([]byte, 0x0240)
	root := bindMobile(t, image)

	label, err := root.Path("vfob.label")
	require.NoError(t, err)
	require.NoError(t, label.(*mem.Array).SetText("SIMPLEX "))

	got, err := label.(*mem.Array).Text()
	require.NoError(t, err)
	require.Equal(t, "SIMPLEX ", got)
}
