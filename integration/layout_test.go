package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobitwise/gobitwise"
	"github.com/gobitwise/gobitwise/mem"
)

// handheldLayout is the memory map of a common 16-channel UHF handheld.
const handheldLayout = `
#seekto 0x0010;
struct {
    lbcd rxfreq[4];
    lbcd txfreq[4];
    lbcd rxtone[2];
    lbcd txtone[2];
    u8 unknown3:1,
       unknown2:1,
       unknown1:1,
       skip:1,
       highpower:1,
       narrow:1,
       beatshift:1,
       bcl:1;
    u8 unknown4[3];
} memory[16];
#seekto 0x02B0;
struct {
    u8 voiceprompt;
    u8 voicelanguage;
    u8 scan;
    u8 vox;
    u8 voxlevel;
    u8 voxinhibitonrx;
    u8 lowvolinhibittx;
    u8 highvolinhibittx;
    u8 alarm;
    u8 fmradio;
} settings;
#seekto 0x03C0;
struct {
    u8 unused:6,
       batterysaver:1,
       beep:1;
    u8 squelchlevel;
    u8 sidekeyfunction;
    u8 timeouttimer;
    u8 unused2[3];
    u8 unused3:7,
       scanmode:1;
} settings2;
`

const (
	imageSize  = 0x0400
	slotSize   = 16
	memoryBase = 0x0010
)

// newHandheldImage builds a factory-fresh image: erased channel slots
// and zeroed settings, with channel 1 programmed to 462.5625 MHz with
// an 88.5 Hz tone.
func newHandheldImage(t *testing.T) []byte {
	t.Helper()
	image := make([]byte, imageSize)
	for i := memoryBase; i < memoryBase+16*slotSize; i++ {
		image[i] = 0xFF
	}

	// Channel 1: frequencies in 10 Hz units, packed BCD little-endian.
	slot := image[memoryBase : memoryBase+slotSize]
	copy(slot[0:4], []byte{0x50, 0x62, 0x25, 0x46}) // rx 46256250
	copy(slot[4:8], []byte{0x50, 0x62, 0x25, 0x46}) // tx 46256250
	copy(slot[8:10], []byte{0x85, 0x08})            // rxtone 885
	copy(slot[10:12], []byte{0x85, 0x08})           // txtone 885
	slot[12] = 0x08                                 // highpower, wide
	copy(slot[13:16], []byte{0x00, 0x00, 0x00})

	// Settings: squelch 5, timeout 3, beep on.
	image[0x02B0] = 1 // voiceprompt
	image[0x03C0] = 0x01
	image[0x03C1] = 5
	image[0x03C3] = 3
	return image
}

func bindHandheld(t *testing.T, image []byte) (*gobitwise.Definition, *mem.Map, *mem.Struct) {
	t.Helper()
	def, err := gobitwise.Parse(handheldLayout)
	require.NoError(t, err)

	buf := mem.NewMap(image)
	root, diags, err := def.Bind(buf)
	require.NoError(t, err)
	require.Empty(t, diags, "a production layout binds clean")
	return def, buf, root
}

func TestHandheldChannelRead(t *testing.T) {
	_, _, root := bindHandheld(t, newHandheldImage(t))

	rxfreq, err := root.Path("memory[0].rxfreq")
	require.NoError(t, err)
	freq, err := rxfreq.(*mem.Array).BCDValue()
	require.NoError(t, err)
	require.EqualValues(t, 46256250, freq, "462.5625 MHz in 10 Hz units")

	rxtone, err := root.Path("memory[0].rxtone")
	require.NoError(t, err)
	tone, err := rxtone.(*mem.Array).BCDValue()
	require.NoError(t, err)
	require.EqualValues(t, 885, tone, "88.5 Hz CTCSS")

	for name, want := range map[string]int64{
		"highpower": 1,
		"narrow":    0,
		"skip":      0,
		"bcl":       0,
	} {
		el, err := root.Path("memory[0]." + name)
		require.NoError(t, err)
		require.Equal(t, want, el.(*mem.Bits).Value(), name)
	}
}

func TestHandheldErasedChannelSentinel(t *testing.T) {
	_, _, root := bindHandheld(t, newHandheldImage(t))

	// Channel 2 was never programmed: every byte is 0xFF and the tone
	// decodes to the out-of-band sentinel drivers key on.
	rxtone, err := root.Path("memory[1].rxtone")
	require.NoError(t, err)
	tone, err := rxtone.(*mem.Array).BCDValue()
	require.NoError(t, err)
	require.EqualValues(t, 16665, tone)

	el, err := rxtone.(*mem.Array).At(0)
	require.NoError(t, err)
	require.False(t, el.(*mem.BCD).Valid())
}

func TestHandheldProgramChannel(t *testing.T) {
	image := newHandheldImage(t)
	_, buf, root := bindHandheld(t, image)

	slot, err := root.Path("memory[2]")
	require.NoError(t, err)
	ch := slot.(*mem.Struct)
	require.Equal(t, slotSize*8, ch.Size())

	// Program channel 3 the way a driver does: blank the slot, then
	// write each field through the tree.
	ch.FillRaw(0x00)
	rxfreq, err := mem.FieldAs[*mem.Array](ch, "rxfreq")
	require.NoError(t, err)
	require.NoError(t, rxfreq.SetBCDValue(46718750))
	txfreq, err := mem.FieldAs[*mem.Array](ch, "txfreq")
	require.NoError(t, err)
	require.NoError(t, txfreq.SetBCDValue(46718750))
	narrow, err := mem.FieldAs[*mem.Bits](ch, "narrow")
	require.NoError(t, err)
	narrow.SetValue(1)

	// The write went through to the image bytes that would be uploaded.
	offset := memoryBase + 2*slotSize
	raw, err := buf.Peek(offset, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0x50, 0x87, 0x71, 0x46}, raw)

	flags, err := buf.Peek(offset+12, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{0x04}, flags, "narrow is bit 2 of the flag byte")
}

func TestHandheldSettings(t *testing.T) {
	_, _, root := bindHandheld(t, newHandheldImage(t))

	voice, err := root.Path("settings.voiceprompt")
	require.NoError(t, err)
	require.EqualValues(t, 1, voice.(*mem.Int).Value())

	beep, err := root.Path("settings2.beep")
	require.NoError(t, err)
	require.EqualValues(t, 1, beep.(*mem.Bits).Value())

	saver, err := root.Path("settings2.batterysaver")
	require.NoError(t, err)
	require.EqualValues(t, 0, saver.(*mem.Bits).Value())

	squelch, err := root.Path("settings2.squelchlevel")
	require.NoError(t, err)
	require.EqualValues(t, 5, squelch.(*mem.Int).Value())

	timeout, err := root.Path("settings2.timeouttimer")
	require.NoError(t, err)
	require.EqualValues(t, 3, timeout.(*mem.Int).Value())
}

func TestHandheldRebindAfterDownload(t *testing.T) {
	def, _, _ := bindHandheld(t, newHandheldImage(t))

	// A fresh download produces a new image; the parsed definition is
	// reused as-is.
	second := newHandheldImage(t)
	second[0x03C1] = 9
	root, diags, err := def.Bind(mem.NewMap(second))
	require.NoError(t, err)
	require.Empty(t, diags)

	squelch, err := root.Path("settings2.squelchlevel")
	require.NoError(t, err)
	require.EqualValues(t, 9, squelch.(*mem.Int).Value())
}
