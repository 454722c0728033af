package mem

import (
	"testing"

	"github.com/gobitwise/gobitwise/internal/testutil"
)

// pathFixture builds a small tree by hand:
//
//	struct {
//	    u8 count;             // offset 0
//	    struct {
//	        u8 id;            // offset 1+2i
//	        u8 level;         // offset 2+2i
//	    } slots[2];
//	}
func pathFixture(t *testing.T) (*Struct, *Map) {
	t.Helper()
	buf := NewMap([]byte{2, 10, 11, 20, 21})

	root := NewStruct(buf, 0, "")
	testutil.NoError(t, root.Add("count", NewInt(buf, 0, 1, false, false)))

	elems := make([]Element, 2)
	for i := range elems {
		slot := NewStruct(buf, 1+2*i, "slot")
		testutil.NoError(t, slot.Add("id", NewInt(buf, 1+2*i, 1, false, false)))
		testutil.NoError(t, slot.Add("level", NewInt(buf, 2+2*i, 1, false, false)))
		elems[i] = slot
	}
	testutil.NoError(t, root.Add("slots", NewArray(buf, 1, elems)))
	return root, buf
}

func TestPathNavigation(t *testing.T) {
	root, _ := pathFixture(t)

	el, err := root.Path("count")
	testutil.NoError(t, err)
	testutil.Equal(t, int64(2), el.(*Int).Value())

	el, err = root.Path(".slots[1].level")
	testutil.NoError(t, err)
	testutil.Equal(t, int64(21), el.(*Int).Value())

	el, err = root.Path("slots[0]")
	testutil.NoError(t, err)
	testutil.Equal(t, "slot", el.(*Struct).Name())
}

func TestPathOnArray(t *testing.T) {
	root, _ := pathFixture(t)
	slots, err := FieldAs[*Array](root, "slots")
	testutil.NoError(t, err)

	el, err := slots.Path("[1].id")
	testutil.NoError(t, err)
	testutil.Equal(t, int64(20), el.(*Int).Value())
}

func TestPathWriteThrough(t *testing.T) {
	root, buf := pathFixture(t)

	el, err := root.Path("slots[0].id")
	testutil.NoError(t, err)
	el.(*Int).SetValue(99)

	testutil.EqualBytes(t, []byte{99}, mustPeek(buf, 1, 1))
}

func TestPathErrors(t *testing.T) {
	root, _ := pathFixture(t)

	_, err := root.Path("nosuch")
	testutil.ErrorIs(t, err, ErrUnknownField)

	_, err = root.Path("slots[5]")
	testutil.ErrorIs(t, err, ErrIndexRange)

	_, err = root.Path("slots[x]")
	testutil.ErrorIs(t, err, ErrBadPath)

	_, err = root.Path("slots[0")
	testutil.ErrorIs(t, err, ErrBadPath)

	_, err = root.Path("count[0]")
	testutil.ErrorIs(t, err, ErrBadPath, "cannot index a scalar")

	_, err = root.Path("count.sub")
	testutil.ErrorIs(t, err, ErrBadPath, "cannot select from a scalar")
}
