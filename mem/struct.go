package mem

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned when a struct has no field of the
// requested name.
var ErrUnknownField = errors.New("unknown field")

// ErrDuplicateField is returned by Add for a name already present.
var ErrDuplicateField = errors.New("duplicate field")

// ErrWrongType is returned by FieldAs when a field exists but has a
// different element type than requested.
var ErrWrongType = errors.New("field has different type")

// Struct is a bound structure: an ordered collection of named elements
// sharing one buffer. For a union all members start at the struct's
// offset and alias the same bytes.
type Struct struct {
	name   string
	buf    Buffer
	offset int
	union  bool
	fields map[string]Element
	order  []string
}

// NewStruct returns an empty bound struct at offset. name may be empty
// for anonymous structs.
func NewStruct(buf Buffer, offset int, name string) *Struct {
	return &Struct{
		name:   name,
		buf:    buf,
		offset: offset,
		fields: make(map[string]Element),
	}
}

// NewUnion returns an empty bound union at offset.
func NewUnion(buf Buffer, offset int, name string) *Struct {
	s := NewStruct(buf, offset, name)
	s.union = true
	return s
}

// Add appends a named member. Insertion order is preserved.
func (s *Struct) Add(name string, el Element) error {
	if _, ok := s.fields[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateField, name)
	}
	s.fields[name] = el
	s.order = append(s.order, name)
	return nil
}

// Name returns the struct's declared name, or "" for anonymous structs.
func (s *Struct) Name() string { return s.name }

// IsUnion reports whether the members alias the same bytes.
func (s *Struct) IsUnion() bool { return s.union }

// Offset returns the byte offset of the struct in the buffer.
func (s *Struct) Offset() int { return s.offset }

// Has reports whether a field of the given name exists.
func (s *Struct) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Field returns the named member.
func (s *Struct) Field(name string) (Element, error) {
	el, ok := s.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in struct %q", ErrUnknownField, name, s.name)
	}
	return el, nil
}

// Fields returns the member names in declaration order.
func (s *Struct) Fields() []string {
	return append([]string(nil), s.order...)
}

// FieldAs returns the named member as a concrete element type:
//
//	freq, err := mem.FieldAs[*mem.Array](slot, "rxfreq")
func FieldAs[T Element](s *Struct, name string) (T, error) {
	var zero T
	el, err := s.Field(name)
	if err != nil {
		return zero, err
	}
	typed, ok := el.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrWrongType, name, el)
	}
	return typed, nil
}

// Size returns the struct size in bits: the sum of the member sizes,
// or the widest member for a union. Gaps introduced by seek directives
// are not counted, matching the layout language's definition of struct
// size.
func (s *Struct) Size() int {
	size := 0
	for _, name := range s.order {
		n := s.fields[name].Size()
		if s.union {
			size = max(size, n)
		} else {
			size += n
		}
	}
	return size
}

// GetRaw returns a copy of the Size()/8 bytes starting at the struct's
// offset.
func (s *Struct) GetRaw() []byte {
	return mustPeek(s.buf, s.offset, s.Size()/8)
}

// SetRaw overwrites the struct's bytes; data must be exactly Size()/8
// bytes.
func (s *Struct) SetRaw(data []byte) error {
	if len(data) != s.Size()/8 {
		return fmt.Errorf("%w: got %d bytes, struct holds %d", ErrSizeMismatch, len(data), s.Size()/8)
	}
	mustPoke(s.buf, s.offset, data)
	return nil
}

// FillRaw overwrites every byte of the struct with b. Drivers use this
// to blank a memory slot (typically with 0xFF).
func (s *Struct) FillRaw(b byte) {
	fill := make([]byte, s.Size()/8)
	for i := range fill {
		fill[i] = b
	}
	mustPoke(s.buf, s.offset, fill)
}

func (s *Struct) String() string {
	var b strings.Builder
	kind := "struct"
	if s.union {
		kind = "union"
	}
	fmt.Fprintf(&b, "%s %s (%d bytes at %#04x) {", kind, s.name, s.Size()/8, s.offset)
	for i, name := range s.order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
	}
	b.WriteByte('}')
	return b.String()
}
