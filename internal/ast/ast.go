// Package ast defines the parsed form of a structure definition.
//
// A Definition is an ordered list of declarations; order is significant
// because it determines byte offsets unless a seek directive intervenes.
package ast

// Definition is the parsed, immutable description of a memory layout.
type Definition struct {
	Decls []Decl
}

// Decl is one top-level or block-level declaration.
type Decl interface {
	DeclLine() int
	decl()
}

// Field is a scalar or array leaf: "u8 foo;" or "lbcd freq[4];".
type Field struct {
	Type  string
	Name  string
	Count int  // number of elements; 1 for scalars
	Array bool // declared with [n], even if n == 1
	Line  int
}

// Bitfield is a run of named sub-byte values sharing one storage cell
// of the declaring type's width: "u8 flag1:1, mode:3, chan:4;".
type Bitfield struct {
	Type string
	Bits []BitDef
	Line int
}

// BitDef is one member of a Bitfield.
type BitDef struct {
	Name  string
	Width int // bits
	Line  int
}

// StructDef registers a named struct type without instantiating it:
// "struct memslot { ... };". References resolve against definitions
// seen earlier in the same parse.
type StructDef struct {
	Name string
	Body []Decl
	Line int
}

// Struct instantiates a struct, either inline ("struct { ... } x;") or
// by reference to a StructDef ("struct memslot x[16];").
type Struct struct {
	TypeName string // non-empty for a reference to a StructDef
	Body     []Decl // non-nil for an inline body
	Name     string
	Count    int
	Array    bool
	Line     int
}

// Union instantiates an anonymous block whose members all start at the
// same offset; the cursor advances by the widest member.
type Union struct {
	Body  []Decl
	Name  string
	Count int
	Array bool
	Line  int
}

// DirectiveKind discriminates layout-cursor directives.
type DirectiveKind int

const (
	DirSeekTo DirectiveKind = iota // absolute reposition
	DirSeek                        // relative adjustment
	DirPrintOffset                 // log the live offset, no layout effect
)

// Directive is a layout-cursor control instruction with no field output.
type Directive struct {
	Kind   DirectiveKind
	Offset int64  // seekto/seek argument
	Label  string // printoffset argument, quotes stripped
	Line   int
}

func (d *Field) DeclLine() int     { return d.Line }
func (d *Bitfield) DeclLine() int  { return d.Line }
func (d *StructDef) DeclLine() int { return d.Line }
func (d *Struct) DeclLine() int    { return d.Line }
func (d *Union) DeclLine() int     { return d.Line }
func (d *Directive) DeclLine() int { return d.Line }

func (*Field) decl()     {}
func (*Bitfield) decl()  {}
func (*StructDef) decl() {}
func (*Struct) decl()    {}
func (*Union) decl()     {}
func (*Directive) decl() {}
