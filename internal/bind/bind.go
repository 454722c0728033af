// Package bind compiles a parsed structure definition against a byte
// buffer into the bound object tree.
//
// Declarations are processed strictly in source order. A byte cursor
// starts at the bind offset and advances by each field's consumed
// width; seek directives move it out of band. Bit numbering within a
// bitfield run is MSB-first: the first declared member occupies the
// most significant bits of its storage cell.
package bind

import (
	"fmt"
	"log/slog"

	"github.com/gobitwise/gobitwise/internal/ast"
	"github.com/gobitwise/gobitwise/internal/types"
	"github.com/gobitwise/gobitwise/mem"
)

type typeInfo struct {
	width  int // bytes
	signed bool
	little bool
	bcd    bool
	char   bool
	bit    bool // single-bit array type
}

var typeInfos = map[string]typeInfo{
	"u8":   {width: 1},
	"u16":  {width: 2},
	"ul16": {width: 2, little: true},
	"u24":  {width: 3},
	"ul24": {width: 3, little: true},
	"u32":  {width: 4},
	"ul32": {width: 4, little: true},
	"i8":   {width: 1, signed: true},
	"i16":  {width: 2, signed: true},
	"il16": {width: 2, signed: true, little: true},
	"i24":  {width: 3, signed: true},
	"il24": {width: 3, signed: true, little: true},
	"i32":  {width: 4, signed: true},
	"il32": {width: 4, signed: true, little: true},
	"char": {width: 1, char: true},
	"lbcd": {width: 1, bcd: true, little: true},
	"bbcd": {width: 1, bcd: true},
	"bit":  {bit: true},
	"lbit": {bit: true, little: true},
}

// Bind walks a definition and a buffer together and returns the root
// bound struct plus any non-fatal diagnostics. offset is the byte
// position layout starts at. Pass nil for logger to disable logging.
func Bind(def *ast.Definition, buf mem.Buffer, offset int, logger *slog.Logger) (*mem.Struct, []mem.Diagnostic, error) {
	b := &binder{
		buf:       buf,
		offset:    offset,
		maxExtent: offset,
		userTypes: make(map[string][]ast.Decl),
		Logger:    types.Logger{L: logger},
	}
	b.Log(slog.LevelDebug, "binding definition",
		slog.Int("offset", offset), slog.Int("buffer", buf.Len()))

	root := mem.NewStruct(buf, offset, "")
	if err := b.bindBlock(def.Decls, root); err != nil {
		return nil, b.diags, err
	}
	if b.maxExtent > buf.Len() {
		return nil, b.diags, fmt.Errorf("layout needs %d bytes, buffer has %d",
			b.maxExtent, buf.Len())
	}
	b.Log(slog.LevelDebug, "binding complete",
		slog.Int("extent", b.maxExtent), slog.Int("diagnostics", len(b.diags)))
	return root, b.diags, nil
}

type binder struct {
	buf       mem.Buffer
	offset    int
	maxExtent int
	userTypes map[string][]ast.Decl
	diags     []mem.Diagnostic
	types.Logger
}

func (b *binder) diag(sev mem.Severity, code, msg string, line int) {
	b.diags = append(b.diags, mem.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Line:     line,
	})
}

// claim accounts for n bytes being laid out at the current cursor.
func (b *binder) claim(n int) error {
	if b.offset < 0 {
		return fmt.Errorf("layout cursor is negative (%d)", b.offset)
	}
	if end := b.offset + n; end > b.maxExtent {
		b.maxExtent = end
	}
	return nil
}

func (b *binder) bindBlock(decls []ast.Decl, into *mem.Struct) error {
	for _, decl := range decls {
		if err := b.bindDecl(decl, into); err != nil {
			return err
		}
	}
	return nil
}

func (b *binder) bindDecl(decl ast.Decl, into *mem.Struct) error {
	switch d := decl.(type) {
	case *ast.Field:
		return b.bindField(d, into)
	case *ast.Bitfield:
		return b.bindBitfield(d, into)
	case *ast.StructDef:
		b.userTypes[d.Name] = d.Body
		return nil
	case *ast.Struct:
		return b.bindStruct(d, into)
	case *ast.Union:
		return b.bindUnion(d, into)
	case *ast.Directive:
		return b.bindDirective(d)
	default:
		return fmt.Errorf("line %d: unhandled declaration %T", decl.DeclLine(), decl)
	}
}

// addField attaches an element under name, renaming duplicates to
// name_<offset> with an error diagnostic, as layout authors sometimes
// repeat a placeholder name like "unknown".
func (b *binder) addField(into *mem.Struct, name string, el mem.Element, line int) error {
	if !into.Has(name) {
		return into.Add(name, el)
	}
	renamed := fmt.Sprintf("%s_%06x", name, el.Offset())
	b.diag(mem.SeverityError, mem.DiagDuplicateField,
		fmt.Sprintf("duplicate field %q renamed to %q", name, renamed), line)
	return into.Add(renamed, el)
}

func (b *binder) bindField(f *ast.Field, into *mem.Struct) error {
	ti, ok := typeInfos[f.Type]
	if !ok {
		return fmt.Errorf("line %d: unknown type %q", f.Line, f.Type)
	}
	if ti.bit {
		return b.bindBitArray(f, ti, into)
	}

	start := b.offset
	elems := make([]mem.Element, 0, f.Count)
	for i := 0; i < f.Count; i++ {
		var el mem.Element
		switch {
		case ti.bcd:
			el = mem.NewBCD(b.buf, b.offset, ti.little)
		case ti.char:
			el = mem.NewChar(b.buf, b.offset)
		default:
			el = mem.NewInt(b.buf, b.offset, ti.width, ti.signed, ti.little)
		}
		if err := b.claim(ti.width); err != nil {
			return fmt.Errorf("line %d: %w", f.Line, err)
		}
		b.offset += ti.width
		elems = append(elems, el)
	}

	if b.TraceEnabled() {
		b.Trace("field placed",
			slog.String("name", f.Name),
			slog.String("type", f.Type),
			slog.Int("offset", start),
			slog.Int("count", f.Count))
	}

	// Single-element arrays collapse to the scalar; drivers depend
	// on "u8 foo[1];" reading like "u8 foo;".
	if f.Count == 1 {
		return b.addField(into, f.Name, elems[0], f.Line)
	}
	return b.addField(into, f.Name, mem.NewArray(b.buf, start, elems), f.Line)
}

// bindBitArray lays out the bit/lbit single-bit array types. bit packs
// MSB-first within each byte, lbit LSB-first.
func (b *binder) bindBitArray(f *ast.Field, ti typeInfo, into *mem.Struct) error {
	if f.Count%8 != 0 {
		return fmt.Errorf("line %d: bit array length %d must be divisible by 8", f.Line, f.Count)
	}
	start := b.offset
	if err := b.claim(f.Count / 8); err != nil {
		return fmt.Errorf("line %d: %w", f.Line, err)
	}

	elems := make([]mem.Element, 0, f.Count)
	for i := 0; i < f.Count; i++ {
		shift := 8 - i%8
		if ti.little {
			shift = i%8 + 1
		}
		elems = append(elems, mem.NewBits(b.buf, b.offset, 1, false, shift, 1))
		if (i+1)%8 == 0 {
			b.offset++
		}
	}
	return b.addField(into, f.Name, mem.NewArray(b.buf, start, elems), f.Line)
}

func (b *binder) bindBitfield(bf *ast.Bitfield, into *mem.Struct) error {
	ti, ok := typeInfos[bf.Type]
	if !ok {
		return fmt.Errorf("line %d: unknown type %q", bf.Line, bf.Type)
	}
	if ti.bit {
		return fmt.Errorf("line %d: type %q cannot hold a bitfield", bf.Line, bf.Type)
	}

	bitsLeft := ti.width * 8
	for _, bd := range bf.Bits {
		if bd.Width > bitsLeft {
			return fmt.Errorf("line %d: bitfield member %q needs %d bits, %d left in %s",
				bd.Line, bd.Name, bd.Width, bitsLeft, bf.Type)
		}
		el := mem.NewBits(b.buf, b.offset, ti.width, ti.little, bitsLeft, bd.Width)
		if err := b.addField(into, bd.Name, el, bd.Line); err != nil {
			return err
		}
		bitsLeft -= bd.Width
	}
	if bitsLeft > 0 {
		b.diag(mem.SeverityWarning, mem.DiagTrailingBits,
			fmt.Sprintf("%d trailing bits unaccounted for in %s bitfield", bitsLeft, bf.Type),
			bf.Line)
	}

	if err := b.claim(ti.width); err != nil {
		return fmt.Errorf("line %d: %w", bf.Line, err)
	}
	b.offset += ti.width
	return nil
}

func (b *binder) bindStruct(d *ast.Struct, into *mem.Struct) error {
	body := d.Body
	if d.TypeName != "" {
		var ok bool
		body, ok = b.userTypes[d.TypeName]
		if !ok {
			return fmt.Errorf("line %d: undefined struct type %q", d.Line, d.TypeName)
		}
	}

	start := b.offset
	elems := make([]mem.Element, 0, d.Count)
	for i := 0; i < d.Count; i++ {
		st := mem.NewStruct(b.buf, b.offset, d.Name)
		if err := b.bindBlock(body, st); err != nil {
			return err
		}
		elems = append(elems, st)
	}

	if d.Count == 1 {
		return b.addField(into, d.Name, elems[0], d.Line)
	}
	return b.addField(into, d.Name, mem.NewArray(b.buf, start, elems), d.Line)
}

// bindUnion binds every member at the union's start offset; the cursor
// resumes after the widest member.
func (b *binder) bindUnion(d *ast.Union, into *mem.Struct) error {
	start := b.offset
	elems := make([]mem.Element, 0, d.Count)
	for i := 0; i < d.Count; i++ {
		u := mem.NewUnion(b.buf, b.offset, d.Name)
		instStart := b.offset
		end := instStart
		for _, member := range d.Body {
			b.offset = instStart
			if err := b.bindDecl(member, u); err != nil {
				return err
			}
			end = max(end, b.offset)
		}
		b.offset = end
		elems = append(elems, u)
	}

	if d.Count == 1 {
		return b.addField(into, d.Name, elems[0], d.Line)
	}
	return b.addField(into, d.Name, mem.NewArray(b.buf, start, elems), d.Line)
}

func (b *binder) bindDirective(d *ast.Directive) error {
	switch d.Kind {
	case ast.DirSeekTo:
		target := int(d.Offset)
		if target == b.offset {
			b.diag(mem.SeverityWarning, mem.DiagSeekUnnecessary,
				fmt.Sprintf("unnecessary seekto %#x", target), d.Line)
		} else if target < b.offset {
			b.diag(mem.SeverityWarning, mem.DiagSeekBackwards,
				fmt.Sprintf("backwards seekto from %#x to %#x", b.offset, target), d.Line)
		}
		b.offset = target
	case ast.DirSeek:
		b.offset += int(d.Offset)
	case ast.DirPrintOffset:
		b.Log(slog.LevelDebug, "printoffset",
			slog.String("label", d.Label),
			slog.Int("offset", b.offset))
	}
	return nil
}
