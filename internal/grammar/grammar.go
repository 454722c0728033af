// Package grammar recognizes the structure-definition language and
// yields the declaration tree the binder consumes.
//
// The concrete grammar, in the order alternatives are tried:
//
//	symbol      <- \w+
//	count       <- [1-9][0-9]* | 0x[0-9a-fA-F]+
//	string      <- "..."
//	bitdef      <- symbol ":" count
//	bitfield    <- bitdef ("," bitdef)*
//	array       <- symbol "[" count "]"
//	definition  <- typedef (array | bitfield | symbol) ";"
//	directive   <- "#" (seekto count | seek count | printoffset string) ";"
//	struct_defn <- symbol block
//	struct_decl <- (symbol | block) (array | symbol)
//	struct      <- "struct" (struct_defn | struct_decl) ";"
//	union       <- "union" block (array | symbol) ";"
//	block       <- "{" (definition | struct | union | directive)+ "}"
//	language    <- (definition | struct | union | directive)+
//
// "//" line comments are skipped. Input that does not reduce completely
// is rejected; no partial layout is usable.
package grammar

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/gobitwise/gobitwise/internal/ast"
	"github.com/gobitwise/gobitwise/internal/types"
	"github.com/gobitwise/gobitwise/peg"
)

// Types is the closed set of field type keywords. Order matters: the
// keywords form a regex alternation and longer variants must not be
// shadowed by a shorter prefix that sorts earlier.
var Types = []string{
	"bit", "lbit", "u8", "u16", "ul16", "u24", "ul24", "u32", "ul32",
	"i8", "i16", "il16", "i24", "il24", "i32", "il32", "char",
	"lbcd", "bbcd",
}

// language is the compiled grammar, built once. Patterns carry no parse
// state, so the shared instance is safe for concurrent use.
var language = sync.OnceValue(build)

func build() peg.Pattern {
	symbol := peg.Rule("symbol", func() peg.Pattern {
		return peg.Regexp(`\w+`)
	})
	count := peg.Rule("count", func() peg.Pattern {
		return peg.Regexp(`[1-9][0-9]*|0x[0-9a-fA-F]+`)
	})
	str := peg.Rule("string", func() peg.Pattern {
		return peg.Regexp(`"[^"]*"`)
	})

	bitdef := peg.Rule("bitdef", func() peg.Pattern {
		return peg.Seq(symbol, peg.Lit(":"), count)
	})
	bitfield := peg.Rule("bitfield", func() peg.Pattern {
		return peg.Seq(bitdef, peg.Star(peg.Seq(peg.Lit(","), bitdef)))
	})
	array := peg.Rule("array", func() peg.Pattern {
		return peg.Seq(symbol, peg.Lit("["), count, peg.Lit("]"))
	})
	typedef := peg.Rule("_typedef", func() peg.Pattern {
		return peg.Regexp(strings.Join(Types, "|"))
	})
	definition := peg.Rule("definition", func() peg.Pattern {
		return peg.Seq(typedef, peg.Choice(array, bitfield, symbol), peg.Lit(";"))
	})

	seekto := peg.Rule("seekto", func() peg.Pattern {
		return peg.Seq(peg.Keyword("seekto"), count)
	})
	seek := peg.Rule("seek", func() peg.Pattern {
		return peg.Seq(peg.Keyword("seek"), count)
	})
	printoffset := peg.Rule("printoffset", func() peg.Pattern {
		return peg.Seq(peg.Keyword("printoffset"), str)
	})
	directive := peg.Rule("directive", func() peg.Pattern {
		return peg.Seq(peg.Lit("#"), peg.Choice(seekto, seek, printoffset), peg.Lit(";"))
	})

	// struct, union and block are mutually recursive; the vars are
	// captured by the rule closures and assigned below.
	var structRule, unionRule, block peg.Pattern

	blockInner := peg.Rule("_block_inner", func() peg.Pattern {
		return peg.Plus(peg.Choice(definition, structRule, unionRule, directive))
	})
	block = peg.Rule("_block", func() peg.Pattern {
		return peg.Seq(peg.Lit("{"), blockInner, peg.Lit("}"))
	})

	structDefn := peg.Rule("struct_defn", func() peg.Pattern {
		return peg.Seq(symbol, block)
	})
	structDecl := peg.Rule("struct_decl", func() peg.Pattern {
		return peg.Seq(peg.Choice(symbol, block), peg.Choice(array, symbol))
	})
	structRule = peg.Rule("struct", func() peg.Pattern {
		return peg.Seq(peg.Keyword("struct"), peg.Choice(structDefn, structDecl), peg.Lit(";"))
	})
	unionRule = peg.Rule("union", func() peg.Pattern {
		return peg.Seq(peg.Keyword("union"), block, peg.Choice(array, symbol), peg.Lit(";"))
	})

	return peg.Rule("_language", func() peg.Pattern {
		// The EOF guard makes trailing unparsed text a hard failure.
		return peg.Seq(blockInner, peg.Not(peg.Regexp(`(?s).`)))
	})
}

// Parse parses definition text into a declaration tree. The returned
// error is a *peg.SyntaxError for malformed input. Pass nil for logger
// to disable logging.
func Parse(text string, logger *slog.Logger, packrat bool) (*ast.Definition, error) {
	log := types.Logger{L: logger}
	log.Log(slog.LevelDebug, "parsing definition", slog.Int("bytes", len(text)))

	opts := []peg.Option{peg.Comments(`//[^\n]*`)}
	if packrat {
		opts = append(opts, peg.Packrat())
	}
	nodes, _, err := peg.Parse(language(), text, opts...)
	if err != nil {
		return nil, err
	}

	decls, err := walkDecls(nodes, &log)
	if err != nil {
		return nil, err
	}
	log.Log(slog.LevelDebug, "parsing complete", slog.Int("declarations", len(decls)))
	return &ast.Definition{Decls: decls}, nil
}

func walkDecls(nodes []peg.Node, log *types.Logger) ([]ast.Decl, error) {
	var decls []ast.Decl
	for _, n := range nodes {
		var (
			decl ast.Decl
			err  error
		)
		switch n.Name {
		case "definition":
			decl, err = walkDefinition(n)
		case "struct":
			decl, err = walkStruct(n, log)
		case "union":
			decl, err = walkUnion(n, log)
		case "directive":
			decl, err = walkDirective(n, log)
		default:
			err = fmt.Errorf("unexpected node %q", n.Name)
		}
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func walkDefinition(n peg.Node) (ast.Decl, error) {
	typeName := n.Children[0].Text
	form := n.Children[1]

	switch form.Name {
	case "symbol":
		return &ast.Field{
			Type:  typeName,
			Name:  nodeText(form),
			Count: 1,
			Line:  n.Pos.Line,
		}, nil
	case "array":
		name, cnt, err := walkArray(form)
		if err != nil {
			return nil, err
		}
		return &ast.Field{
			Type:  typeName,
			Name:  name,
			Count: cnt,
			Array: true,
			Line:  n.Pos.Line,
		}, nil
	case "bitfield":
		bits := make([]ast.BitDef, 0, len(form.Children))
		for _, bd := range form.Children {
			width, err := parseCount(nodeText(bd.Children[1]))
			if err != nil {
				return nil, err
			}
			bits = append(bits, ast.BitDef{
				Name:  nodeText(bd.Children[0]),
				Width: int(width),
				Line:  bd.Pos.Line,
			})
		}
		return &ast.Bitfield{Type: typeName, Bits: bits, Line: n.Pos.Line}, nil
	default:
		return nil, fmt.Errorf("unexpected definition form %q", form.Name)
	}
}

func walkStruct(n peg.Node, log *types.Logger) (ast.Decl, error) {
	inner := n.Children[0]
	switch inner.Name {
	case "struct_defn":
		body, err := walkDecls(inner.Children[1:], log)
		if err != nil {
			return nil, err
		}
		return &ast.StructDef{
			Name: nodeText(inner.Children[0]),
			Body: body,
			Line: n.Pos.Line,
		}, nil
	case "struct_decl":
		return walkStructDecl(inner, log)
	default:
		return nil, fmt.Errorf("unexpected struct form %q", inner.Name)
	}
}

func walkStructDecl(n peg.Node, log *types.Logger) (ast.Decl, error) {
	instance := n.Children[len(n.Children)-1]
	name, cnt, isArray, err := walkInstance(instance)
	if err != nil {
		return nil, err
	}

	decl := &ast.Struct{
		Name:  name,
		Count: cnt,
		Array: isArray,
		Line:  n.Pos.Line,
	}
	lead := n.Children[:len(n.Children)-1]
	if len(lead) == 1 && lead[0].Name == "symbol" {
		decl.TypeName = nodeText(lead[0])
	} else {
		body, err := walkDecls(lead, log)
		if err != nil {
			return nil, err
		}
		if body == nil {
			body = []ast.Decl{}
		}
		decl.Body = body
	}
	return decl, nil
}

func walkUnion(n peg.Node, log *types.Logger) (ast.Decl, error) {
	instance := n.Children[len(n.Children)-1]
	name, cnt, isArray, err := walkInstance(instance)
	if err != nil {
		return nil, err
	}
	body, err := walkDecls(n.Children[:len(n.Children)-1], log)
	if err != nil {
		return nil, err
	}
	return &ast.Union{
		Body:  body,
		Name:  name,
		Count: cnt,
		Array: isArray,
		Line:  n.Pos.Line,
	}, nil
}

func walkDirective(n peg.Node, log *types.Logger) (ast.Decl, error) {
	inner := n.Children[0]
	switch inner.Name {
	case "seekto", "seek":
		offset, err := parseCount(nodeText(inner.Children[0]))
		if err != nil {
			return nil, err
		}
		kind := ast.DirSeekTo
		if inner.Name == "seek" {
			kind = ast.DirSeek
		}
		return &ast.Directive{Kind: kind, Offset: offset, Line: n.Pos.Line}, nil
	case "printoffset":
		label := nodeText(inner.Children[0])
		return &ast.Directive{
			Kind:  ast.DirPrintOffset,
			Label: strings.Trim(label, `"`),
			Line:  n.Pos.Line,
		}, nil
	default:
		return nil, fmt.Errorf("unexpected directive %q", inner.Name)
	}
}

// walkInstance decodes the trailing (array | symbol) of a struct or
// union declaration.
func walkInstance(n peg.Node) (name string, count int, isArray bool, err error) {
	switch n.Name {
	case "array":
		name, count, err = walkArray(n)
		return name, count, true, err
	case "symbol":
		return nodeText(n), 1, false, nil
	default:
		return "", 0, false, fmt.Errorf("unexpected instance form %q", n.Name)
	}
}

func walkArray(n peg.Node) (string, int, error) {
	cnt, err := parseCount(nodeText(n.Children[1]))
	if err != nil {
		return "", 0, err
	}
	return nodeText(n.Children[0]), int(cnt), nil
}

// nodeText returns the terminal text under a rule node that wraps a
// single regex match.
func nodeText(n peg.Node) string {
	if len(n.Children) == 1 {
		return n.Children[0].Text
	}
	return n.Text
}

// parseCount parses a decimal or 0x-prefixed count.
func parseCount(text string) (int64, error) {
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", text, err)
	}
	return v, nil
}
