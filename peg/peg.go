// Package peg implements a small backtracking parsing-combinator runtime.
//
// Patterns are built from primitive combinators (Lit, Keyword, Regexp),
// composites (Seq, Choice, Opt, Star, Plus), non-consuming lookahead
// (And, Not), and named rules (Rule). Matching a named rule produces a
// Node tagged with the rule name; rules whose name is empty or starts
// with an underscore splice their children into the parent instead.
//
// Whitespace is skipped before every atomic match unless disabled with
// KeepWhitespace. An optional memoization mode (Packrat) gives linear
// time behavior on grammars with heavy backtracking; it is keyed by
// (input position, rule id) and is disabled by default.
//
// All parse state is carried in an explicit per-call value, so a Pattern
// is safe to share between concurrent Parse calls.
package peg

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pos is a location in the parsed input.
type Pos struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based
}

// Node is one element of the parse result. A named rule produces a Node
// with Name set and its sub-matches in Children; a Regexp terminal
// produces a Node with Text set.
type Node struct {
	Name     string
	Text     string
	Children []Node
	Pos      Pos
}

// SyntaxError reports input that does not match the grammar. Offset is
// the furthest position the parser reached before failing.
type SyntaxError struct {
	Offset   int
	Line     int // 1-based
	Column   int // 1-based
	LineText string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s",
		e.Line, e.Column, strings.TrimSpace(e.LineText))
}

// PatternError reports a malformed pattern (for example a Rule whose
// function returns nil). It indicates a grammar construction bug, not a
// problem with the parsed input.
type PatternError struct {
	Rule string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("malformed grammar: rule %q resolved to nil", e.Rule)
}

// Option configures a Parse call.
type Option func(*config)

type config struct {
	keepWS  bool
	comment *regexp.Regexp
	packrat bool
}

// Packrat enables memoized (packrat) parsing for this call.
func Packrat() Option {
	return func(c *config) { c.packrat = true }
}

// KeepWhitespace disables the implicit whitespace skipping before
// atomic matches.
func KeepWhitespace() Option {
	return func(c *config) { c.keepWS = true }
}

// Comments sets a regular expression for comment text to skip wherever
// whitespace is skipped. The expression is matched at the current
// position only.
func Comments(pattern string) Option {
	re := regexp.MustCompile(`\A(?:` + pattern + `)`)
	return func(c *config) { c.comment = re }
}

// Parse matches pattern against input and returns the resulting nodes
// together with the unconsumed remainder. A non-empty remainder is not
// an error here; callers requiring a full reduction must check it.
func Parse(pattern Pattern, input string, opts ...Option) ([]Node, string, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	st := &state{
		input:      input,
		cfg:        cfg,
		lineStarts: lineStarts(input),
	}
	if cfg.packrat {
		st.memo = make(map[memoKey]memoEntry)
	}

	nodes, ok := pattern.match(st)
	if st.badPattern != nil {
		return nil, input, st.badPattern
	}
	if !ok {
		return nil, input, st.syntaxError()
	}
	st.skip()
	return nodes, input[st.pos:], nil
}

type memoKey struct {
	pos int
	id  int
}

type memoEntry struct {
	ok    bool
	nodes []Node
	end   int
}

type state struct {
	input      string
	pos        int
	cfg        config
	memo       map[memoKey]memoEntry
	furthest   int
	lineStarts []int
	badPattern error
}

// skip consumes whitespace and comments at the current position.
func (st *state) skip() {
	if st.cfg.keepWS {
		return
	}
	for {
		start := st.pos
		for st.pos < len(st.input) && isSpace(st.input[st.pos]) {
			st.pos++
		}
		if st.cfg.comment != nil {
			if loc := st.cfg.comment.FindStringIndex(st.input[st.pos:]); loc != nil && loc[1] > 0 {
				st.pos += loc[1]
			}
		}
		if st.pos == start {
			return
		}
	}
}

// fail records the current position as a failure point and returns the
// standard failure result.
func (st *state) fail() ([]Node, bool) {
	if st.pos > st.furthest {
		st.furthest = st.pos
	}
	return nil, false
}

func (st *state) position(offset int) Pos {
	line := sort.SearchInts(st.lineStarts, offset+1)
	return Pos{
		Offset: offset,
		Line:   line,
		Column: offset - st.lineStarts[line-1] + 1,
	}
}

func (st *state) syntaxError() *SyntaxError {
	pos := st.position(st.furthest)
	lineEnd := len(st.input)
	if pos.Line < len(st.lineStarts) {
		lineEnd = st.lineStarts[pos.Line] - 1
	}
	return &SyntaxError{
		Offset:   st.furthest,
		Line:     pos.Line,
		Column:   pos.Column,
		LineText: st.input[st.lineStarts[pos.Line-1]:lineEnd],
	}
}

// lineStarts returns the byte offset of the first character of each line.
func lineStarts(input string) []int {
	starts := []int{0}
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}
