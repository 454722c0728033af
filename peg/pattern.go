package peg

import (
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
)

// Pattern is a composable grammar fragment. Patterns are immutable once
// constructed and may be shared between goroutines.
type Pattern interface {
	match(st *state) ([]Node, bool)
}

// Lit matches the literal text exactly. It produces no node.
func Lit(text string) Pattern {
	return literal{text: text}
}

type literal struct {
	text string
}

func (p literal) match(st *state) ([]Node, bool) {
	st.skip()
	if !strings.HasPrefix(st.input[st.pos:], p.text) {
		return st.fail()
	}
	st.pos += len(p.text)
	return nil, true
}

// Keyword matches the literal word followed by a non-word boundary, so
// that "structx" does not match the keyword "struct". It produces no
// node.
func Keyword(word string) Pattern {
	return keyword{word: word}
}

type keyword struct {
	word string
}

func (p keyword) match(st *state) ([]Node, bool) {
	st.skip()
	rest := st.input[st.pos:]
	if !strings.HasPrefix(rest, p.word) {
		return st.fail()
	}
	if len(rest) > len(p.word) && isWordByte(rest[len(p.word)]) {
		return st.fail()
	}
	st.pos += len(p.word)
	return nil, true
}

// Regexp matches the regular expression at the current position and
// produces a node carrying the matched text. The expression is compiled
// at construction time; an invalid expression panics, as with
// regexp.MustCompile.
func Regexp(expr string) Pattern {
	return regexTerm{re: regexp.MustCompile(`\A(?:` + expr + `)`)}
}

type regexTerm struct {
	re *regexp.Regexp
}

func (p regexTerm) match(st *state) ([]Node, bool) {
	st.skip()
	loc := p.re.FindStringIndex(st.input[st.pos:])
	if loc == nil {
		return st.fail()
	}
	start := st.pos
	st.pos += loc[1]
	return []Node{{
		Text: st.input[start:st.pos],
		Pos:  st.position(start),
	}}, true
}

// Seq matches every item in order, failing if any item fails.
func Seq(items ...Pattern) Pattern {
	return seq{items: items}
}

type seq struct {
	items []Pattern
}

func (p seq) match(st *state) ([]Node, bool) {
	start := st.pos
	var nodes []Node
	for _, item := range p.items {
		sub, ok := item.match(st)
		if !ok {
			st.pos = start
			return nil, false
		}
		nodes = append(nodes, sub...)
	}
	return nodes, true
}

// Choice tries each alternative in order and commits to the first that
// matches.
func Choice(alts ...Pattern) Pattern {
	return choice{alts: alts}
}

type choice struct {
	alts []Pattern
}

func (p choice) match(st *state) ([]Node, bool) {
	start := st.pos
	for _, alt := range p.alts {
		if nodes, ok := alt.match(st); ok {
			return nodes, true
		}
		st.pos = start
	}
	return nil, false
}

// Opt matches the pattern zero or one time.
func Opt(p Pattern) Pattern {
	return repeat{p: p, min: 0, max: 1}
}

// Star matches the pattern zero or more times.
func Star(p Pattern) Pattern {
	return repeat{p: p, min: 0, max: -1}
}

// Plus matches the pattern one or more times.
func Plus(p Pattern) Pattern {
	return repeat{p: p, min: 1, max: -1}
}

type repeat struct {
	p   Pattern
	min int
	max int // -1 for unbounded
}

func (p repeat) match(st *state) ([]Node, bool) {
	start := st.pos
	var nodes []Node
	count := 0
	for p.max < 0 || count < p.max {
		before := st.pos
		sub, ok := p.p.match(st)
		if !ok {
			st.pos = before
			break
		}
		if st.pos == before && p.max < 0 {
			// zero-width match would loop forever
			break
		}
		nodes = append(nodes, sub...)
		count++
	}
	if count < p.min {
		st.pos = start
		return nil, false
	}
	return nodes, true
}

// And is positive lookahead: it succeeds when the pattern matches but
// consumes no input and produces no node.
func And(p Pattern) Pattern {
	return lookahead{p: p, negate: false}
}

// Not is negative lookahead: it succeeds when the pattern does not
// match, consuming no input.
func Not(p Pattern) Pattern {
	return lookahead{p: p, negate: true}
}

type lookahead struct {
	p      Pattern
	negate bool
}

func (p lookahead) match(st *state) ([]Node, bool) {
	start := st.pos
	_, ok := p.p.match(st)
	st.pos = start
	if ok == p.negate {
		return nil, false
	}
	return nil, true
}

// ruleID assigns each Rule a stable small integer, used as the packrat
// memoization key instead of object identity.
var ruleID atomic.Int64

// Rule declares a named grammar rule. The function is invoked lazily on
// first use, which allows mutually recursive rules. A successful match
// produces a single Node tagged with the rule name wrapping the
// sub-matches; a name that is empty or starts with "_" splices the
// sub-matches into the parent instead.
func Rule(name string, fn func() Pattern) Pattern {
	return &rule{
		name: name,
		id:   int(ruleID.Add(1)),
		fn:   fn,
	}
}

type rule struct {
	name     string
	id       int
	fn       func() Pattern
	once     sync.Once
	resolved Pattern
}

func (p *rule) visible() bool {
	return p.name != "" && !strings.HasPrefix(p.name, "_")
}

func (p *rule) match(st *state) ([]Node, bool) {
	if st.memo != nil {
		if entry, hit := st.memo[memoKey{pos: st.pos, id: p.id}]; hit {
			if !entry.ok {
				return st.fail()
			}
			st.pos = entry.end
			return entry.nodes, true
		}
	}

	p.once.Do(func() { p.resolved = p.fn() })
	if p.resolved == nil {
		if st.badPattern == nil {
			st.badPattern = &PatternError{Rule: p.name}
		}
		return nil, false
	}

	key := memoKey{pos: st.pos, id: p.id}
	start := st.pos
	sub, ok := p.resolved.match(st)
	if !ok {
		st.pos = start
		if st.memo != nil {
			st.memo[key] = memoEntry{ok: false}
		}
		return nil, false
	}

	nodes := sub
	if p.visible() {
		pos := st.position(start)
		if len(sub) > 0 {
			pos = sub[0].Pos
		}
		nodes = []Node{{
			Name:     p.name,
			Children: sub,
			Pos:      pos,
		}}
	}
	if st.memo != nil {
		st.memo[key] = memoEntry{ok: true, nodes: nodes, end: st.pos}
	}
	return nodes, true
}
