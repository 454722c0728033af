// Package gobitwise parses declarative descriptions of bit-packed
// binary memory layouts and binds them to byte buffers as navigable,
// writable object trees.
//
// The definition language describes fixed-layout C-like structures:
//
//	#seekto 0x0010;
//	struct {
//	    lbcd rxfreq[4];       // packed BCD, little-endian byte order
//	    lbcd txfreq[4];
//	    u8   unknown:3,       // bitfield members share one byte,
//	         skip:1,          // first member in the high bits
//	         highpower:1,
//	         narrow:1,
//	         beatshift:1,
//	         bcl:1;
//	    char name[6];
//	} memory[16];
//
// Field types are u8/u16/ul16/u24/ul24/u32/ul32 and their signed i*
// counterparts (l marks little-endian), char, lbcd/bbcd packed BCD,
// and bit/lbit single-bit arrays. Directives #seekto (absolute) and
// #seek (relative) move the layout cursor; #printoffset logs it.
//
// A definition is parsed once and may be bound to any number of
// buffers:
//
//	def, err := gobitwise.Parse(layout)
//	root, diags, err := def.Bind(mem.NewMap(image))
//	slot, err := root.Path(".memory[0]")
//
// Reads and writes through the bound tree go straight to the buffer,
// which is what gets shipped to or from the radio.
package gobitwise

import (
	"errors"
	"log/slog"

	"github.com/gobitwise/gobitwise/internal/ast"
	"github.com/gobitwise/gobitwise/internal/bind"
	"github.com/gobitwise/gobitwise/internal/grammar"
	"github.com/gobitwise/gobitwise/mem"
)

// ErrEmptyDefinition is returned when Parse is called with no
// definition text.
var ErrEmptyDefinition = errors.New("empty structure definition")

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-item iteration logging (pattern matches, field placement).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = slog.Level(-8)

// Option configures Parse, Bind and ParseBind.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	packrat bool
	offset  int
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs (zero overhead).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithPackrat enables memoized parsing. Worth it only for unusually
// large definitions; real layouts parse fast enough without it.
func WithPackrat() Option {
	return func(c *config) { c.packrat = true }
}

// WithOffset sets the byte offset layout starts at when binding,
// for images whose usable region does not begin at zero.
func WithOffset(offset int) Option {
	return func(c *config) { c.offset = offset }
}

// Definition is a parsed structure definition: immutable, reusable,
// safe to bind to any number of buffers. Drivers typically parse their
// layout string once and keep the Definition for the life of the
// process.
type Definition struct {
	decls *ast.Definition
}

// Parse parses definition text. Malformed text fails with a
// *peg.SyntaxError carrying the line and column of the failure;
// a definition is driver-authored constant text, so a parse failure
// is a programming error and should be treated as fatal.
func Parse(text string, opts ...Option) (*Definition, error) {
	cfg := apply(opts)
	if text == "" {
		return nil, ErrEmptyDefinition
	}
	decls, err := grammar.Parse(text, cfg.logger, cfg.packrat)
	if err != nil {
		return nil, err
	}
	return &Definition{decls: decls}, nil
}

// Decls returns the number of top-level declarations.
func (d *Definition) Decls() int {
	return len(d.decls.Decls)
}

// Bind binds the definition to a buffer, returning the root of the
// bound object tree and any non-fatal diagnostics (duplicate names,
// suspicious seeks, unaccounted bits). Binding fails if the layout
// extends beyond the buffer.
func (d *Definition) Bind(buf mem.Buffer, opts ...Option) (*mem.Struct, []mem.Diagnostic, error) {
	cfg := apply(opts)
	return bind.Bind(d.decls, buf, cfg.offset, cfg.logger)
}

// ParseBind parses a definition and binds it to a contiguous image in
// one call. Diagnostics are reported through the configured logger at
// Warn level.
func ParseBind(text string, image []byte, opts ...Option) (*mem.Struct, error) {
	cfg := apply(opts)
	def, err := Parse(text, opts...)
	if err != nil {
		return nil, err
	}
	root, diags, err := def.Bind(mem.NewMap(image), opts...)
	if err != nil {
		return nil, err
	}
	if cfg.logger != nil {
		for _, diag := range diags {
			cfg.logger.Warn("bind diagnostic", slog.String("diagnostic", diag.String()))
		}
	}
	return root, nil
}

func apply(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
