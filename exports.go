package gobitwise

import "github.com/gobitwise/gobitwise/mem"

// Type aliases for the public API - model types come from the mem
// subpackage.

// Buffer is the raw storage a layout is bound to.
type Buffer = mem.Buffer

// Map is a contiguous memory image.
type Map = mem.Map

// SparseMap is an address-keyed memory image with large unused gaps.
type SparseMap = mem.SparseMap

// Element is one bound accessor in the object tree.
type Element = mem.Element

// Struct is a bound structure of named elements.
type Struct = mem.Struct

// Array is a fixed-length homogeneous sequence of bound elements.
type Array = mem.Array

// Int is a plain integer field.
type Int = mem.Int

// Bits is one member of a bitfield run.
type Bits = mem.Bits

// BCD is a packed binary-coded-decimal byte.
type BCD = mem.BCD

// Char is a single ASCII character byte.
type Char = mem.Char

// Diagnostic is a non-fatal issue found while binding.
type Diagnostic = mem.Diagnostic

// Severity classifies a diagnostic.
type Severity = mem.Severity

// Severity constants.
const (
	SeverityError   = mem.SeverityError
	SeverityWarning = mem.SeverityWarning
)

// NewMap returns a contiguous image holding a copy of data.
func NewMap(data []byte) *Map { return mem.NewMap(data) }

// NewSparseMap returns an empty sparse image of the given size.
func NewSparseMap(size int) *SparseMap { return mem.NewSparseMap(size) }
