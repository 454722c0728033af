package mem

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError   Severity = iota // definition is wrong but a recovery was applied
	SeverityWarning                 // suspicious construct, layout unaffected
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic codes emitted while binding a definition.
const (
	DiagDuplicateField  = "duplicate-field"
	DiagTrailingBits    = "trailing-bits"
	DiagSeekBackwards   = "seek-backwards"
	DiagSeekUnnecessary = "seek-unnecessary"
)

// Diagnostic is a non-fatal issue found while binding a definition to a
// buffer. Fatal problems are returned as errors instead.
type Diagnostic struct {
	Severity Severity
	Code     string // e.g. "duplicate-field"
	Message  string
	Line     int // 1-based line in the definition text, 0 if not applicable
}

// String returns "[severity] line N: message" with the location omitted
// when unknown.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(d.Severity.String())
	b.WriteByte(']')
	b.WriteByte(' ')
	if d.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", d.Line)
	}
	b.WriteString(d.Message)
	return b.String()
}
