package addrmap

import (
	"errors"
	"strings"
)

// Validation failure kinds.
//
// A *ValidationError wraps exactly one of these so callers can branch with
// errors.Is:
//
//	if errors.Is(err, addrmap.ErrByteOrderConflict) {
//	    // ask the integrator to fix the byte-order flags
//	}
var (
	// ErrInvalidInput is returned when a required field is missing or out of range.
	ErrInvalidInput = errors.New("addrmap: invalid input")

	// ErrUnsupportedPoint is returned when a point's shape cannot be mapped
	// onto a Modbus address span.
	ErrUnsupportedPoint = errors.New("addrmap: unsupported point")

	// ErrByteOrderConflict is returned when the byte-order flags of two
	// register classes in use disagree.
	ErrByteOrderConflict = errors.New("addrmap: inconsistent byte order")

	// ErrInvalidThreshold is returned when a planner threshold is out of range.
	ErrInvalidThreshold = errors.New("addrmap: invalid threshold")
)

// ValidationError is the structured failure of a compile. It names the
// offending input fields so a caller can point the integrator at them.
type ValidationError struct {
	// Kind is one of the package sentinel errors.
	Kind error

	// Fields lists the offending input fields, e.g. "points[3].bit_offset".
	Fields []string

	// Msg is a human-readable description of the failure.
	Msg string
}

// Error implements error.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString(")")
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// Unwrap returns the failure kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// Invalid builds a *ValidationError of the given kind.
func Invalid(kind error, msg string, fields ...string) *ValidationError {
	return &ValidationError{Kind: kind, Fields: fields, Msg: msg}
}

// WithPrefix returns a copy of e with every field name prefixed, used to
// turn point-relative fields into document paths.
func (e *ValidationError) WithPrefix(prefix string) *ValidationError {
	fields := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = prefix + f
	}
	return &ValidationError{Kind: e.Kind, Fields: fields, Msg: e.Msg}
}
