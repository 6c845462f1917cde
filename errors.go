package scru64

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates that the text is not 12 base-36 digits
	ErrMalformed = errors.New("scru64: malformed identifier")

	// ErrOverflow indicates that the decoded value does not fit in 64 bits
	ErrOverflow = errors.New("scru64: identifier overflows 64 bits")

	// ErrOutOfRange indicates that a field value cannot be represented in a SCRU64 ID
	ErrOutOfRange = errors.New("scru64: field value out of range")
)

// DecodeKind classifies a decoding failure
type DecodeKind uint8

const (
	Malformed DecodeKind = iota + 1
	Overflow
)

func (k DecodeKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case Overflow:
		return "overflow"
	default:
		return fmt.Sprintf("DecodeKind(%d)", uint8(k))
	}
}

// DecodeError reports why a line could not be decoded. Line is zero when the
// text did not come from a numbered input. Offset is the index of the first
// byte outside the alphabet, or -1 when the failure is not tied to one byte.
type DecodeError struct {
	Kind   DecodeKind
	Text   string
	Line   int
	Offset int
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("scru64: identifier %q at line %d: %s", e.Text, e.Line, e.Reason())
	}
	return fmt.Sprintf("scru64: identifier %q: %s", e.Text, e.Reason())
}

// Reason describes the failure without repeating the offending text
func (e *DecodeError) Reason() string {
	switch {
	case e.Kind == Overflow:
		return "value overflows 64 bits"
	case e.Offset >= 0:
		return fmt.Sprintf("invalid digit at offset %d", e.Offset)
	default:
		return fmt.Sprintf("length %d, want %d", len(e.Text), EncodedLen)
	}
}

// Unwrap lets errors.Is match ErrMalformed and ErrOverflow
func (e *DecodeError) Unwrap() error {
	if e.Kind == Overflow {
		return ErrOverflow
	}
	return ErrMalformed
}
