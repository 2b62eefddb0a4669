package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds  Kind = "out_of_bounds" // access past either end of the buffer
	KindAlignment    Kind = "alignment"     // byte-oriented read at a non-zero bit offset
	KindTerminator   Kind = "terminator"    // delimited text never hit its terminator
	KindValidation   Kind = "validation"    // decoded value failed an expectation
	KindInvalidInput Kind = "invalid_input" // malformed program construction
)

// Op is the cursor operation that ran out of bounds
type Op string

const (
	OpRead Op = "read"
	OpSkip Op = "skip"
	OpPeek Op = "peek"
)

// Error is the structured error type used throughout the decoder
type Error struct {
	Kind     Kind
	Op       Op
	Name     string // field name, for validation errors
	Expected any
	Value    any
	Cause    error
	Detail   string
}

// Error implements the error interface. The message is the detail verbatim;
// validation errors in particular carry no prefix so that the text matches
// the documented "Expected <name> to be <x> but was <y>" shape exactly.
func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Detail
	}
	var b strings.Builder
	b.WriteString(e.Detail)
	b.WriteString(" (caused by: ")
	b.WriteString(e.Cause.Error())
	b.WriteByte(')')
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target with an empty Op
// matches any operation of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return e.Kind == t.Kind
}

// Convenience constructors for the decoder's error vocabulary

// OutOfBoundsRead reports a byte-oriented read past the end of the buffer
func OutOfBoundsRead(need, offset, length int) *Error {
	return &Error{
		Kind:   KindOutOfBounds,
		Op:     OpRead,
		Detail: fmt.Sprintf("read of %d byte(s) at offset %d exceeds buffer length %d", need, offset, length),
	}
}

// OutOfBoundsBits reports a bit-oriented read past the end of the buffer.
// Positions and lengths are counted in bits.
func OutOfBoundsBits(width, bitPos, bitLen int) *Error {
	return &Error{
		Kind:   KindOutOfBounds,
		Op:     OpRead,
		Detail: fmt.Sprintf("read of %d bit(s) at bit position %d exceeds buffer length %d bits", width, bitPos, bitLen),
	}
}

// OutOfBoundsSkip reports a cursor move outside the buffer. bits may be
// negative for a rewind.
func OutOfBoundsSkip(bits, bitPos, bitLen int) *Error {
	detail := fmt.Sprintf("skip of %d bit(s) from bit position %d exceeds buffer length %d bits", bits, bitPos, bitLen)
	if bitPos+bits < 0 {
		detail = fmt.Sprintf("skip of %d bit(s) from bit position %d moves before the start of the buffer", bits, bitPos)
	}
	return &Error{
		Kind:   KindOutOfBounds,
		Op:     OpSkip,
		Detail: detail,
	}
}

// OutOfBoundsPeek reports a peek whose decoder would read past the end of
// the buffer
func OutOfBoundsPeek(need, offset, length int) *Error {
	return &Error{
		Kind:   KindOutOfBounds,
		Op:     OpPeek,
		Detail: fmt.Sprintf("peek of %d byte(s) at offset %d exceeds buffer length %d", need, offset, length),
	}
}

// Alignment reports a byte-oriented read attempted while the cursor sits
// mid-byte
func Alignment(bitOffset int) *Error {
	return &Error{
		Kind:   KindAlignment,
		Detail: fmt.Sprintf("unaligned read at bit offset %d: insert pad() to realign to a byte boundary", bitOffset),
	}
}

// TerminatorNotFound reports delimited text that ran to the end of the
// buffer without hitting its terminator
func TerminatorNotFound(terminator byte, offset int) *Error {
	return &Error{
		Kind:   KindTerminator,
		Detail: fmt.Sprintf("terminator 0x%02X not found between offset %d and the end of the buffer", terminator, offset),
	}
}

// Validation reports a decoded value that did not match its expectation.
// The message shape is load-bearing: callers match on it.
func Validation(name string, expected, actual any) *Error {
	return &Error{
		Kind:     KindValidation,
		Name:     name,
		Expected: expected,
		Value:    actual,
		Detail:   fmt.Sprintf("Expected %s to be %v but was %v", name, expected, actual),
	}
}

// InvalidInput reports a malformed program handed to the builder
func InvalidInput(detail string) *Error {
	return &Error{
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Kind predicates, for callers deciding policy without matching on text

// IsOutOfBounds reports whether err is any out-of-bounds error
func IsOutOfBounds(err error) bool {
	return isKind(err, KindOutOfBounds)
}

// IsAlignment reports whether err is an alignment error
func IsAlignment(err error) bool {
	return isKind(err, KindAlignment)
}

// IsTerminatorNotFound reports whether err is a missing-terminator error
func IsTerminatorNotFound(err error) bool {
	return isKind(err, KindTerminator)
}

// IsValidation reports whether err is a failed expectation
func IsValidation(err error) bool {
	return isKind(err, KindValidation)
}

// IsInvalidInput reports whether err is a program construction error
func IsInvalidInput(err error) bool {
	return isKind(err, KindInvalidInput)
}

func isKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
