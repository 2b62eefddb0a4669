// Package errors provides structured error types for the binspec decoder.
//
// Errors are categorized by Kind (error category) and, for out-of-bounds
// conditions, by Op (which cursor operation failed). The Error type keeps
// the offending field name and values as inspectable context alongside a
// fully rendered detail message.
//
// Use the convenience constructors rather than building Error by hand:
//
//	err := errors.OutOfBoundsRead(4, 3, 5)
//	err := errors.Alignment(3)
//	err := errors.Validation("count", 255, 7)
//
// All errors implement the standard error interface and support errors.Is/As.
// Kind predicates cover the common inspection cases:
//
//	if errors.IsValidation(err) {
//		// reject the payload
//	}
//
// Validation messages follow a fixed shape, "Expected <name> to be <x> but
// was <y>", rendered for every expected value including zero, false and the
// empty string. Code that surfaces decode failures to users may rely on it.
package errors
