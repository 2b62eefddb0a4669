// Package binspec decodes binary payloads driven by declarative programs.
//
// A program is a sequence of instructions built with a fluent API: typed
// fields, hidden stored fields, computed fields, cursor skips, bit-level
// padding, endianness switches, conditionals and multi-way switches.
// Executing a program against a byte buffer yields an ordered mapping of
// field names to values in the order they decoded.
//
// # Architecture Overview
//
// The module is organized into a small set of packages:
//
//	binspec/             Root package: programs, decoders, execution
//	├── schema/          YAML/JSON program definitions compiled to programs
//	├── errors/          Structured error types with kind predicates
//	├── internal/buffer/ Bit-precise cursor over a shared byte buffer
//	└── cmd/binspec/     Command line decoder with an interactive inspector
//
// # Quick Start
//
// Build a program once, execute it per payload:
//
//	spec := binspec.New().
//	    Field("count", binspec.UInt8).
//	    Field("temp", binspec.UInt8).
//	    Field("pi", binspec.Float)
//
//	result, err := spec.Exec([]byte{0xFF, 0x02, 0x40, 0x49, 0x0F, 0xD0})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, _ := result.Get("count") // int64(255)
//
// # Value Model
//
// Decoded values normalize to four Go types:
//
//   - integers and bit fields: int64
//   - f16, f32, f64: float64
//   - bool: bool
//   - text: string
//
// # Cursor Semantics
//
// The cursor tracks a byte offset plus a bit offset within that byte. Bit
// fields of 1 through 16 bits consume MSB first and may straddle byte
// boundaries. Byte-oriented decoders demand byte alignment and fail with
// an alignment error when the cursor sits mid-byte; the Pad instruction
// realigns it. Skips move by whole bytes in either direction.
//
// # Nested Programs
//
// Conditionals and switches run a nested program against the remainder of
// the buffer. The nested program starts byte-aligned in big-endian order;
// its visible results merge into the outer result, and the outer cursor
// does not move.
//
// # Thread Safety
//
// Building a Spec is not synchronized and belongs to one goroutine. Once
// built, a Spec is read-only: Exec allocates all per-run state, so any
// number of goroutines may execute the same Spec concurrently.
package binspec
