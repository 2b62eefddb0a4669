// Package schema compiles YAML or JSON payload definitions into binspec
// programs, so decoders can live in config files instead of Go code.
//
// A document names its fields in decode order. The same instruction set as
// the fluent API is available: typed fields with options, hidden stored
// fields, literal values, computed fields, skips, padding, endianness
// switches, conditionals and switches.
//
//	name: env-sensor
//	fields:
//	  - name: count
//	    type: u8
//	  - name: flags
//	    type: bits3
//	  - type: pad
//	  - name: temp
//	    type: f32
//	    dp: 2
//	    transform:
//	      - mult: 0.5
//	      - add: -40
//	  - name: mode
//	    type: u8
//	    store: true
//	  - name: total
//	    compute: {op: mul, a: $count, b: "4"}
//	  - when:
//	      field: $mode
//	      gt: 0
//	    fields:
//	      - name: ext
//	        type: u16
//	  - on: $mode
//	    cases:
//	      "1":
//	        - name: a
//	          type: u8
//	      default:
//	        - name: b
//	          type: u8
//
// Field types are u8, s8, u16, s16, u32, s32, f16, f32, f64, bool, bit,
// bits2 through bits16 (or "bits" with a bits count) and text. Text fields
// take size, terminator and encoding (utf8, ascii, hex, base64) keys.
// Floating-point fields take dp. Any decoding field takes store, expect
// and a transform pipeline of add, sub, mult, div stages. A top-level
// endian key ("big" or "little") sets the initial byte order; an endian
// instruction switches it mid-stream.
//
// Compile once and execute per payload:
//
//	spec, err := schema.Load(docBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := spec.Exec(payload)
package schema
