package binspec

import (
	"fmt"

	"github.com/wirebyte/binspec/errors"
)

// FieldOption customizes a single field decode.
type FieldOption func(*fieldOptions)

type fieldOptions struct {
	size       int
	hasSize    bool
	encoding   Encoding
	terminator *byte
	dp         *int
	transform  func(any) any
	expected   any
	hasExpect  bool
}

// WithSize fixes the byte length of a text field. It takes precedence over
// a terminator when both are set.
func WithSize(n int) FieldOption {
	return func(o *fieldOptions) {
		o.size = n
		o.hasSize = true
	}
}

// WithEncoding selects the codec for text bytes. Text fields default to
// EncodingUTF8.
func WithEncoding(e Encoding) FieldOption {
	return func(o *fieldOptions) {
		o.encoding = e
	}
}

// WithTerminator delimits a text field by the given byte. The terminator is
// consumed but excluded from the decoded value.
func WithTerminator(b byte) FieldOption {
	return func(o *fieldOptions) {
		t := b
		o.terminator = &t
	}
}

// WithDP rounds a floating-point field to n decimal places, half away from
// zero.
func WithDP(n int) FieldOption {
	return func(o *fieldOptions) {
		d := n
		o.dp = &d
	}
}

// WithTransform applies fn to the decoded value before validation and
// before the value lands in the result.
func WithTransform(fn func(any) any) FieldOption {
	return func(o *fieldOptions) {
		o.transform = fn
	}
}

// WithExpect fails the decode unless the final value equals v. Zero, false
// and empty-string expectations are enforced like any other value.
func WithExpect(v any) FieldOption {
	return func(o *fieldOptions) {
		o.expected = v
		o.hasExpect = true
	}
}

// gatherOptions applies opts and validates the combination against kind k.
func gatherOptions(k Kind, opts []FieldOption) (*fieldOptions, error) {
	o := &fieldOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.hasSize {
		if k != Text {
			return nil, errors.InvalidInput(fmt.Sprintf("size option is not valid for %s fields", k))
		}
		if o.size < 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("negative text size %d", o.size))
		}
	}
	if o.terminator != nil && k != Text {
		return nil, errors.InvalidInput(fmt.Sprintf("terminator option is not valid for %s fields", k))
	}
	if o.encoding != "" {
		if k != Text {
			return nil, errors.InvalidInput(fmt.Sprintf("encoding option is not valid for %s fields", k))
		}
		if !o.encoding.valid() {
			return nil, errors.InvalidInput(fmt.Sprintf("unknown text encoding %q", o.encoding))
		}
	}
	if o.dp != nil {
		switch k {
		case Float16, Float, Double:
		default:
			return nil, errors.InvalidInput(fmt.Sprintf("dp option is not valid for %s fields", k))
		}
		if *o.dp < 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("negative dp %d", *o.dp))
		}
	}
	if o.hasExpect {
		n, err := normalize(o.expected)
		if err != nil {
			return nil, err
		}
		o.expected = n
	}
	return o, nil
}

// gatherLiteralOptions is gatherOptions for literal fields, which decode
// nothing and accept only the transform and expect options.
func gatherLiteralOptions(opts []FieldOption) (*fieldOptions, error) {
	o := &fieldOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.hasSize || o.terminator != nil || o.encoding != "" || o.dp != nil {
		return nil, errors.InvalidInput("literal fields accept only transform and expect options")
	}
	if o.hasExpect {
		n, err := normalize(o.expected)
		if err != nil {
			return nil, err
		}
		o.expected = n
	}
	return o, nil
}
