package binspec

import (
	"fmt"

	"github.com/wirebyte/binspec/errors"
)

// DefaultCase is the switch case key that matches when no other case does.
const DefaultCase = "default"

// FieldRef identifies what a field binds to: a decoder Kind that consumes
// buffer bits, or a literal attached without consuming anything. Kind
// satisfies it directly; Lit wraps a scalar value.
type FieldRef interface {
	fieldRef()
}

func (Kind) fieldRef() {}

type literalRef struct {
	value any
}

func (literalRef) fieldRef() {}

// Lit wraps a scalar so it can stand in for a decoder in Field or Store.
// The value is resolved and validated when the field is declared, not when
// the program runs.
func Lit(v any) FieldRef {
	return literalRef{value: v}
}

// DeriveFunc computes a derived field from the values decoded so far.
type DeriveFunc func(View) any

// Predicate gates a conditional block.
type Predicate func(View) bool

// KeyFunc picks the switch key from the values decoded so far.
type KeyFunc func(View) any

// Spec is a decoding program assembled with the fluent methods. Builder
// calls never fail mid-chain; the first construction error is recorded and
// surfaces from Err or Exec. Once built, a Spec is read-only and safe to
// execute from many goroutines.
type Spec struct {
	instrs []instruction
	err    error
}

// New creates an empty program.
func New() *Spec {
	return &Spec{}
}

// Err returns the first construction error, or nil. Exec reports the same
// error; checking here lets callers fail fast when assembling programs
// from external definitions.
func (s *Spec) Err() error {
	return s.err
}

// fail records the first construction error and keeps the chain alive.
func (s *Spec) fail(err error) *Spec {
	if s.err == nil {
		s.err = err
	}
	return s
}

// Field decodes one value at the cursor and appends it to the visible
// result under name.
func (s *Spec) Field(name string, ref FieldRef, opts ...FieldOption) *Spec {
	in, err := makeField(name, ref, opts)
	if err != nil {
		return s.fail(err)
	}
	s.instrs = append(s.instrs, in)
	return s
}

// Store decodes like Field but relocates the value into hidden storage:
// later callbacks can read it, the result does not include it. Storing a
// name an earlier visible field used removes that entry from the result.
func (s *Spec) Store(name string, ref FieldRef, opts ...FieldOption) *Spec {
	in, err := makeField(name, ref, opts)
	if err != nil {
		return s.fail(err)
	}
	s.instrs = append(s.instrs, &storeInstr{name: name, inner: in})
	return s
}

func makeField(name string, ref FieldRef, opts []FieldOption) (instruction, error) {
	if name == "" {
		return nil, errors.InvalidInput("field name must not be empty")
	}
	switch r := ref.(type) {
	case Kind:
		if !r.valid() {
			return nil, errors.InvalidInput(fmt.Sprintf("unknown kind %d for field %q", r, name))
		}
		o, err := gatherOptions(r, opts)
		if err != nil {
			return nil, errors.Wrap(errors.KindInvalidInput, fmt.Sprintf("field %q", name), err)
		}
		return &fieldInstr{name: name, kind: r, opts: o}, nil
	case literalRef:
		o, err := gatherLiteralOptions(opts)
		if err != nil {
			return nil, errors.Wrap(errors.KindInvalidInput, fmt.Sprintf("field %q", name), err)
		}
		v, err := normalize(r.value)
		if err != nil {
			return nil, errors.Wrap(errors.KindInvalidInput, fmt.Sprintf("literal field %q", name), err)
		}
		return &literalInstr{name: name, value: v, opts: o}, nil
	case nil:
		return nil, errors.InvalidInput(fmt.Sprintf("field %q has no decoder", name))
	}
	return nil, errors.InvalidInput(fmt.Sprintf("unsupported field reference %T for %q", ref, name))
}

// Derive appends a computed field under name. The callback sees everything
// decoded so far, hidden values included, and its result is frozen the
// moment it runs; later decodes never recompute it.
func (s *Spec) Derive(name string, fn DeriveFunc) *Spec {
	if name == "" {
		return s.fail(errors.InvalidInput("derived field name must not be empty"))
	}
	if fn == nil {
		return s.fail(errors.InvalidInput(fmt.Sprintf("derived field %q has no callback", name)))
	}
	s.instrs = append(s.instrs, &deriveInstr{name: name, fn: fn})
	return s
}

// Skip moves the cursor by a whole number of bytes without decoding.
// Negative counts rewind.
func (s *Spec) Skip(bytes int) *Spec {
	s.instrs = append(s.instrs, &skipInstr{bits: bytes * 8})
	return s
}

// SkipType skips the footprint of a fixed-width decoder kind, rounded down
// to whole bytes for sub-byte kinds.
func (s *Spec) SkipType(k Kind) *Spec {
	if !k.valid() {
		return s.fail(errors.InvalidInput(fmt.Sprintf("unknown kind %d in skip", k)))
	}
	w := k.bitWidth(nil)
	if w < 0 {
		return s.fail(errors.InvalidInput(fmt.Sprintf("cannot skip %s fields without a fixed size", k)))
	}
	s.instrs = append(s.instrs, &skipInstr{bits: (w / 8) * 8})
	return s
}

// Pad aligns the cursor to the next byte boundary, consuming the remaining
// bits of a partially read byte. No-op when already aligned.
func (s *Spec) Pad() *Spec {
	s.instrs = append(s.instrs, &padInstr{})
	return s
}

// Endianness switches the byte order for subsequent multi-byte decodes in
// this program. Programs start big-endian; nested programs are unaffected
// by the parent's switches.
func (s *Spec) Endianness(e Endian) *Spec {
	if e != BigEndian && e != LittleEndian {
		return s.fail(errors.InvalidInput(fmt.Sprintf("unknown endianness %d", e)))
	}
	s.instrs = append(s.instrs, &endianInstr{endian: e})
	return s
}

// If runs nested against the remainder of the buffer when pred holds. The
// nested program's visible results merge into this program's result in
// decode order, overwriting on name collision. The outer cursor does not
// move regardless of how much the nested program consumes.
func (s *Spec) If(pred Predicate, nested *Spec) *Spec {
	if pred == nil {
		return s.fail(errors.InvalidInput("conditional block has no predicate"))
	}
	if nested == nil {
		return s.fail(errors.InvalidInput("conditional block has no program"))
	}
	if nested.err != nil {
		return s.fail(nested.err)
	}
	s.instrs = append(s.instrs, &condInstr{pred: pred, program: nested})
	return s
}

// Switch evaluates key, stringifies it, and runs the matching case like If.
// The DefaultCase entry matches when no other case does; with no match and
// no default the switch is a no-op.
func (s *Spec) Switch(key KeyFunc, cases map[string]*Spec) *Spec {
	if key == nil {
		return s.fail(errors.InvalidInput("switch has no key function"))
	}
	for name, c := range cases {
		if c == nil {
			return s.fail(errors.InvalidInput(fmt.Sprintf("switch case %q has no program", name)))
		}
		if c.err != nil {
			return s.fail(c.err)
		}
	}
	s.instrs = append(s.instrs, &switchInstr{key: key, cases: cases})
	return s
}
