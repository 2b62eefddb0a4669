package binspec

import (
	"go.uber.org/zap"

	"github.com/wirebyte/binspec/errors"
)

// instruction is one step of a decoding program.
type instruction interface {
	// op names the instruction for traces.
	op() string
	// label is the result or stored name, empty for unnamed instructions.
	label() string
	// exec runs the instruction against the shared program state.
	exec(st *runState) error
}

// fieldInstr decodes one value into the visible result.
type fieldInstr struct {
	name string
	kind Kind
	opts *fieldOptions
}

func (f *fieldInstr) op() string    { return "field" }
func (f *fieldInstr) label() string { return f.name }

func (f *fieldInstr) exec(st *runState) error {
	v, err := f.kind.decode(st.cur, f.opts, st.endian)
	if err != nil {
		return err
	}
	v, err = finishValue(f.name, v, f.opts)
	if err != nil {
		return err
	}
	st.result.Update(f.name, v)
	return nil
}

// literalInstr attaches a constant to the result without touching the
// cursor.
type literalInstr struct {
	name  string
	value any
	opts  *fieldOptions
}

func (l *literalInstr) op() string    { return "literal" }
func (l *literalInstr) label() string { return l.name }

func (l *literalInstr) exec(st *runState) error {
	v, err := finishValue(l.name, l.value, l.opts)
	if err != nil {
		return err
	}
	st.result.Update(l.name, v)
	return nil
}

// finishValue runs the shared transform-then-validate tail of a field.
// Validation compares the value after any transform.
func finishValue(name string, v any, o *fieldOptions) (any, error) {
	if o == nil {
		return v, nil
	}
	if o.transform != nil {
		v = normalizeLoose(o.transform(v))
	}
	if o.hasExpect && !scalarEqual(o.expected, v) {
		return nil, errors.Validation(name, o.expected, v)
	}
	return v, nil
}

// storeInstr runs its inner field and relocates the value from the visible
// result into hidden storage.
type storeInstr struct {
	name  string
	inner instruction
}

func (s *storeInstr) op() string    { return "store" }
func (s *storeInstr) label() string { return s.name }

func (s *storeInstr) exec(st *runState) error {
	if err := s.inner.exec(st); err != nil {
		return err
	}
	if v, ok := st.result.Get(s.name); ok {
		st.result.Delete(s.name)
		st.stored.Update(s.name, v)
	}
	return nil
}

// deriveInstr adds a computed value to the visible result.
type deriveInstr struct {
	name string
	fn   DeriveFunc
}

func (d *deriveInstr) op() string    { return "derive" }
func (d *deriveInstr) label() string { return d.name }

func (d *deriveInstr) exec(st *runState) error {
	st.result.Update(d.name, normalizeLoose(d.fn(st.view())))
	return nil
}

// skipInstr moves the cursor without decoding. bits may be negative.
type skipInstr struct {
	bits int
}

func (s *skipInstr) op() string    { return "skip" }
func (s *skipInstr) label() string { return "" }

func (s *skipInstr) exec(st *runState) error {
	return st.cur.Advance(s.bits)
}

// padInstr aligns the cursor to the next byte boundary.
type padInstr struct{}

func (p *padInstr) op() string    { return "pad" }
func (p *padInstr) label() string { return "" }

func (p *padInstr) exec(st *runState) error {
	st.cur.Align()
	return nil
}

// endianInstr switches the byte order for the rest of this program.
type endianInstr struct {
	endian Endian
}

func (e *endianInstr) op() string    { return "endianness" }
func (e *endianInstr) label() string { return "" }

func (e *endianInstr) exec(st *runState) error {
	st.endian = e.endian
	return nil
}

// condInstr runs a nested program when its predicate holds.
type condInstr struct {
	pred    Predicate
	program *Spec
}

func (c *condInstr) op() string    { return "if" }
func (c *condInstr) label() string { return "" }

func (c *condInstr) exec(st *runState) error {
	if !c.pred(st.view()) {
		return nil
	}
	return st.runNested(c.program)
}

// switchInstr picks one nested program by stringified key.
type switchInstr struct {
	key   KeyFunc
	cases map[string]*Spec
}

func (s *switchInstr) op() string    { return "switch" }
func (s *switchInstr) label() string { return "" }

func (s *switchInstr) exec(st *runState) error {
	key := formatScalar(normalizeLoose(s.key(st.view())))
	prog, ok := s.cases[key]
	if !ok {
		prog, ok = s.cases[DefaultCase]
	}
	Logger().Debug("switch case",
		zap.String("key", key),
		zap.Bool("matched", ok),
	)
	if !ok {
		return nil
	}
	return st.runNested(prog)
}
