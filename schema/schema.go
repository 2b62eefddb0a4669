package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wirebyte/binspec"
)

// Definition is the top-level schema document.
type Definition struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	Endian string  `json:"endian,omitempty" yaml:"endian,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Field is one instruction of a schema document. Which keys apply depends
// on the instruction: typed fields carry a type, literals a value, derived
// fields a compute, conditionals a when block and switches an on key.
type Field struct {
	Name       string             `json:"name,omitempty" yaml:"name,omitempty"`
	Type       string             `json:"type,omitempty" yaml:"type,omitempty"`
	Bits       int                `json:"bits,omitempty" yaml:"bits,omitempty"`
	Size       *int               `json:"size,omitempty" yaml:"size,omitempty"`
	Bytes      int                `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Endian     string             `json:"endian,omitempty" yaml:"endian,omitempty"`
	Encoding   string             `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Terminator any                `json:"terminator,omitempty" yaml:"terminator,omitempty"`
	DP         *int               `json:"dp,omitempty" yaml:"dp,omitempty"`
	Store      bool               `json:"store,omitempty" yaml:"store,omitempty"`
	Expect     any                `json:"expect,omitempty" yaml:"expect,omitempty"`
	Value      any                `json:"value,omitempty" yaml:"value,omitempty"`
	Transform  []Stage            `json:"transform,omitempty" yaml:"transform,omitempty"`
	Compute    *Compute           `json:"compute,omitempty" yaml:"compute,omitempty"`
	When       *Condition         `json:"when,omitempty" yaml:"when,omitempty"`
	On         string             `json:"on,omitempty" yaml:"on,omitempty"`
	Cases      map[string][]Field `json:"cases,omitempty" yaml:"cases,omitempty"`
	Fields     []Field            `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Stage is a single transformation step. Exactly one operator must be set.
type Stage struct {
	Add  *float64 `json:"add,omitempty" yaml:"add,omitempty"`
	Sub  *float64 `json:"sub,omitempty" yaml:"sub,omitempty"`
	Mult *float64 `json:"mult,omitempty" yaml:"mult,omitempty"`
	Div  *float64 `json:"div,omitempty" yaml:"div,omitempty"`
}

// Compute is a binary arithmetic derivation over decoded fields. Operands
// are $field references or numeric literals.
type Compute struct {
	Op string `json:"op" yaml:"op"` // add, sub, mul, div
	A  string `json:"a" yaml:"a"`
	B  string `json:"b" yaml:"b"`
}

// Condition gates a nested block on a decoded field. All set comparators
// must hold; with none set the condition tests mere presence.
type Condition struct {
	Field string   `json:"field" yaml:"field"`
	Eq    *float64 `json:"eq,omitempty" yaml:"eq,omitempty"`
	Ne    *float64 `json:"ne,omitempty" yaml:"ne,omitempty"`
	Gt    *float64 `json:"gt,omitempty" yaml:"gt,omitempty"`
	Gte   *float64 `json:"gte,omitempty" yaml:"gte,omitempty"`
	Lt    *float64 `json:"lt,omitempty" yaml:"lt,omitempty"`
	Lte   *float64 `json:"lte,omitempty" yaml:"lte,omitempty"`
}

// Parse reads a YAML or JSON schema document.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		if jerr := json.Unmarshal(data, &def); jerr != nil {
			return nil, fmt.Errorf("parse schema: %w", err)
		}
	}
	return &def, nil
}

// Load parses a schema document and compiles it to an executable program.
func Load(data []byte) (*binspec.Spec, error) {
	def, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return def.Compile()
}

// Compile lowers the definition into a decoding program.
func (d *Definition) Compile() (*binspec.Spec, error) {
	s := binspec.New()
	if d.Endian != "" {
		e, err := parseEndian(d.Endian)
		if err != nil {
			return nil, err
		}
		s.Endianness(e)
	}
	if err := compileFields(s, d.Fields); err != nil {
		return nil, err
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func compileFields(s *binspec.Spec, fields []Field) error {
	for i := range fields {
		if err := compileField(s, &fields[i]); err != nil {
			return fmt.Errorf("field %d (%s): %w", i, fields[i].displayName(), err)
		}
	}
	return nil
}

func (f *Field) displayName() string {
	switch {
	case f.Name != "":
		return f.Name
	case f.When != nil:
		return "when"
	case f.On != "":
		return "switch"
	case f.Type != "":
		return f.Type
	}
	return "?"
}

func compileField(s *binspec.Spec, f *Field) error {
	switch {
	case f.When != nil:
		pred, err := compileCondition(f.When)
		if err != nil {
			return err
		}
		nested := binspec.New()
		if err := compileFields(nested, f.Fields); err != nil {
			return err
		}
		s.If(pred, nested)
		return nil

	case f.On != "":
		name := strings.TrimPrefix(f.On, "$")
		if name == "" {
			return fmt.Errorf("switch needs a field reference")
		}
		if len(f.Cases) == 0 {
			return fmt.Errorf("switch %q has no cases", f.On)
		}
		cases := make(map[string]*binspec.Spec, len(f.Cases))
		for key, caseFields := range f.Cases {
			nested := binspec.New()
			if err := compileFields(nested, caseFields); err != nil {
				return fmt.Errorf("case %q: %w", key, err)
			}
			cases[key] = nested
		}
		s.Switch(func(v binspec.View) any {
			val, _ := v.Get(name)
			return val
		}, cases)
		return nil

	case f.Compute != nil:
		if f.Name == "" {
			return fmt.Errorf("computed field needs a name")
		}
		fn, err := compileCompute(f.Compute)
		if err != nil {
			return err
		}
		s.Derive(f.Name, fn)
		return nil

	case f.Value != nil:
		if f.Name == "" {
			return fmt.Errorf("literal field needs a name")
		}
		opts, err := fieldOptions(f)
		if err != nil {
			return err
		}
		if f.Store {
			s.Store(f.Name, binspec.Lit(f.Value), opts...)
		} else {
			s.Field(f.Name, binspec.Lit(f.Value), opts...)
		}
		return nil

	case f.Type == "skip":
		s.Skip(f.Bytes)
		return nil

	case f.Type == "pad":
		s.Pad()
		return nil

	case f.Type == "endian":
		e, err := parseEndian(f.Endian)
		if err != nil {
			return err
		}
		s.Endianness(e)
		return nil

	case f.Type != "":
		k, err := parseKind(f.Type, f.Bits)
		if err != nil {
			return err
		}
		if f.Name == "" {
			return fmt.Errorf("%s field needs a name", f.Type)
		}
		opts, err := fieldOptions(f)
		if err != nil {
			return err
		}
		if f.Store {
			s.Store(f.Name, k, opts...)
		} else {
			s.Field(f.Name, k, opts...)
		}
		return nil
	}
	return fmt.Errorf("field defines no instruction")
}

func fieldOptions(f *Field) ([]binspec.FieldOption, error) {
	var opts []binspec.FieldOption
	if f.Size != nil {
		opts = append(opts, binspec.WithSize(*f.Size))
	}
	if f.Terminator != nil {
		t, err := parseTerminator(f.Terminator)
		if err != nil {
			return nil, err
		}
		opts = append(opts, binspec.WithTerminator(t))
	}
	if f.Encoding != "" {
		opts = append(opts, binspec.WithEncoding(binspec.Encoding(f.Encoding)))
	}
	if f.DP != nil {
		opts = append(opts, binspec.WithDP(*f.DP))
	}
	if len(f.Transform) > 0 {
		fn, err := compileTransform(f.Transform)
		if err != nil {
			return nil, err
		}
		opts = append(opts, binspec.WithTransform(fn))
	}
	if f.Expect != nil {
		opts = append(opts, binspec.WithExpect(f.Expect))
	}
	return opts, nil
}

// compileTransform folds the stages into a single pipeline over float64.
// Non-numeric values pass through untouched.
func compileTransform(stages []Stage) (func(any) any, error) {
	for i, st := range stages {
		n := 0
		for _, set := range []bool{st.Add != nil, st.Sub != nil, st.Mult != nil, st.Div != nil} {
			if set {
				n++
			}
		}
		if n != 1 {
			return nil, fmt.Errorf("transform stage %d must set exactly one of add, sub, mult, div", i)
		}
	}
	steps := make([]Stage, len(stages))
	copy(steps, stages)
	return func(v any) any {
		f, ok := toFloat64(v)
		if !ok {
			return v
		}
		for _, st := range steps {
			switch {
			case st.Add != nil:
				f += *st.Add
			case st.Sub != nil:
				f -= *st.Sub
			case st.Mult != nil:
				f *= *st.Mult
			case st.Div != nil:
				f /= *st.Div
			}
		}
		return f
	}, nil
}

type operand struct {
	ref string
	lit float64
}

func parseOperand(s string) (operand, error) {
	if strings.HasPrefix(s, "$") {
		name := s[1:]
		if name == "" {
			return operand{}, fmt.Errorf("empty field reference")
		}
		return operand{ref: name}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return operand{}, fmt.Errorf("operand %q is neither a $field reference nor a number", s)
	}
	return operand{lit: f}, nil
}

func (o operand) resolve(v binspec.View) float64 {
	if o.ref != "" {
		return v.Float(o.ref)
	}
	return o.lit
}

func compileCompute(c *Compute) (binspec.DeriveFunc, error) {
	a, err := parseOperand(c.A)
	if err != nil {
		return nil, err
	}
	b, err := parseOperand(c.B)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case "add":
		return func(v binspec.View) any { return a.resolve(v) + b.resolve(v) }, nil
	case "sub":
		return func(v binspec.View) any { return a.resolve(v) - b.resolve(v) }, nil
	case "mul":
		return func(v binspec.View) any { return a.resolve(v) * b.resolve(v) }, nil
	case "div":
		return func(v binspec.View) any { return a.resolve(v) / b.resolve(v) }, nil
	}
	return nil, fmt.Errorf("unknown compute op %q", c.Op)
}

func compileCondition(c *Condition) (binspec.Predicate, error) {
	if c.Field == "" {
		return nil, fmt.Errorf("condition needs a field reference")
	}
	name := strings.TrimPrefix(c.Field, "$")
	cond := *c
	return func(v binspec.View) bool {
		if !v.Has(name) {
			return false
		}
		fv := v.Float(name)
		if cond.Eq != nil && fv != *cond.Eq {
			return false
		}
		if cond.Ne != nil && fv == *cond.Ne {
			return false
		}
		if cond.Gt != nil && !(fv > *cond.Gt) {
			return false
		}
		if cond.Gte != nil && !(fv >= *cond.Gte) {
			return false
		}
		if cond.Lt != nil && !(fv < *cond.Lt) {
			return false
		}
		if cond.Lte != nil && !(fv <= *cond.Lte) {
			return false
		}
		return true
	}, nil
}

func parseEndian(s string) (binspec.Endian, error) {
	switch s {
	case "big":
		return binspec.BigEndian, nil
	case "little":
		return binspec.LittleEndian, nil
	}
	return 0, fmt.Errorf("unknown endianness %q", s)
}

func parseKind(t string, bits int) (binspec.Kind, error) {
	switch t {
	case "u8":
		return binspec.UInt8, nil
	case "s8":
		return binspec.Int8, nil
	case "u16":
		return binspec.UInt16, nil
	case "s16":
		return binspec.Int16, nil
	case "u32":
		return binspec.UInt32, nil
	case "s32":
		return binspec.Int32, nil
	case "f16":
		return binspec.Float16, nil
	case "f32":
		return binspec.Float, nil
	case "f64":
		return binspec.Double, nil
	case "bool":
		return binspec.Bool, nil
	case "bit":
		return binspec.Bit, nil
	case "text":
		return binspec.Text, nil
	case "bits":
		if bits == 0 {
			return 0, fmt.Errorf("bits type needs a bits count")
		}
		return binspec.BitsOf(bits)
	}
	if rest, ok := strings.CutPrefix(t, "bits"); ok {
		w, err := strconv.Atoi(rest)
		if err == nil {
			return binspec.BitsOf(w)
		}
	}
	return 0, fmt.Errorf("unknown field type %q", t)
}

// parseTerminator accepts a one-character string or a byte value 0..255.
func parseTerminator(v any) (byte, error) {
	switch x := v.(type) {
	case string:
		if len(x) != 1 {
			return 0, fmt.Errorf("terminator %q must be a single byte", x)
		}
		return x[0], nil
	case int:
		if x < 0 || x > 255 {
			return 0, fmt.Errorf("terminator %d out of byte range", x)
		}
		return byte(x), nil
	case float64:
		// JSON numbers arrive as float64
		if x != float64(int(x)) || x < 0 || x > 255 {
			return 0, fmt.Errorf("terminator %v out of byte range", x)
		}
		return byte(int(x)), nil
	}
	return 0, fmt.Errorf("terminator must be a one-character string or a byte value, got %T", v)
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}
