package binspec

import (
	"math"
	"testing"

	"github.com/Velocidex/ordereddict"

	"github.com/wirebyte/binspec/internal/buffer"
)

func decodeOne(t *testing.T, k Kind, data []byte, o *fieldOptions, e Endian) (any, *buffer.Cursor) {
	t.Helper()
	cur := buffer.NewCursor(data)
	v, err := k.decode(cur, o, e)
	if err != nil {
		t.Fatalf("decode %s: %v", k, err)
	}
	return v, cur
}

func TestDecodeIntegers(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		data   []byte
		endian Endian
		want   int64
		bits   int
	}{
		{"u8", UInt8, []byte{0xFF}, BigEndian, 255, 8},
		{"s8 negative", Int8, []byte{0x80}, BigEndian, -128, 8},
		{"s8 positive", Int8, []byte{0x7F}, BigEndian, 127, 8},
		{"u16 big", UInt16, []byte{0x12, 0x34}, BigEndian, 0x1234, 16},
		{"u16 little", UInt16, []byte{0x12, 0x34}, LittleEndian, 0x3412, 16},
		{"s16 negative", Int16, []byte{0xFF, 0xFE}, BigEndian, -2, 16},
		{"s16 little negative", Int16, []byte{0xFE, 0xFF}, LittleEndian, -2, 16},
		{"u32 big", UInt32, []byte{0x01, 0x02, 0x03, 0x04}, BigEndian, 0x01020304, 32},
		{"u32 little", UInt32, []byte{0x01, 0x02, 0x03, 0x04}, LittleEndian, 0x04030201, 32},
		{"u32 max", UInt32, []byte{0xFF, 0xFF, 0xFF, 0xFF}, BigEndian, math.MaxUint32, 32},
		{"s32 negative", Int32, []byte{0xFF, 0xFF, 0xFF, 0xFB}, BigEndian, -5, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, cur := decodeOne(t, tt.kind, tt.data, nil, tt.endian)
			got, ok := v.(int64)
			if !ok {
				t.Fatalf("decoded %T, want int64", v)
			}
			if got != tt.want {
				t.Errorf("decoded %d, want %d", got, tt.want)
			}
			if cur.BitPos() != tt.bits {
				t.Errorf("consumed %d bits, want %d", cur.BitPos(), tt.bits)
			}
		})
	}
}

func TestDecodeFloats(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		data   []byte
		endian Endian
		want   float64
	}{
		{"f32 pi big", Float, []byte{0x40, 0x49, 0x0F, 0xD0}, BigEndian, float64(math.Float32frombits(0x40490FD0))},
		{"f32 pi little", Float, []byte{0xD0, 0x0F, 0x49, 0x40}, LittleEndian, float64(math.Float32frombits(0x40490FD0))},
		{"f32 negative", Float, []byte{0xC0, 0x00, 0x00, 0x00}, BigEndian, -2},
		{"f64 big", Double, []byte{0x40, 0x09, 0x21, 0xFB, 0x54, 0x44, 0x2D, 0x18}, BigEndian, math.Float64frombits(0x400921FB54442D18)},
		{"f64 little", Double, []byte{0x18, 0x2D, 0x44, 0x54, 0xFB, 0x21, 0x09, 0x40}, LittleEndian, math.Float64frombits(0x400921FB54442D18)},
		{"f16 one", Float16, []byte{0x3C, 0x00}, BigEndian, 1},
		{"f16 minus two", Float16, []byte{0xC0, 0x00}, BigEndian, -2},
		{"f16 little", Float16, []byte{0x00, 0x3C}, LittleEndian, 1},
		{"f16 third", Float16, []byte{0x35, 0x55}, BigEndian, 0.333251953125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := decodeOne(t, tt.kind, tt.data, nil, tt.endian)
			got, ok := v.(float64)
			if !ok {
				t.Fatalf("decoded %T, want float64", v)
			}
			if got != tt.want {
				t.Errorf("decoded %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFloat16Specials(t *testing.T) {
	if v := float16ToFloat64(0x7C00); !math.IsInf(v, 1) {
		t.Errorf("0x7C00 = %v, want +Inf", v)
	}
	if v := float16ToFloat64(0xFC00); !math.IsInf(v, -1) {
		t.Errorf("0xFC00 = %v, want -Inf", v)
	}
	if v := float16ToFloat64(0x7E00); !math.IsNaN(v) {
		t.Errorf("0x7E00 = %v, want NaN", v)
	}
	if v := float16ToFloat64(0x0000); v != 0 {
		t.Errorf("0x0000 = %v, want 0", v)
	}
	// smallest subnormal
	if v := float16ToFloat64(0x0001); v != math.Pow(2, -24) {
		t.Errorf("0x0001 = %v, want 2^-24", v)
	}
}

func TestDecodeRounding(t *testing.T) {
	two := 2
	zero := 0
	tests := []struct {
		name string
		dp   *int
		want float64
	}{
		{"no rounding", nil, float64(math.Float32frombits(0x40490FD0))},
		{"dp 2", &two, 3.14},
		{"dp 0", &zero, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &fieldOptions{dp: tt.dp}
			v, _ := decodeOne(t, Float, []byte{0x40, 0x49, 0x0F, 0xD0}, o, BigEndian)
			if v.(float64) != tt.want {
				t.Errorf("decoded %v, want %v", v, tt.want)
			}
		})
	}

	// half rounds away from zero
	o := &fieldOptions{dp: &zero}
	cur := buffer.NewCursor([]byte{0x3F, 0xC0, 0x00, 0x00}) // 1.5
	v, err := Float.decode(cur, o, BigEndian)
	if err != nil {
		t.Fatal(err)
	}
	if v.(float64) != 2 {
		t.Errorf("round(1.5) = %v, want 2", v)
	}
}

func TestDecodeBool(t *testing.T) {
	cur := buffer.NewCursor([]byte{0xA0})
	want := []bool{true, false, true}
	for i, w := range want {
		v, err := Bool.decode(cur, nil, BigEndian)
		if err != nil {
			t.Fatalf("decode bool %d: %v", i, err)
		}
		if v.(bool) != w {
			t.Errorf("bool %d = %v, want %v", i, v, w)
		}
	}
	if cur.BitPos() != 3 {
		t.Errorf("consumed %d bits, want 3", cur.BitPos())
	}
}

func TestDecodeBitFields(t *testing.T) {
	// 0xA5 0x32 = 10100101 00110010
	data := []byte{0xA5, 0x32}

	cur := buffer.NewCursor(data)
	kinds := []Kind{Bits2, Bits3, Bits4}
	want := []int64{2, 4, 10}
	for i, k := range kinds {
		v, err := k.decode(cur, nil, BigEndian)
		if err != nil {
			t.Fatalf("decode %s: %v", k, err)
		}
		if v.(int64) != want[i] {
			t.Errorf("%s = %d, want %d", k, v, want[i])
		}
	}
	if cur.BitPos() != 9 {
		t.Errorf("consumed %d bits, want 9", cur.BitPos())
	}

	// a bit field never depends on endianness
	for _, e := range []Endian{BigEndian, LittleEndian} {
		cur := buffer.NewCursor(data)
		v, err := Bits12.decode(cur, nil, e)
		if err != nil {
			t.Fatal(err)
		}
		if v.(int64) != 0xA53 {
			t.Errorf("bits12 %s endian = %#x, want 0xA53", e, v)
		}
	}
}

func TestDecodeText(t *testing.T) {
	term := byte(';')
	size3 := &fieldOptions{size: 3, hasSize: true}

	tests := []struct {
		name string
		data []byte
		opts *fieldOptions
		want string
		pos  int
	}{
		{"sized", []byte("abcdef"), size3, "abc", 3},
		{"terminated", []byte("ab;cd"), &fieldOptions{terminator: &term}, "ab", 3},
		{"terminator first", []byte(";cd"), &fieldOptions{terminator: &term}, "", 1},
		{"to end", []byte("hello"), nil, "hello", 5},
		{"to end empty", []byte{}, nil, "", 0},
		{"ascii masks high bit", []byte{0xC1, 0x42}, &fieldOptions{encoding: EncodingASCII}, "AB", 2},
		{"hex", []byte{0xDE, 0xAD}, &fieldOptions{encoding: EncodingHex}, "dead", 2},
		{"base64", []byte("Man"), &fieldOptions{encoding: EncodingBase64}, "TWFu", 3},
		{"sized zero", []byte("xy"), &fieldOptions{hasSize: true}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := buffer.NewCursor(tt.data)
			v, err := Text.decode(cur, tt.opts, BigEndian)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if v.(string) != tt.want {
				t.Errorf("decoded %q, want %q", v, tt.want)
			}
			if cur.BytePos() != tt.pos {
				t.Errorf("BytePos = %d, want %d", cur.BytePos(), tt.pos)
			}
		})
	}
}

func TestKindBitWidth(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{UInt8, 8}, {Int8, 8},
		{UInt16, 16}, {Int16, 16}, {Float16, 16},
		{UInt32, 32}, {Int32, 32}, {Float, 32},
		{Double, 64},
		{Bool, 1}, {Bit, 1}, {Bits2, 2}, {Bits9, 9}, {Bits16, 16},
		{Text, -1},
	}
	for _, tt := range tests {
		if got := tt.kind.bitWidth(nil); got != tt.want {
			t.Errorf("%s width = %d, want %d", tt.kind, got, tt.want)
		}
	}

	sized := &fieldOptions{size: 4, hasSize: true}
	if got := Text.bitWidth(sized); got != 32 {
		t.Errorf("sized text width = %d, want 32", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int", 42, int64(42)},
		{"int8", int8(-3), int64(-3)},
		{"uint16", uint16(9), int64(9)},
		{"uint32", uint32(7), int64(7)},
		{"int64", int64(1), int64(1)},
		{"float32", float32(1.5), 1.5},
		{"float64", 2.5, 2.5},
		{"bool", true, true},
		{"string", "x", "x"},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize(tt.in)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if got != tt.want {
				t.Errorf("normalize(%v) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}

	if _, err := normalize(uint64(math.MaxUint64)); err == nil {
		t.Error("uint64 overflow did not fail")
	}
	if _, err := normalize(struct{}{}); err == nil {
		t.Error("struct literal did not fail")
	}
}

func TestScalarEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"int64 equal", int64(3), int64(3), true},
		{"int64 unequal", int64(3), int64(4), false},
		{"int64 vs float64", int64(4), 4.0, true},
		{"float64 vs int64", 4.0, int64(4), true},
		{"float mismatch", 4.5, int64(4), false},
		{"bool", true, true, true},
		{"bool mismatch", true, false, false},
		{"string", "a", "a", true},
		{"string vs int", "4", int64(4), false},
		{"nil nil", nil, nil, true},
		{"nil value", nil, int64(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scalarEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("scalarEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFormatScalar(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{int64(128), "128"},
		{int64(-7), "-7"},
		{float64(1), "1"},
		{2.5, "2.5"},
		{true, "true"},
		{false, "false"},
		{"raw", "raw"},
	}
	for _, tt := range tests {
		if got := formatScalar(tt.in); got != tt.want {
			t.Errorf("formatScalar(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Cursor accounting: after a run, the cursor has moved by exactly the sum
// of the decoded widths.
func TestRunCursorAccounting(t *testing.T) {
	spec := New().
		Field("a", UInt8).      // 8
		Field("b", Bits3).      // 3
		Field("c", Bool).       // 1
		Pad().                  // 4 to realign
		Field("d", UInt16).     // 16
		Skip(1).                // 8
		Field("e", Bits9)       // 9
	if err := spec.Err(); err != nil {
		t.Fatal(err)
	}

	data := []byte{0x01, 0xA5, 0x00, 0x10, 0xFF, 0x80, 0x40}
	st := &runState{
		cur:    buffer.NewCursor(data),
		result: ordereddict.NewDict(),
		stored: ordereddict.NewDict(),
		endian: BigEndian,
	}
	if err := run(spec, st); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := 8 + 3 + 1 + 4 + 16 + 8 + 9
	if got := st.cur.BitPos(); got != want {
		t.Errorf("cursor at bit %d, want %d", got, want)
	}
}

// A literal consumes nothing and an endianness switch consumes nothing.
func TestRunZeroWidthInstructions(t *testing.T) {
	spec := New().
		Field("v", Lit("1.0")).
		Endianness(LittleEndian).
		Derive("d", func(View) any { return 1 })
	if err := spec.Err(); err != nil {
		t.Fatal(err)
	}

	st := &runState{
		cur:    buffer.NewCursor([]byte{0xAA}),
		result: ordereddict.NewDict(),
		stored: ordereddict.NewDict(),
		endian: BigEndian,
	}
	if err := run(spec, st); err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.cur.BitPos() != 0 {
		t.Errorf("cursor at bit %d, want 0", st.cur.BitPos())
	}
	if st.endian != LittleEndian {
		t.Errorf("endian = %v, want little", st.endian)
	}
}
