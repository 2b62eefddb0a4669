package binspec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/wirebyte/binspec/errors"
	"github.com/wirebyte/binspec/internal/buffer"
)

// Endian selects the byte order for multi-byte decoders. Programs start in
// big-endian order and may switch mid-stream.
type Endian uint8

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) String() string {
	if e == LittleEndian {
		return "little"
	}
	return "big"
}

func (e Endian) byteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Encoding names the codec applied to decoded text bytes.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf8"   // raw bytes as a UTF-8 string
	EncodingASCII  Encoding = "ascii"  // high bit of every byte masked off
	EncodingHex    Encoding = "hex"    // lowercase hex digits
	EncodingBase64 Encoding = "base64" // standard base64 with padding
)

func (e Encoding) valid() bool {
	switch e {
	case EncodingUTF8, EncodingASCII, EncodingHex, EncodingBase64:
		return true
	}
	return false
}

// Kind identifies a field decoder. Integer kinds normalize to int64,
// floating-point kinds to float64, Bool to bool and Text to string, so
// results carry exactly four value types.
type Kind uint8

const (
	UInt8 Kind = iota
	Int8
	UInt16
	Int16
	UInt32
	Int32
	Float16
	Float
	Double
	Bool
	Bit
	Bits2
	Bits3
	Bits4
	Bits5
	Bits6
	Bits7
	Bits8
	Bits9
	Bits10
	Bits11
	Bits12
	Bits13
	Bits14
	Bits15
	Bits16
	Text
)

func (k Kind) String() string {
	switch k {
	case UInt8:
		return "u8"
	case Int8:
		return "s8"
	case UInt16:
		return "u16"
	case Int16:
		return "s16"
	case UInt32:
		return "u32"
	case Int32:
		return "s32"
	case Float16:
		return "f16"
	case Float:
		return "f32"
	case Double:
		return "f64"
	case Bool:
		return "bool"
	case Bit:
		return "bit"
	case Text:
		return "text"
	}
	if k.isBits() {
		return "bits" + strconv.Itoa(k.bitsWidth())
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

func (k Kind) valid() bool {
	return k <= Text
}

// BitsOf returns the bit field kind of the given width, 1 through 16.
func BitsOf(width int) (Kind, error) {
	if width < 1 || width > 16 {
		return 0, errors.InvalidInput(fmt.Sprintf("bit field width %d out of range [1,16]", width))
	}
	return Bit + Kind(width-1), nil
}

// isBits reports whether k is one of the sub-byte bit field kinds.
func (k Kind) isBits() bool {
	return k >= Bit && k <= Bits16
}

// bitsWidth returns the field width for bit field kinds.
func (k Kind) bitsWidth() int {
	return int(k-Bit) + 1
}

// bitWidth returns the number of bits k consumes, or -1 when the width is
// only known at decode time (delimited or to-end text).
func (k Kind) bitWidth(o *fieldOptions) int {
	switch k {
	case UInt8, Int8:
		return 8
	case UInt16, Int16, Float16:
		return 16
	case UInt32, Int32, Float:
		return 32
	case Double:
		return 64
	case Bool:
		return 1
	case Text:
		if o != nil && o.hasSize {
			return o.size * 8
		}
		return -1
	}
	if k.isBits() {
		return k.bitsWidth()
	}
	return -1
}

// decode reads one value of kind k at the cursor, advancing it by the number
// of bits consumed. Integer byte orders follow e; bit fields and Bool are
// order-independent.
func (k Kind) decode(cur *buffer.Cursor, o *fieldOptions, e Endian) (any, error) {
	switch k {
	case UInt8:
		b, err := cur.ReadByte()
		if err != nil {
			return nil, err
		}
		return int64(b), nil
	case Int8:
		b, err := cur.ReadByte()
		if err != nil {
			return nil, err
		}
		return int64(int8(b)), nil
	case UInt16:
		v, err := cur.ReadUint16(e.byteOrder())
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case Int16:
		v, err := cur.ReadUint16(e.byteOrder())
		if err != nil {
			return nil, err
		}
		return int64(int16(v)), nil
	case UInt32:
		v, err := cur.ReadUint32(e.byteOrder())
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case Int32:
		v, err := cur.ReadUint32(e.byteOrder())
		if err != nil {
			return nil, err
		}
		return int64(int32(v)), nil
	case Float16:
		v, err := cur.ReadUint16(e.byteOrder())
		if err != nil {
			return nil, err
		}
		return roundTo(float16ToFloat64(v), o), nil
	case Float:
		v, err := cur.ReadUint32(e.byteOrder())
		if err != nil {
			return nil, err
		}
		return roundTo(float64(math.Float32frombits(v)), o), nil
	case Double:
		v, err := cur.ReadUint64(e.byteOrder())
		if err != nil {
			return nil, err
		}
		return roundTo(math.Float64frombits(v), o), nil
	case Bool:
		v, err := cur.ReadBits(1)
		if err != nil {
			return nil, err
		}
		return v == 1, nil
	case Text:
		return decodeText(cur, o)
	}
	if k.isBits() {
		v, err := cur.ReadBits(k.bitsWidth())
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	}
	return nil, errors.InvalidInput(fmt.Sprintf("unknown kind %d", k))
}

// decodeText reads a text field. Length resolution order: explicit size,
// then terminator scan, then the remainder of the buffer. A terminator is
// consumed but excluded from the value.
func decodeText(cur *buffer.Cursor, o *fieldOptions) (any, error) {
	if err := cur.AssertAligned(); err != nil {
		return nil, err
	}

	var raw []byte
	switch {
	case o != nil && o.hasSize:
		b, err := cur.ReadBytes(o.size)
		if err != nil {
			return nil, err
		}
		raw = b
	case o != nil && o.terminator != nil:
		tail := cur.Tail()
		i := bytes.IndexByte(tail, *o.terminator)
		if i < 0 {
			return nil, errors.TerminatorNotFound(*o.terminator, cur.BytePos())
		}
		b, err := cur.ReadBytes(i + 1)
		if err != nil {
			return nil, err
		}
		raw = b[:i]
	default:
		b, err := cur.ReadBytes(len(cur.Tail()))
		if err != nil {
			return nil, err
		}
		raw = b
	}

	enc := EncodingUTF8
	if o != nil && o.encoding != "" {
		enc = o.encoding
	}
	return encodeText(raw, enc)
}

func encodeText(raw []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingUTF8:
		return string(raw), nil
	case EncodingASCII:
		out := make([]byte, len(raw))
		for i, b := range raw {
			out[i] = b & 0x7F
		}
		return string(out), nil
	case EncodingHex:
		return hex.EncodeToString(raw), nil
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString(raw), nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown text encoding %q", enc))
}

// float16ToFloat64 expands an IEEE 754 half-precision value.
func float16ToFloat64(u uint16) float64 {
	sign := u >> 15 & 0x1
	exp := u >> 10 & 0x1F
	mant := u & 0x3FF

	var v float64
	switch {
	case exp == 0:
		// subnormal or zero
		v = math.Pow(2, -14) * float64(mant) / 1024
	case exp == 0x1F:
		if mant != 0 {
			return math.NaN()
		}
		v = math.Inf(1)
	default:
		v = math.Pow(2, float64(exp)-15) * (1 + float64(mant)/1024)
	}

	if sign == 1 {
		v = -v
	}
	return v
}

// roundTo applies the dp option, rounding half away from zero.
func roundTo(v float64, o *fieldOptions) float64 {
	if o == nil || o.dp == nil {
		return v
	}
	p := math.Pow10(*o.dp)
	return math.Round(v*p) / p
}

// normalize folds a caller-supplied scalar into the decoder's value model:
// int64, float64, bool or string.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, errors.InvalidInput(fmt.Sprintf("value %d overflows int64", x))
		}
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, errors.InvalidInput(fmt.Sprintf("value %d overflows int64", x))
		}
		return int64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case bool:
		return x, nil
	case string:
		return x, nil
	}
	return nil, errors.InvalidInput(fmt.Sprintf("unsupported scalar type %T", v))
}

// normalizeLoose is normalize for values the program cannot reject, such as
// derive callback results. Unsupported types pass through untouched.
func normalizeLoose(v any) any {
	n, err := normalize(v)
	if err != nil {
		return v
	}
	return n
}

// scalarEqual compares two normalized scalars. Integers and floats compare
// across the numeric boundary; other type mixes never match.
func scalarEqual(a, b any) bool {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y
		}
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case nil:
		return b == nil
	}
	return false
}

// formatScalar renders a normalized scalar as a switch case key. Integers
// print without an exponent so numeric keys read naturally in case tables.
func formatScalar(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return fmt.Sprintf("%v", v)
}
