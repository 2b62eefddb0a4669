package buffer

import (
	"encoding/binary"
	"fmt"

	"github.com/wirebyte/binspec/errors"
)

// Cursor walks a byte slice with bit precision. The position is a pair of
// byte offset and bit offset within that byte; bits are consumed MSB first.
// A Cursor never copies or mutates the underlying slice, so several cursors
// may share one buffer.
type Cursor struct {
	data    []byte
	byteOff int
	bitOff  int // 0..7, bits already consumed from data[byteOff]
}

// NewCursor creates a Cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the buffer length in bytes.
func (c *Cursor) Len() int {
	return len(c.data)
}

// BitLen returns the buffer length in bits.
func (c *Cursor) BitLen() int {
	return len(c.data) * 8
}

// BytePos returns the current byte offset.
func (c *Cursor) BytePos() int {
	return c.byteOff
}

// BitPos returns the absolute position in bits from the start of the buffer.
func (c *Cursor) BitPos() int {
	return c.byteOff*8 + c.bitOff
}

// BitOffset returns the bit offset within the current byte, 0 through 7.
func (c *Cursor) BitOffset() int {
	return c.bitOff
}

// Aligned reports whether the cursor sits on a byte boundary.
func (c *Cursor) Aligned() bool {
	return c.bitOff == 0
}

// AssertAligned returns an alignment error when the cursor sits mid-byte.
// Every byte-oriented read calls this before touching the buffer.
func (c *Cursor) AssertAligned() error {
	if c.bitOff != 0 {
		return errors.Alignment(c.bitOff)
	}
	return nil
}

// Align advances to the next byte boundary, consuming the remaining bits of
// the current byte. No-op when already aligned.
func (c *Cursor) Align() {
	if c.bitOff != 0 {
		c.bitOff = 0
		c.byteOff++
	}
}

// Advance moves the cursor by the given number of bits. Negative values
// rewind. The target position must stay within [0, BitLen].
func (c *Cursor) Advance(bits int) error {
	pos := c.BitPos()
	target := pos + bits
	if target < 0 || target > c.BitLen() {
		return errors.OutOfBoundsSkip(bits, pos, c.BitLen())
	}
	c.byteOff = target / 8
	c.bitOff = target % 8
	return nil
}

// ReadByte reads a single byte and advances the position.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.AssertAligned(); err != nil {
		return 0, err
	}
	if c.byteOff >= len(c.data) {
		return 0, errors.OutOfBoundsRead(1, c.byteOff, len(c.data))
	}
	b := c.data[c.byteOff]
	c.byteOff++
	return b, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the buffer
// and must not be mutated.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.AssertAligned(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("negative read length %d", n))
	}
	if c.byteOff+n > len(c.data) {
		return nil, errors.OutOfBoundsRead(n, c.byteOff, len(c.data))
	}
	b := c.data[c.byteOff : c.byteOff+n]
	c.byteOff += n
	return b, nil
}

// ReadUint16 reads a fixed 2-byte unsigned integer in the given byte order.
func (c *Cursor) ReadUint16(order binary.ByteOrder) (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// ReadUint32 reads a fixed 4-byte unsigned integer in the given byte order.
func (c *Cursor) ReadUint32(order binary.ByteOrder) (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// ReadUint64 reads a fixed 8-byte unsigned integer in the given byte order.
func (c *Cursor) ReadUint64(order binary.ByteOrder) (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

// ReadBits reads width bits MSB first, crossing byte boundaries as needed,
// and returns them right-aligned. width must not exceed 64.
func (c *Cursor) ReadBits(width int) (uint64, error) {
	pos := c.BitPos()
	if width < 0 || pos+width > c.BitLen() {
		return 0, errors.OutOfBoundsBits(width, pos, c.BitLen())
	}

	// Aligned whole-byte reads skip the bit loop.
	if c.bitOff == 0 && width%8 == 0 {
		var v uint64
		for i := 0; i < width/8; i++ {
			v = v<<8 | uint64(c.data[c.byteOff+i])
		}
		c.byteOff += width / 8
		return v, nil
	}

	var v uint64
	for i := 0; i < width; i++ {
		v <<= 1
		if c.data[c.byteOff]&(0x80>>c.bitOff) != 0 {
			v |= 1
		}
		c.bitOff++
		if c.bitOff == 8 {
			c.bitOff = 0
			c.byteOff++
		}
	}
	return v, nil
}

// Tail returns the bytes from the current byte offset to the end of the
// buffer without consuming them. Any partially consumed byte is included;
// callers that need byte semantics align first. The slice aliases the
// buffer and must not be mutated.
func (c *Cursor) Tail() []byte {
	return c.data[c.byteOff:]
}

// Peek relocates the cursor to the given byte offset, runs fn, and restores
// the original position whether or not fn fails. need is the byte length fn
// will consume; the bounds check runs before relocating.
func (c *Cursor) Peek(offset, need int, fn func(*Cursor) error) error {
	if offset < 0 || offset+need > len(c.data) {
		return errors.OutOfBoundsPeek(need, offset, len(c.data))
	}
	savedByte, savedBit := c.byteOff, c.bitOff
	c.byteOff, c.bitOff = offset, 0
	err := fn(c)
	c.byteOff, c.bitOff = savedByte, savedBit
	return err
}
