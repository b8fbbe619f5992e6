package was

import (
	"encoding/binary"
	"io"
)

// cursor reads little-endian values from a byte slice, failing with
// io.ErrUnexpectedEOF instead of reading past its end.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) need(n int) error {
	if n < 0 || c.pos < 0 || c.remaining() < n {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (c *cursor) skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

func (c *cursor) peek() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	return c.buf[c.pos], nil
}

func (c *cursor) byte() (byte, error) {
	b, err := c.peek()
	if err != nil {
		return 0, err
	}
	c.pos++
	return b, nil
}

// prev returns the byte immediately before the read position.
func (c *cursor) prev() (byte, bool) {
	if c.pos <= 0 || c.pos > len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos-1], true
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) uint16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) int16() (int16, error) {
	v, err := c.uint16()
	return int16(v), err
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) int32() (int32, error) {
	v, err := c.uint32()
	return int32(v), err
}
