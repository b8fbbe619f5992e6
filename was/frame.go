package was

// This file contains the run-length decoder for a single frame.

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// MaxFrameDimension bounds a frame's declared width and height.
const MaxFrameDimension = 4096

// Opcode styles, selected by the top two bits of an opcode byte.
const (
	styleAlpha       = 0 // 00: pixel(s) with alpha
	styleLiteral     = 1 // 01: n opaque pixels, one index each
	styleRepeat      = 2 // 10: one opaque index, n times
	styleTransparent = 3 // 11: skip n pixels

	singleAlphaPixel = 0x20
	endOfLine        = 0x00
	undoPixel        = 0xC0
)

// Frame is one decoded image of a sprite.
//
// X and Y locate the frame's key point relative to its own top-left corner;
// see Sprite.Cell for how they align frames with the sprite's anchor.
type Frame struct {
	X, Y          int32
	Width, Height int
	Pix           []color.NRGBA // row-major, Width*Height
}

func (f *Frame) ColorModel() color.Model {
	return color.NRGBAModel
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f *Frame) At(x, y int) color.Color {
	return f.NRGBAAt(x, y)
}

func (f *Frame) NRGBAAt(x, y int) color.NRGBA {
	if !(image.Point{x, y}.In(f.Bounds())) {
		return color.NRGBA{}
	}
	return f.Pix[y*f.Width+x]
}

// NRGBA returns a copy of the frame as an *image.NRGBA.
func (f *Frame) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(f.Bounds())
	for i, c := range f.Pix {
		img.Pix[i*4+0] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = c.A
	}
	return img
}

func corrupt(msg string, args ...interface{}) error {
	return errors.Wrapf(ErrCorruptFrame, msg, args...)
}

// alphaLevel scales a 5-bit alpha value from the opcode stream to 8 bits.
// Alpha run bytes go through the same scaling, dropping their high bits.
func alphaLevel(level byte) uint8 {
	return level<<3 | 6
}

// DecodeFrame decodes a frame from buf, which starts at the frame's header.
// Offsets in the line offset table are relative to the start of buf.
//
// Pixels not covered by the opcode stream are left fully transparent.
func DecodeFrame(buf []byte, pal *Palette) (*Frame, error) {
	c := &cursor{buf: buf}
	x, err := c.int32()
	if err != nil {
		return nil, corrupt("could not read frame x")
	}
	y, err := c.int32()
	if err != nil {
		return nil, corrupt("could not read frame y")
	}
	w, err := c.uint32()
	if err != nil {
		return nil, corrupt("could not read frame width")
	}
	h, err := c.uint32()
	if err != nil {
		return nil, corrupt("could not read frame height")
	}
	if w > MaxFrameDimension || h > MaxFrameDimension {
		return nil, corrupt("frame too large; got %dx%d, want at most %d in each dimension", w, h, MaxFrameDimension)
	}

	lines := make([]int, h)
	for row := range lines {
		off, err := c.uint32()
		if err != nil {
			return nil, corrupt("could not read offset of line %d of %d", row, h)
		}
		if int64(off) >= int64(len(buf)) {
			return nil, corrupt("line %d starts at %d, past frame end at %d", row, off, len(buf))
		}
		lines[row] = int(off)
	}

	f := &Frame{
		X:      x,
		Y:      y,
		Width:  int(w),
		Height: int(h),
		Pix:    make([]color.NRGBA, int(w)*int(h)),
	}
	d := frameDecoder{
		frame: f,
		pal:   pal,
		buf:   buf,
	}
	for row := range lines {
		if err := d.decodeLine(row, lines); err != nil {
			return nil, errors.Wrapf(err, "line %d", row)
		}
	}
	return f, nil
}

// frameDecoder holds the scan state of one DecodeFrame call.
type frameDecoder struct {
	frame *Frame
	pal   *Palette
	buf   []byte

	// pos is the index of the next pixel in frame.Pix. It is not reset
	// per line: a line ends at (line+1)*Width once reconciled, but within
	// a line the undo opcode may step it back into the previous line.
	pos int
	// written counts pixels the current line has advanced over.
	written int
}

func (d *frameDecoder) put(c color.NRGBA) error {
	if d.pos < 0 || d.pos >= len(d.frame.Pix) {
		return corrupt("pixel %d outside of frame", d.pos)
	}
	d.frame.Pix[d.pos] = c
	d.pos++
	d.written++
	return nil
}

// lineFull reports whether the current line takes no more opcodes: it is
// complete, or an undo at its start stepped back into the line above.
func (d *frameDecoder) lineFull() bool {
	return d.written >= d.frame.Width || d.written < 0
}

func (d *frameDecoder) decodeLine(row int, lines []int) error {
	w := d.frame.Width
	d.written = 0
	c := &cursor{buf: d.buf, pos: lines[row]}

	for !d.lineFull() {
		op, err := c.peek()
		if err != nil {
			return corrupt("opcode stream ends without end of line")
		}
		if op == endOfLine {
			break
		}
		if err := d.decodeOp(c, op); err != nil {
			return err
		}
	}

	switch {
	case d.written == 0 && row > 0 && d.buf[lines[row-1]] != endOfLine:
		// An empty line repeats the line above it, unless that line was
		// itself stored as empty.
		if d.pos < w || d.pos+w > len(d.frame.Pix) {
			return corrupt("cannot repeat line at pixel %d", d.pos)
		}
		copy(d.frame.Pix[d.pos:d.pos+w], d.frame.Pix[d.pos-w:d.pos])
		d.pos += w
	case d.written < w:
		d.pos += w - d.written
	}
	return nil
}

func (d *frameDecoder) decodeOp(c *cursor, op byte) error {
	switch op >> 6 {
	case styleAlpha:
		if op&singleAlphaPixel != 0 {
			if prev, ok := c.prev(); ok && prev == undoPixel {
				// Repeats the pixel before the one just undone.
				if err := c.skip(2); err != nil {
					return corrupt("truncated repeated alpha pixel")
				}
				if d.pos == 0 {
					return corrupt("nothing to repeat at start of frame")
				}
				return d.put(d.frame.Pix[d.pos-1])
			}
			b, err := c.bytes(2)
			if err != nil {
				return corrupt("truncated alpha pixel")
			}
			col := d.pal[b[1]]
			col.A = alphaLevel(op & 0x1f)
			return d.put(col)
		}

		b, err := c.bytes(3)
		if err != nil {
			return corrupt("truncated alpha run")
		}
		col := d.pal[b[2]]
		col.A = alphaLevel(b[1])
		for n := int(op & 0x1f); n > 0 && !d.lineFull(); n-- {
			if err := d.put(col); err != nil {
				return err
			}
		}

	case styleLiteral:
		if err := c.skip(1); err != nil {
			return corrupt("truncated literal run")
		}
		for n := int(op & 0x3f); n > 0 && !d.lineFull(); n-- {
			idx, err := c.byte()
			if err != nil {
				return corrupt("truncated literal run")
			}
			col := d.pal[idx]
			col.A = 0xFF
			if err := d.put(col); err != nil {
				return err
			}
		}

	case styleRepeat:
		b, err := c.bytes(2)
		if err != nil {
			return corrupt("truncated repeat run")
		}
		col := d.pal[b[1]]
		col.A = 0xFF
		for n := int(op & 0x3f); n > 0 && !d.lineFull(); n-- {
			if err := d.put(col); err != nil {
				return err
			}
		}

	case styleTransparent:
		if err := c.skip(1); err != nil {
			return corrupt("truncated skip")
		}
		n := int(op & 0x3f)
		if n == 0 {
			// Steps back over the last pixel. Nothing to step back over at
			// the very start of the frame. At the start of any other line
			// this ends the line, which is then padded by Width+1 pixels.
			if d.pos > 0 {
				d.pos--
				d.written--
			}
			return nil
		}
		if left := d.frame.Width - d.written; n > left {
			n = left
		}
		d.pos += n
		d.written += n
	}
	return nil
}
