package was

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"testing"

	"badc0de.net/pkg/go-wdf/ttesting"
)

// testPalette has a distinct opaque color at every index.
func testPalette() *Palette {
	var p Palette
	for i := range p {
		p[i] = color.NRGBA{R: uint8(i), G: uint8(255 - i), B: uint8(i * 3), A: 0xFF}
	}
	return &p
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

var transparent = color.NRGBA{}

func encodeFrame(w, h uint32, rows ...[]byte) []byte {
	return (&ttesting.FrameBuilder{Width: w, Height: h, Rows: rows}).Bytes()
}

func assertPixels(t *testing.T, f *Frame, want []color.NRGBA) {
	t.Helper()
	if len(f.Pix) != len(want) {
		t.Fatalf("got %d pixels; want %d", len(f.Pix), len(want))
	}
	for i := range want {
		ttesting.AssertEqualNRGBA(t, fmt.Sprintf("pixel %d", i), f.Pix[i], want[i])
	}
}

func TestDecodeFrameOpcodes(t *testing.T) {
	p := testPalette()
	tests := []struct {
		name string
		w, h uint32
		rows [][]byte
		want []color.NRGBA
	}{
		{
			name: "single literal",
			w:    1, h: 1,
			rows: [][]byte{{0x41, 0x00}},
			want: []color.NRGBA{p[0]},
		},
		{
			name: "literal run",
			w:    3, h: 1,
			rows: [][]byte{{0x43, 1, 2, 3, 0x00}},
			want: []color.NRGBA{p[1], p[2], p[3]},
		},
		{
			name: "repeat run",
			w:    4, h: 1,
			rows: [][]byte{{0x84, 7, 0x00}},
			want: []color.NRGBA{p[7], p[7], p[7], p[7]},
		},
		{
			name: "skip then literal then padding",
			w:    4, h: 1,
			rows: [][]byte{{0xC2, 0x41, 5, 0x00}},
			want: []color.NRGBA{transparent, transparent, p[5], transparent},
		},
		{
			name: "single alpha pixels",
			w:    2, h: 1,
			rows: [][]byte{{0x3F, 9, 0x24, 10, 0x00}},
			want: []color.NRGBA{withAlpha(p[9], 254), withAlpha(p[10], 38)},
		},
		{
			name: "alpha run",
			w:    3, h: 1,
			rows: [][]byte{{0x03, 0x10, 9, 0x00}},
			want: []color.NRGBA{withAlpha(p[9], 0x86), withAlpha(p[9], 0x86), withAlpha(p[9], 0x86)},
		},
		{
			name: "alpha run drops high bits of alpha byte",
			w:    1, h: 1,
			rows: [][]byte{{0x01, 0xFF, 9, 0x00}},
			want: []color.NRGBA{withAlpha(p[9], 0xFE)},
		},
		{
			name: "literal run clipped at line end",
			w:    2, h: 2,
			rows: [][]byte{{0x45, 1, 2, 3, 4, 5}, {0x41, 6, 0x00}},
			want: []color.NRGBA{p[1], p[2], p[6], transparent},
		},
		{
			name: "repeat run clipped at line end",
			w:    3, h: 2,
			rows: [][]byte{{0xBF, 7}, {0x00}},
			want: []color.NRGBA{p[7], p[7], p[7], p[7], p[7], p[7]},
		},
		{
			name: "alpha run clipped at line end",
			w:    2, h: 2,
			rows: [][]byte{{0x1F, 0x1F, 4}, {0x41, 5, 0x00}},
			want: []color.NRGBA{withAlpha(p[4], 0xFE), withAlpha(p[4], 0xFE), p[5], transparent},
		},
		{
			name: "skip clipped at line end",
			w:    2, h: 2,
			rows: [][]byte{{0xFF}, {0x41, 5, 0x00}},
			want: []color.NRGBA{transparent, transparent, p[5], transparent},
		},
		{
			name: "empty literal opcode",
			w:    1, h: 1,
			rows: [][]byte{{0x40, 0x41, 8, 0x00}},
			want: []color.NRGBA{p[8]},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame(encodeFrame(tt.w, tt.h, tt.rows...), p)
			if err != nil {
				t.Fatalf("failed to decode: %s", err)
			}
			ttesting.AssertEqualInt(t, "width", f.Width, int(tt.w))
			ttesting.AssertEqualInt(t, "height", f.Height, int(tt.h))
			assertPixels(t, f, tt.want)
		})
	}
}

func TestDecodeFrameHeader(t *testing.T) {
	buf := (&ttesting.FrameBuilder{X: -3, Y: 7, Width: 1, Height: 1, Rows: [][]byte{{0x41, 1}}}).Bytes()
	f, err := DecodeFrame(buf, testPalette())
	if err != nil {
		t.Fatalf("failed to decode: %s", err)
	}
	ttesting.AssertEqualInt(t, "x", int(f.X), -3)
	ttesting.AssertEqualInt(t, "y", int(f.Y), 7)
}

// The undo opcode (0xC0, a transparent skip of zero pixels) steps back over
// the last pixel written.
func TestDecodeFrameUndo(t *testing.T) {
	p := testPalette()

	t.Run("overwrites previous pixel", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(2, 1, []byte{0x41, 1, 0xC0, 0x41, 2, 0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[2], transparent})
	})

	t.Run("at start of 1x1 frame", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(1, 1, []byte{0xC0, 0x41, 3}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[3]})
	})

	t.Run("after full 1x1 frame is never read", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(1, 1, []byte{0x41, 3, 0xC0, 0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[3]})
	})

	t.Run("undone pixel keeps its color", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(2, 1, []byte{0x41, 3, 0xC0, 0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[3], transparent})
	})

	t.Run("at start of line ends the line", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(2, 2, []byte{0x42, 1, 2, 0x00}, []byte{0xC0, 0x43, 4, 5, 6, 0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[1], p[2], transparent, transparent})
	})

	t.Run("at start of line leaves following lines in place", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(2, 3,
			[]byte{0x42, 1, 2, 0x00},
			[]byte{0xC0, 0x41, 4, 0x00},
			[]byte{0x42, 7, 8, 0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[1], p[2], transparent, transparent, p[7], p[8]})
	})
}

// Steps the decoder through single opcodes to check the cursor itself.
func TestDecodeOpUndoCursor(t *testing.T) {
	p := testPalette()
	for _, w := range []int{1, 2} {
		d := &frameDecoder{
			frame: &Frame{Width: w, Height: 1, Pix: make([]color.NRGBA, w)},
			pal:   p,
		}
		c := &cursor{buf: []byte{0x41, 3, 0xC0}}
		for c.remaining() > 0 {
			op, _ := c.peek()
			if err := d.decodeOp(c, op); err != nil {
				t.Fatalf("width %d: failed to decode op %02x: %s", w, op, err)
			}
		}
		ttesting.AssertEqualInt(t, fmt.Sprintf("width %d pos", w), d.pos, 0)
		ttesting.AssertEqualInt(t, fmt.Sprintf("width %d written", w), d.written, 0)
		ttesting.AssertEqualNRGBA(t, fmt.Sprintf("width %d undone pixel", w), d.frame.Pix[0], p[3])
	}
}

// An alpha pixel opcode directly after an undo opcode repeats the pixel
// before the undone one, instead of reading a palette index.
func TestDecodeFrameRepeatAfterUndo(t *testing.T) {
	p := testPalette()

	f, err := DecodeFrame(encodeFrame(3, 1, []byte{0x41, 1, 0x41, 2, 0xC0, 0x25, 0xAA, 0x00}), p)
	if err != nil {
		t.Fatalf("failed to decode: %s", err)
	}
	assertPixels(t, f, []color.NRGBA{p[1], p[1], transparent})

	_, err = DecodeFrame(encodeFrame(2, 1, []byte{0xC0, 0x25, 1, 0x00}), p)
	ttesting.AssertErrorIs(t, "nothing to repeat", err, ErrCorruptFrame)
}

func TestDecodeFrameEmptyLines(t *testing.T) {
	p := testPalette()

	t.Run("first line is padded", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(2, 2, []byte{0x00}, []byte{0x41, 6, 0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{transparent, transparent, p[6], transparent})
	})

	t.Run("later line repeats previous line", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(2, 2, []byte{0x42, 4, 5, 0x00}, []byte{0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[4], p[5], p[4], p[5]})
	})

	t.Run("partial previous line is repeated with its padding", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(3, 2, []byte{0x41, 4, 0x00}, []byte{0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[4], transparent, transparent, p[4], transparent, transparent})
	})

	t.Run("line after empty line is padded", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(2, 3, []byte{0x42, 4, 5, 0x00}, []byte{0x00}, []byte{0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[4], p[5], p[4], p[5], transparent, transparent})
	})

	t.Run("transparent line is not repeated", func(t *testing.T) {
		f, err := DecodeFrame(encodeFrame(2, 2, []byte{0x42, 4, 5, 0x00}, []byte{0xC1, 0x00}), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[4], p[5], transparent, transparent})
	})

	t.Run("lines sharing a stream", func(t *testing.T) {
		fb := &ttesting.FrameBuilder{
			Width:  2,
			Height: 3,
			Rows:   [][]byte{{0x41, 1, 0x00}, {0x82, 2, 0x00}, nil},
			Shared: map[int]int{2: 0},
		}
		f, err := DecodeFrame(fb.Bytes(), p)
		if err != nil {
			t.Fatalf("failed to decode: %s", err)
		}
		assertPixels(t, f, []color.NRGBA{p[1], transparent, p[2], p[2], p[1], transparent})
	})
}

func TestDecodeFrameCorrupt(t *testing.T) {
	p := testPalette()

	lineOffsetPastEnd := encodeFrame(1, 1, []byte{0x41, 1})
	binary.LittleEndian.PutUint32(lineOffsetPastEnd[16:], 1000)

	tooLarge := encodeFrame(1, 1, []byte{0x41, 1})
	binary.LittleEndian.PutUint32(tooLarge[8:], MaxFrameDimension+1)

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short header", make([]byte, 10)},
		{"missing line offsets", encodeFrame(1, 1)[:16]},
		{"line offset past end", lineOffsetPastEnd},
		{"literal run past end", encodeFrame(4, 1, []byte{0x43, 1})},
		{"repeat run past end", encodeFrame(4, 1, []byte{0x84})},
		{"alpha run past end", encodeFrame(4, 1, []byte{0x04, 0x10})},
		{"alpha pixel past end", encodeFrame(4, 1, []byte{0x25})},
		{"missing end of line", encodeFrame(4, 1, []byte{0x41, 1})},
		{"frame too large", tooLarge},
	}
	for _, tt := range tests {
		_, err := DecodeFrame(tt.buf, p)
		ttesting.AssertErrorIs(t, tt.name, err, ErrCorruptFrame)
	}
}

func TestFrameImage(t *testing.T) {
	p := testPalette()
	f, err := DecodeFrame(encodeFrame(2, 1, []byte{0x41, 1, 0x21, 2, 0x00}), p)
	if err != nil {
		t.Fatalf("failed to decode: %s", err)
	}
	if got := f.At(0, 0); got != p[1] {
		t.Errorf("At(0,0): got %+v; want %+v", got, p[1])
	}
	if got := f.At(5, 5); got != transparent {
		t.Errorf("At(5,5): got %+v; want transparent", got)
	}
	img := f.NRGBA()
	ttesting.AssertEqualNRGBA(t, "copy", img.NRGBAAt(1, 0), withAlpha(p[2], 14))
}
