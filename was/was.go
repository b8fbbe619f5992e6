package was

// This file contains code directly related to decoding the sprite container:
// header, timing table, palette and frame offset table.

import (
	"io"
	"runtime"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-wdf/wdf"
)

// Signature is the first two bytes of a sprite, "SP" when read as bytes.
const Signature = 0x5053

const (
	// minHeaderSize is the smallest declared header size; it covers the
	// header fields following the signature and the size field itself.
	minHeaderSize = 12
	// headerPrefix is the size of the signature and size fields.
	headerPrefix = 4

	// frameSlack is added to every frame's span. Frames are decoded from
	// the bytes between consecutive frame offsets plus this many bytes.
	frameSlack = 16
)

// Header is the fixed start of a sprite.
type Header struct {
	Signature          uint16
	HeaderSize         int16
	Directions         int16
	FramesPerDirection int16
	Width, Height      int16 // nominal size of a frame
	X, Y               int16 // anchor
}

// Sprite is a decoded sprite.
type Sprite struct {
	Header Header

	timings []byte
	palette *Palette
	frames  [][]*Frame
}

// Directions returns the number of facing directions, i.e. rows of the frame
// grid.
func (s *Sprite) Directions() int {
	return len(s.frames)
}

// FramesPerDirection returns the number of animation steps per direction.
func (s *Sprite) FramesPerDirection() int {
	if len(s.frames) == 0 {
		return 0
	}
	return len(s.frames[0])
}

// Frame returns a frame in the grid, or nil if out of range.
func (s *Sprite) Frame(dir, i int) *Frame {
	if dir < 0 || dir >= len(s.frames) || i < 0 || i >= len(s.frames[dir]) {
		return nil
	}
	return s.frames[dir][i]
}

// Frames returns the frame grid, indexed by direction then animation step.
func (s *Sprite) Frames() [][]*Frame {
	return s.frames
}

// Timings returns the per-step timing table, which may be empty.
func (s *Sprite) Timings() []byte {
	return s.timings
}

// Palette returns the sprite's palette.
func (s *Sprite) Palette() *Palette {
	return s.palette
}

func readHeader(c *cursor) (Header, error) {
	var h Header
	var err error
	read16 := func(dst *int16, what string) {
		if err != nil {
			return
		}
		if *dst, err = c.int16(); err != nil {
			err = errors.Wrapf(wdf.ErrTruncated, "could not read was %s", what)
		}
	}
	if h.Signature, err = c.uint16(); err != nil {
		return h, errors.Wrap(wdf.ErrTruncated, "could not read was signature")
	}
	if h.Signature != Signature {
		return h, errors.Wrapf(wdf.ErrInvalidFormat, "bad was signature; got %04x, want %04x", h.Signature, Signature)
	}
	read16(&h.HeaderSize, "header size")
	read16(&h.Directions, "direction count")
	read16(&h.FramesPerDirection, "frame count")
	read16(&h.Width, "width")
	read16(&h.Height, "height")
	read16(&h.X, "anchor x")
	read16(&h.Y, "anchor y")
	if err != nil {
		return h, err
	}

	if h.HeaderSize < minHeaderSize {
		return h, errors.Wrapf(wdf.ErrInvalidFormat, "was header size too small; got %d, want at least %d", h.HeaderSize, minHeaderSize)
	}
	if h.Directions < 0 || h.FramesPerDirection < 0 {
		return h, errors.Wrapf(wdf.ErrInvalidFormat, "negative was grid %dx%d", h.Directions, h.FramesPerDirection)
	}
	if h.Width > MaxFrameDimension || h.Height > MaxFrameDimension {
		return h, errors.Wrapf(wdf.ErrInvalidFormat, "was nominal size too large; got %dx%d, want at most %d in each dimension", h.Width, h.Height, MaxFrameDimension)
	}
	return h, nil
}

// DecodeHeader reads only the header of a sprite.
func DecodeHeader(data []byte) (Header, error) {
	return readHeader(&cursor{buf: data})
}

// DecodeSprite decodes a sprite from data holding exactly the sprite's bytes.
func DecodeSprite(data []byte) (*Sprite, error) {
	return decode(data, len(data))
}

// DecodeAll reads a sprite from r until EOF and decodes it.
func DecodeAll(r io.Reader) (*Sprite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read was")
	}
	return DecodeSprite(data)
}

// Load decodes the sprite stored in entry e of an archive readable from r.
//
// Up to 16 bytes following the entry are read as well when available, since
// the last frame's span extends past the entry's declared size.
func Load(r io.ReaderAt, e wdf.Entry) (*Sprite, error) {
	if e.Type != wdf.TypeSprite {
		return nil, errors.Wrapf(wdf.ErrInvalidFormat, "entry %08x is %s, not was", e.Hash, e.Type)
	}
	data, err := io.ReadAll(io.NewSectionReader(r, int64(e.Offset), int64(e.Size)+frameSlack))
	if err != nil {
		return nil, errors.Wrapf(err, "entry %08x", e.Hash)
	}
	if len(data) < int(e.Size) {
		return nil, errors.Wrapf(wdf.ErrTruncated, "entry %08x: read %d bytes, want %d", e.Hash, len(data), e.Size)
	}
	s, err := decode(data, int(e.Size))
	if err != nil {
		return nil, errors.Wrapf(err, "entry %08x", e.Hash)
	}
	return s, nil
}

// FromArchive looks up hash in a and loads the sprite stored there.
func FromArchive(a *wdf.Archive, hash uint32) (*Sprite, error) {
	e, err := a.Lookup(hash)
	if err != nil {
		return nil, err
	}
	f, err := a.Source()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, e)
}

type span struct {
	start, end int
}

// decode decodes a sprite whose nominal size is size; data may extend past
// size with bytes that follow the sprite.
func decode(data []byte, size int) (*Sprite, error) {
	c := &cursor{buf: data}
	h, err := readHeader(c)
	if err != nil {
		return nil, err
	}
	s := &Sprite{Header: h}

	if n := int(h.HeaderSize) - minHeaderSize; n > 0 {
		t, err := c.bytes(n)
		if err != nil {
			return nil, errors.Wrap(wdf.ErrTruncated, "could not read was timing table")
		}
		s.timings = append([]byte(nil), t...)
	}

	var raw [PaletteSize]uint16
	for i := range raw {
		if raw[i], err = c.uint16(); err != nil {
			return nil, errors.Wrap(wdf.ErrTruncated, "could not read was palette")
		}
	}
	s.palette = ConvertPalette(&raw)

	dirs, perDir := int(h.Directions), int(h.FramesPerDirection)
	count := dirs * perDir
	base := headerPrefix + int(h.HeaderSize)
	if count*4 > c.remaining() {
		return nil, errors.Wrapf(wdf.ErrTruncated, "was frame offset table of %d entries does not fit", count)
	}
	starts := make([]int, count)
	for i := range starts {
		rel, err := c.uint32()
		if err != nil {
			return nil, errors.Wrap(wdf.ErrTruncated, "could not read was frame offsets")
		}
		starts[i] = int(rel) + base
	}

	spans := make([]span, count)
	for i, start := range starts {
		end := size
		if i < count-1 && starts[i+1] > start {
			end = starts[i+1]
		}
		end += frameSlack
		if end > len(data) {
			end = len(data)
		}
		if start >= end {
			return nil, errors.Wrapf(ErrCorruptFrame, "frame %d of %d starts at %d, past sprite end at %d", i, count, start, end)
		}
		spans[i] = span{start, end}
	}
	glog.V(2).Infof("was: %d directions x %d frames, %dx%d anchored at %d,%d, %d timings", dirs, perDir, h.Width, h.Height, h.X, h.Y, len(s.timings))

	flat := make([]*Frame, count)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sp := range spans {
		i, sp := i, sp
		g.Go(func() error {
			f, err := DecodeFrame(data[sp.start:sp.end], s.palette)
			if err != nil {
				return errors.Wrapf(err, "direction %d frame %d", i/perDir, i%perDir)
			}
			flat[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.frames = make([][]*Frame, dirs)
	for d := range s.frames {
		s.frames[d] = flat[d*perDir : (d+1)*perDir]
	}
	return s, nil
}
