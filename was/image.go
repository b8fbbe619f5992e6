package was

// This file contains was package's functions related to implementing
// image.Image and related interfaces, and to laying frames out on a
// common canvas.

import (
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/pkg/errors"
)

func init() {
	image.RegisterFormat("was", "SP", Decode, DecodeConfig)
}

// DecodeConfig returns the nominal frame size of a sprite.
func DecodeConfig(r io.Reader) (image.Config, error) {
	buf := make([]byte, headerPrefix+minHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return image.Config{}, errors.Errorf("was: could not read header: %s", err)
	}
	h, err := DecodeHeader(buf)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{Width: int(h.Width), Height: int(h.Height), ColorModel: color.NRGBAModel}, nil
}

// Decode returns the first frame of the first direction of a sprite.
func Decode(r io.Reader) (image.Image, error) {
	s, err := DecodeAll(r)
	if err != nil {
		return nil, err
	}
	f := s.Frame(0, 0)
	if f == nil {
		return nil, errors.Errorf("was: sprite has no frames")
	}
	return f, nil
}

// CellSize returns the size of the canvas frames are aligned on: the nominal
// frame size, or the bounding size of all frames if no nominal size is set.
func (s *Sprite) CellSize() image.Point {
	if s.Header.Width > 0 && s.Header.Height > 0 {
		return image.Pt(int(s.Header.Width), int(s.Header.Height))
	}
	var p image.Point
	for _, dir := range s.frames {
		for _, f := range dir {
			if f.Width > p.X {
				p.X = f.Width
			}
			if f.Height > p.Y {
				p.Y = f.Height
			}
		}
	}
	return p
}

// frameOrigin is where a frame's top-left corner lands on a cell: the
// frame's key point is put on the sprite's anchor.
func (s *Sprite) frameOrigin(f *Frame) image.Point {
	return image.Pt(int(s.Header.X)-int(f.X), int(s.Header.Y)-int(f.Y))
}

// Cell returns a frame drawn on a transparent canvas of CellSize, aligned on
// the sprite's anchor. Parts of the frame falling outside of the cell are
// clipped. It returns nil if the frame does not exist.
func (s *Sprite) Cell(dir, i int) *image.NRGBA {
	f := s.Frame(dir, i)
	if f == nil {
		return nil
	}
	img := image.NewNRGBA(image.Rectangle{Max: s.CellSize()})
	s.drawFrame(img, image.Point{}, f)
	return img
}

// Atlas lays all frames out on one image: one row of cells per direction,
// one column per animation step.
func (s *Sprite) Atlas() *image.NRGBA {
	cell := s.CellSize()
	img := image.NewNRGBA(image.Rect(0, 0, cell.X*s.FramesPerDirection(), cell.Y*s.Directions()))
	for d, dir := range s.frames {
		for i, f := range dir {
			s.drawFrame(img, image.Pt(i*cell.X, d*cell.Y), f)
		}
	}
	return img
}

func (s *Sprite) drawFrame(dst *image.NRGBA, cellMin image.Point, f *Frame) {
	cell := image.Rectangle{Min: cellMin, Max: cellMin.Add(s.CellSize())}
	r := f.Bounds().Add(cellMin).Add(s.frameOrigin(f)).Intersect(cell)
	if r.Empty() {
		return
	}
	sp := r.Min.Sub(cellMin).Sub(s.frameOrigin(f))
	draw.Draw(dst, r, f, sp, draw.Over)
}
