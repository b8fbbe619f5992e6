package was

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/pkg/errors"
)

// DefaultDelay is the GIF delay, in 100ths of a second, of an animation step
// without a timing table entry.
const DefaultDelay = 10

// Delay returns the GIF delay of animation step i. A timing table entry counts
// tenths of a second; zero entries and steps past the end of the table use
// DefaultDelay.
func (s *Sprite) Delay(i int) int {
	if i < 0 || i >= len(s.timings) || s.timings[i] == 0 {
		return DefaultDelay
	}
	return int(s.timings[i]) * 10
}

// Animation builds an animated GIF of one direction, one anchored cell per
// animation step.
func (s *Sprite) Animation(dir int) (*gif.GIF, error) {
	if dir < 0 || dir >= s.Directions() {
		return nil, errors.Errorf("was: direction %d out of range [0,%d)", dir, s.Directions())
	}
	g := &gif.GIF{}
	q := quantize.MedianCutQuantizer{}
	for i := range s.frames[dir] {
		cell := s.Cell(dir, i)

		// Index 0 is kept for transparency, so that the empty canvas
		// defaults to it.
		pal := q.Quantize(make(color.Palette, 0, 255), cell)
		pal = append(color.Palette{color.Transparent}, pal...)

		img := image.NewPaletted(cell.Bounds(), pal)
		draw.Draw(img, cell.Bounds(), cell, image.Point{}, draw.Over)

		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, s.Delay(i))
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	g.BackgroundIndex = 0
	return g, nil
}

// EncodeGIF writes an animated GIF of one direction to w.
func (s *Sprite) EncodeGIF(w io.Writer, dir int) error {
	g, err := s.Animation(dir)
	if err != nil {
		return err
	}
	if len(g.Image) == 0 {
		return errors.Errorf("was: direction %d has no frames", dir)
	}
	return gif.EncodeAll(w, g)
}
