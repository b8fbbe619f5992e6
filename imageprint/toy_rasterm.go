//go:build !windows

package imageprint

import (
	"image"
	"io"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
	"github.com/pkg/errors"
)

func detectProtocol() protocol {
	switch {
	case rasterm.IsTermKitty():
		return protoKitty
	case rasterm.IsTermItermWez():
		return protoITerm
	}
	if capable, err := rasterm.IsSixelCapable(); capable && err == nil {
		return protoSixel
	}
	return protoNone
}

// writeGraphics draws an image with the RasTerm library. Sixel output is
// quantized to the passed number of colors first.
func writeGraphics(w io.Writer, proto protocol, i image.Image, colors int) error {
	var err error
	switch proto {
	case protoKitty:
		err = rasterm.Settings{}.KittyWriteImage(w, i)
	case protoITerm:
		err = rasterm.Settings{}.ItermWriteImage(w, i)
	case protoSixel:
		paletted := image.NewPaletted(i.Bounds(), nil)
		quantizer := gogif.MedianCutQuantizer{NumColor: colors}
		quantizer.Quantize(paletted, i.Bounds(), i, i.Bounds().Min)
		err = rasterm.Settings{}.SixelWriteImage(w, paletted)
	default:
		return errors.Errorf("unsupported graphics protocol %d", proto)
	}
	return errors.Wrap(err, "writing inline image")
}
