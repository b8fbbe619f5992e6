package main

import (
	"bytes"
	"flag"
	"image"
	"image/png"

	"github.com/nfnt/resize"

	"badc0de.net/pkg/go-wdf/imageprint"
)

var (
	col      = flag.Bool("col", true, "whether to use color")
	col256   = flag.Bool("col256", false, "whether to use 256 col instead of 24 bit")
	iterm    = flag.Bool("iterm", false, "whether to print with iterm escape code instead of 24 bit")
	rasterm  = flag.Bool("rasterm", false, "whether to print with rasterm (kitty, iterm or sixel)")
	blanks   = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
	checker  = flag.Bool("checker", true, "whether to show translucent pixels over a checkerboard")
	downsize = flag.Bool("downsize", true, "whether to downsize images that do not fit on the terminal")
)

func printer() *imageprint.Printer {
	p := &imageprint.Printer{Blanks: *blanks, Checker: *checker}
	switch {
	case *rasterm:
		p.Mode = imageprint.ModeRasTerm
	case !*col:
		p.Mode = imageprint.ModeNoColor
	case *iterm:
		p.Mode = imageprint.ModeITerm
	case *col256:
		p.Mode = imageprint.Mode256Color
	default:
		p.Mode = imageprint.ModeTrueColor
	}
	return p
}

func out(img image.Image) {
	if *downsize {
		termSize, err := GetTermSize()
		if err == nil {
			if (termSize.WSXPixel != 0 && termSize.WSYPixel != 0) && (*rasterm || *iterm) {
				// Prefer printing out in native size if there's a chance we print out an image rather than pixels.
				img = resize.Thumbnail(termSize.WSXPixel/2, termSize.WSYPixel/2, img, resize.Lanczos3)
			} else {
				// Each pixel takes two columns.
				img = resize.Thumbnail(termSize.WSCol/2, termSize.WSRow, img, resize.Lanczos3)
			}
		}
	}
	printer().Print(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
