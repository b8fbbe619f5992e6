// Package imageprint prints decoded frames on a terminal. UNSUPPORTED debug package.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/gookit/color"
)

// Mode selects how pixels are put on the terminal.
type Mode int

const (
	ModeTrueColor Mode = iota // 24 bit background color escapes
	Mode256Color              // whatever gookit/color picks for the terminal
	ModeNoColor               // shade characters only
	ModeITerm                 // iTerm2 inline image
	ModeRasTerm               // kitty, iTerm2 or sixel, whichever the terminal supports
)

// Printer prints images.
type Printer struct {
	W    io.Writer // os.Stdout if nil
	Mode Mode
	// Blanks prints colored blanks instead of shade characters.
	Blanks bool
	// Checker composites translucent pixels over a checkerboard, so that
	// alpha is visible on a terminal without transparency.
	Checker bool
	// SixelColors is the palette size for sixel output; 64 if zero.
	SixelColors int
}

// protocol is an inline graphics protocol spoken by the terminal.
type protocol int

const (
	protoNone protocol = iota
	protoKitty
	protoITerm
	protoSixel
)

func (p *Printer) out() io.Writer {
	if p.W == nil {
		return os.Stdout
	}
	return p.W
}

// Print prints an image, followed by a newline.
func (p *Printer) Print(i image.Image) {
	if p.Checker {
		i = checkered(i)
	}
	switch p.Mode {
	case ModeITerm:
		p.printITerm(i, "frame.png")
	case ModeRasTerm:
		p.printRasTerm(i)
	default:
		p.printCells(i)
	}
}

const checkerSize = 4

var checkerColors = [2]ic.NRGBA{{0x66, 0x66, 0x66, 0xFF}, {0x99, 0x99, 0x99, 0xFF}}

// checkered returns i drawn over a checkerboard.
func checkered(i image.Image) image.Image {
	b := i.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetNRGBA(x, y, checkerColors[((x-b.Min.X)/checkerSize+(y-b.Min.Y)/checkerSize)%2])
		}
	}
	draw.Draw(dst, b, i, b.Min, draw.Over)
	return dst
}

func shadeChars(cR, cG, cB uint32) string {
	a := ((cR + cG + cB) / 3) >> 8
	switch {
	case a < 32:
		return ".."
	case a < 64:
		return "--"
	case a < 128:
		return "=="
	default:
		return "##"
	}
}

func (p *Printer) printCells(i image.Image) {
	w := p.out()
	for y := i.Bounds().Min.Y; y < i.Bounds().Max.Y; y++ {
		for x := i.Bounds().Min.X; x < i.Bounds().Max.X; x++ {
			p.shade(w, i.At(x, y))
		}
		if p.Mode != ModeNoColor {
			fmt.Fprintf(w, "\x1b[0m")
		}
		fmt.Fprintf(w, "\n")
	}
}

func (p *Printer) shade(w io.Writer, col ic.Color) {
	cR, cG, cB, cA := col.RGBA()
	if cA == 0 {
		if p.Mode == ModeNoColor {
			fmt.Fprintf(w, "  ")
		} else {
			fmt.Fprintf(w, "\x1b[0m  ")
		}
		return
	}
	// Non-premultiplied 8-bit channels.
	nc := ic.NRGBAModel.Convert(col).(ic.NRGBA)
	s := "  "
	if !p.Blanks {
		s = shadeChars(cR, cG, cB)
	}
	switch p.Mode {
	case ModeNoColor:
		fmt.Fprint(w, s)
	case Mode256Color:
		fmt.Fprint(w, color.RGB(nc.R, nc.G, nc.B, true).Sprint(s))
	default:
		fmt.Fprintf(w, "\x1b[48;2;%d;%d;%dm%s\x1b[0m", nc.R, nc.G, nc.B, s)
	}
}

// printRasTerm draws an image with whichever graphics protocol the terminal
// speaks, and prints cells if it speaks none.
func (p *Printer) printRasTerm(i image.Image) {
	proto := detectProtocol()
	if proto == protoNone {
		glog.V(1).Infof("imageprint: no graphics protocol detected; printing cells")
		p.printCells(i)
		return
	}
	colors := p.SixelColors
	if colors <= 0 {
		colors = 64
	}
	if err := writeGraphics(p.out(), proto, i, colors); err != nil {
		glog.Errorf("imageprint: %v", err)
		return
	}
	fmt.Fprintf(p.out(), "\n")
}

// printITerm draws an image using iTerm2's escape sequences.
func (p *Printer) printITerm(i image.Image, fn string) {
	if detectProtocol() != protoITerm {
		return
	}
	writeITerm(p.out(), i, fn)
}

// writeITerm writes an iTerm2 inline image.
//
// https://www.iterm2.com/documentation-images.html
func writeITerm(w io.Writer, i image.Image, fn string) {
	name := base64.StdEncoding.EncodeToString([]byte(fn))
	b := &bytes.Buffer{}
	bEnc := base64.NewEncoder(base64.StdEncoding, b)
	png.Encode(bEnc, i)
	bEnc.Close()
	fmt.Fprintf(w, "\n\033]1337;File=name=%s;inline=1;size=%d,width=%dpx;height=%dpx:%s\a\n", name, b.Len(), i.Bounds().Size().X, i.Bounds().Size().Y, b.String())
}
