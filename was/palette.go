package was

import (
	"image/color"
)

// PaletteSize is the number of entries in a sprite palette.
const PaletteSize = 256

// Palette is a sprite's color table, expanded to 8 bits per channel.
type Palette [PaletteSize]color.NRGBA

// RGB565 expands a packed 5-6-5 color to 8 bits per channel. The vacated low
// bits of each channel are filled with that channel's high bits, so that
// full intensity maps onto 0xFF.
func RGB565(v uint16, alpha uint8) color.NRGBA {
	r := uint8(v>>11) & 0x1f
	g := uint8(v>>5) & 0x3f
	b := uint8(v) & 0x1f
	return color.NRGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: alpha,
	}
}

// ConvertPalette expands a raw palette. Entries are opaque; the decoder
// replaces alpha per pixel where the opcode stream supplies one.
func ConvertPalette(raw *[PaletteSize]uint16) *Palette {
	var p Palette
	for i, v := range raw {
		p[i] = RGB565(v, 0xFF)
	}
	return &p
}
