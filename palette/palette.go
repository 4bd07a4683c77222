// Package palette resolves color palettes and transparent-color keys for
// indexed sprite images. Palettes come from a small set of builtins or from
// RIFF PAL files.
package palette

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"
)

func gray(v uint8) color.Color {
	return color.RGBA{R: v, G: v, B: v, A: 0xFF}
}

func rgb(r, g, b uint8) color.Color {
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

var vga16 = color.Palette{
	rgb(0x00, 0x00, 0x00), rgb(0x00, 0x00, 0xAA),
	rgb(0x00, 0xAA, 0x00), rgb(0x00, 0xAA, 0xAA),
	rgb(0xAA, 0x00, 0x00), rgb(0xAA, 0x00, 0xAA),
	rgb(0xAA, 0x55, 0x00), rgb(0xAA, 0xAA, 0xAA),
	rgb(0x55, 0x55, 0x55), rgb(0x55, 0x55, 0xFF),
	rgb(0x55, 0xFF, 0x55), rgb(0x55, 0xFF, 0xFF),
	rgb(0xFF, 0x55, 0x55), rgb(0xFF, 0x55, 0xFF),
	rgb(0xFF, 0xFF, 0x55), rgb(0xFF, 0xFF, 0xFF),
}

// vga256 extends vga16 with a 16-step gray ramp and a 6x6x6 color cube,
// padding the tail with black to fill all 256 indices.
func vga256() color.Palette {
	pal := make(color.Palette, 0, 256)
	pal = append(pal, vga16...)
	for i := 0; i < 16; i++ {
		pal = append(pal, gray(uint8(i*0x11)))
	}
	levels := [6]uint8{0x00, 0x33, 0x66, 0x99, 0xCC, 0xFF}
	for _, r := range levels {
		for _, g := range levels {
			for _, b := range levels {
				pal = append(pal, rgb(r, g, b))
			}
		}
	}
	for len(pal) < 256 {
		pal = append(pal, gray(0x00))
	}
	return pal
}

var builtins = map[string]color.Palette{
	"bw": {gray(0x00), gray(0xFF)},
	"gray16": {
		gray(0x00), gray(0x11), gray(0x22), gray(0x33),
		gray(0x44), gray(0x55), gray(0x66), gray(0x77),
		gray(0x88), gray(0x99), gray(0xAA), gray(0xBB),
		gray(0xCC), gray(0xDD), gray(0xEE), gray(0xFF),
	},
	"vga16":  vga16,
	"vga256": vga256(),
}

// Load resolves a builtin palette name (bw, gray16, vga16, vga256) or reads
// the first palette of a RIFF PAL file.
func Load(name string) (color.Palette, error) {
	if pal, ok := builtins[strings.ToLower(name)]; ok {
		return pal, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unknown palette %q: %w", name, err)
	}
	defer func() {
		if close_err := f.Close(); close_err != nil {
			slog.Error("could not close palette file", "name", name, "error", close_err)
		}
	}()

	pals, err := ReadRIFF(f)
	if err != nil {
		return nil, fmt.Errorf("could not read palette file %q: %w", name, err)
	}
	if len(pals) == 0 {
		return nil, fmt.Errorf("palette file %q contains no palettes", name)
	}
	return pals[0], nil
}

// KeyIndex resolves a colorkey to the index of the closest palette entry.
// The palette must fit an 8-bit indexed image.
func KeyIndex(pal color.Palette, key color.Color) (uint8, error) {
	if len(pal) == 0 {
		return 0, fmt.Errorf("empty palette")
	}
	if len(pal) > 256 {
		return 0, fmt.Errorf("palette has %d entries, more than an 8-bit image can index", len(pal))
	}
	return uint8(pal.Index(key)), nil
}

// ParseHex reads a color in #RGB, #RGBA, #RRGGBB or #RRGGBBAA notation.
func ParseHex(s string) (color.Color, error) {
	var c color.RGBA
	c.A = 0xFF

	short := false
	var n int
	var err error
	switch len(s) {
	case 4:
		short = true
		n, err = fmt.Sscanf(s, "#%1x%1x%1x", &c.R, &c.G, &c.B)
	case 5:
		short = true
		n, err = fmt.Sscanf(s, "#%1x%1x%1x%1x", &c.R, &c.G, &c.B, &c.A)
	case 7:
		n, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 9:
		n, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return nil, fmt.Errorf("invalid color %q, should be #RGB, #RGBA, #RRGGBB or #RRGGBBAA", s)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read color %q: %w", s, err)
	} else if n < 3 {
		return nil, fmt.Errorf("insufficient color fields in %q: %d", s, n)
	}

	if short {
		c.R |= c.R << 4
		c.G |= c.G << 4
		c.B |= c.B << 4
		if len(s) == 5 {
			c.A |= c.A << 4
		}
	}
	return c, nil
}
