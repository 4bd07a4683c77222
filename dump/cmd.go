// Package dump implements the CLI command that prints a sprite's opacity
// mask as ASCII art.
package dump

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"spritehit/imgio"
	"spritehit/opacity"
	"spritehit/palette"
)

type CLICmd struct {
	Image       string `arg:"" help:"Sprite image"`
	Rect        string `help:"Sub-rectangle to extract as X,Y,WxH (default: whole image)"`
	Transparent int    `help:"Transparent palette index" default:"0" group:"transparency"`
	Colorkey    string `help:"Transparent color as #RRGGBB, resolved against the image's palette. Overrides --transparent" group:"transparency"`
	Quantize    string `help:"Palette name (bw, gray16, vga16, vga256) or RIFF PAL file used to re-palette non-indexed images" group:"transparency"`
	Dither      bool   `help:"Apply dithering when quantizing" default:"false" group:"transparency"`

	rect image.Rectangle
	key  color.Color
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	if c.Rect != "" {
		var x, y, w, h int
		if n, err := fmt.Sscanf(c.Rect, "%d,%d,%dx%d", &x, &y, &w, &h); err != nil {
			return fmt.Errorf("could not read rectangle %q: %w", c.Rect, err)
		} else if n < 4 {
			return fmt.Errorf("rectangle %q should be X,Y,WxH", c.Rect)
		}
		if w < 1 || h < 1 {
			return fmt.Errorf("degenerate rectangle size %dx%d", w, h)
		}
		c.rect = image.Rect(x, y, x+w, y+h)
	}

	if c.Transparent < 0 || c.Transparent > 255 {
		return fmt.Errorf("transparent index %d outside 0..255", c.Transparent)
	}

	if c.Colorkey != "" {
		var err error
		if c.key, err = palette.ParseHex(c.Colorkey); err != nil {
			return err
		}
	}

	if c.Quantize != "" {
		if _, err := palette.Load(c.Quantize); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLICmd) Run() error {
	logger := slog.Default().With("file", c.Image)

	img, _, err := imgio.Decode(c.Image)
	if err != nil {
		return err
	}
	pimg, err := imgio.Indexed(logger, img, c.Quantize, c.Dither)
	if err != nil {
		return fmt.Errorf("image %q: %w", c.Image, err)
	}

	transparent := uint8(c.Transparent)
	if c.key != nil {
		if transparent, err = palette.KeyIndex(pimg.Palette, c.key); err != nil {
			return fmt.Errorf("image %q: %w", c.Image, err)
		}
		logger.Info("resolved colorkey", "color", c.Colorkey, "index", transparent)
	}

	var mask *opacity.Mask
	if c.Rect != "" {
		mask, err = opacity.FromIndexed(pimg.Pix, pimg.Stride, c.rect, transparent)
	} else {
		mask, err = opacity.FromPaletted(pimg, transparent)
	}
	if err != nil {
		return fmt.Errorf("image %q: %w", c.Image, err)
	}

	logger.Info("mask", "width", mask.Width(), "height", mask.Height(), "opaque", mask.OpaqueCount())
	fmt.Fprint(os.Stdout, mask.String())
	return nil
}
