// Package check implements the CLI command that tests two sprite images
// for pixel-accurate collision at given positions.
package check

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/alecthomas/kong"

	"spritehit/imgio"
	"spritehit/opacity"
	"spritehit/palette"
)

// ErrNoCollision is returned by Run when the sprites do not collide, so
// callers can map it to a distinct exit status.
var ErrNoCollision = errors.New("no collision")

type CLICmd struct {
	ImageA      string `arg:"" help:"First sprite image"`
	ImageB      string `arg:"" help:"Second sprite image"`
	AtA         string `help:"Position of the first sprite as X,Y" default:"0,0" group:"placement"`
	AtB         string `help:"Position of the second sprite as X,Y" default:"0,0" group:"placement"`
	Transparent int    `help:"Transparent palette index" default:"0" group:"transparency"`
	Colorkey    string `help:"Transparent color as #RRGGBB, resolved against each image's palette. Overrides --transparent" group:"transparency"`
	Quantize    string `help:"Palette name (bw, gray16, vga16, vga256) or RIFF PAL file used to re-palette non-indexed images" group:"transparency"`
	Dither      bool   `help:"Apply dithering when quantizing" default:"false" group:"transparency"`

	posA, posB image.Point
	key        color.Color
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	var err error
	if c.posA, err = parsePoint(c.AtA); err != nil {
		return fmt.Errorf("invalid --at-a: %w", err)
	}
	if c.posB, err = parsePoint(c.AtB); err != nil {
		return fmt.Errorf("invalid --at-b: %w", err)
	}

	if c.Transparent < 0 || c.Transparent > 255 {
		return fmt.Errorf("transparent index %d outside 0..255", c.Transparent)
	}

	if c.Colorkey != "" {
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
	maskA, err := c.loadMask(c.ImageA)
	if err != nil {
		return err
	}
	maskB, err := c.loadMask(c.ImageB)
	if err != nil {
		return err
	}

	collides := opacity.Collides(maskA, c.posA, maskB, c.posB)
	slog.Info("collision test",
		"a", c.ImageA, "at_a", c.posA.String(),
		"b", c.ImageB, "at_b", c.posB.String(),
		"collides", collides)

	if !collides {
		return ErrNoCollision
	}
	return nil
}

func (c *CLICmd) loadMask(path string) (*opacity.Mask, error) {
	logger := slog.Default().With("file", path)

	img, _, err := imgio.Decode(path)
	if err != nil {
		return nil, err
	}
	pimg, err := imgio.Indexed(logger, img, c.Quantize, c.Dither)
	if err != nil {
		return nil, fmt.Errorf("image %q: %w", path, err)
	}

	transparent := uint8(c.Transparent)
	if c.key != nil {
		if transparent, err = palette.KeyIndex(pimg.Palette, c.key); err != nil {
			return nil, fmt.Errorf("image %q: %w", path, err)
		}
		logger.Info("resolved colorkey", "color", c.Colorkey, "index", transparent)
	}

	return opacity.FromPaletted(pimg, transparent)
}

func parsePoint(s string) (image.Point, error) {
	var p image.Point
	if n, err := fmt.Sscanf(s, "%d,%d", &p.X, &p.Y); err != nil {
		return p, fmt.Errorf("could not read position %q: %w", s, err)
	} else if n < 2 {
		return p, fmt.Errorf("position %q should be X,Y", s)
	}
	return p, nil
}
