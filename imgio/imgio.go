// Package imgio decodes sprite images and converts them to the 8-bit
// indexed format the collision masks are built from.
package imgio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"spritehit/opacity"
	"spritehit/palette"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

// Decode reads an image file in any registered format and returns it with
// the format name.
func Decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer func() {
		if close_err := f.Close(); close_err != nil {
			slog.Error("could not close image", "file", path, "error", close_err)
		}
	}()

	img, imgType, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image %q: %w", path, err)
	}
	return img, imgType, nil
}

// Indexed returns img as an 8-bit indexed image. Images already in that
// format pass through untouched; anything else is re-paletted using the
// named palette (builtin or RIFF PAL file), or rejected when no palette is
// given.
func Indexed(logger *slog.Logger, img image.Image, palName string, dither bool) (*image.Paletted, error) {
	if p, ok := img.(*image.Paletted); ok {
		return p, nil
	}
	if palName == "" {
		return nil, &opacity.UnsupportedFormatError{Format: fmt.Sprintf("%T", img)}
	}

	pal, err := palette.Load(palName)
	if err != nil {
		return nil, err
	}

	logger.Info("applying palette", "palette", palName, "colors", len(pal), "dither", dither)
	sr := img.Bounds()
	dr := image.Rect(0, 0, sr.Dx(), sr.Dy())
	dest := image.NewPaletted(dr, pal)

	if dither {
		draw.FloydSteinberg.Draw(dest, dr, img, sr.Min)
	} else {
		draw.Draw(dest, dr, img, sr.Min, draw.Src)
	}
	return dest, nil
}
