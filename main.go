// Command spritehit answers pixel-accurate collision questions about
// sprites stored as 8-bit indexed images: it builds a bit-per-pixel opacity
// mask from each sprite and compares the masks over the overlap of their
// bounding boxes.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"spritehit/check"
	"spritehit/dump"
	"spritehit/parallel"
	"spritehit/sheet"
)

var cli struct {
	Workers int `help:"Mask build workers (0 = all CPUs)" default:"0"`

	Check check.CLICmd `cmd:"" help:"Test two sprite images for pixel collision at given positions. Exits 3 when they do not collide."`
	Dump  dump.CLICmd  `cmd:"" help:"Print a sprite's opacity mask as ASCII art."`
	Sheet sheet.CLICmd `cmd:"" help:"Validate a sprite sheet manifest and build all of its frame masks."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("spritehit"),
		kong.Description("Pixel-accurate sprite collision tools for 8-bit indexed images."),
		kong.UsageOnError(),
	)

	pool := parallel.Start(cli.Workers)
	err := kctx.Run(pool)
	pool.Wait()
	switch {
	case err == nil:
	case errors.Is(err, check.ErrNoCollision):
		os.Exit(3)
	default:
		slog.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
