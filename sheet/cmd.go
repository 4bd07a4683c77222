package sheet

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"spritehit/parallel"
)

type CLICmd struct {
	Manifest string `arg:"" help:"Sprite sheet manifest (YAML)"`
	Frame    string `help:"Print the named frame's opacity mask"`
	Watch    bool   `help:"Keep running and revalidate the manifest whenever it changes" default:"false"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	path, err := filepath.Abs(c.Manifest)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(path); err == nil && info.IsDir() {
			err = fmt.Errorf("is a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid manifest path %q: %w", c.Manifest, err)
	}
	c.Manifest = path
	return nil
}

func (c *CLICmd) Run(pool *parallel.Pool) error {
	err := c.load(pool)
	if !c.Watch {
		return err
	}
	if err != nil {
		slog.Error("could not load sheet", "manifest", c.Manifest, "error", err)
	}

	w, werr := Watch(c.Manifest)
	if werr != nil {
		return werr
	}
	defer func() {
		if close_err := w.Close(); close_err != nil {
			slog.Error("could not stop watcher", "error", close_err)
		}
	}()

	slog.Info("watching manifest", "file", c.Manifest)
	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			slog.Info("manifest changed", "file", name)
			if err := c.load(pool); err != nil {
				slog.Error("could not reload sheet", "manifest", c.Manifest, "error", err)
			}
		case err := <-w.Errors:
			slog.Error("watch error", "error", err)
		}
	}
}

func (c *CLICmd) load(pool *parallel.Pool) error {
	s, err := Load(c.Manifest, pool)
	if err != nil {
		return err
	}

	for _, fr := range s.Frames() {
		slog.Info("frame", "name", fr.Name, "rect", fr.Rect, "opaque", fr.Mask.OpaqueCount())
	}

	if c.Frame != "" {
		fr, ok := s.Frame(c.Frame)
		if !ok {
			return fmt.Errorf("no frame %q in %q", c.Frame, c.Manifest)
		}
		fmt.Fprint(os.Stdout, fr.Mask.String())
	}
	return nil
}
