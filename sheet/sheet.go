// Package sheet loads sprite sheet manifests: an 8-bit indexed sheet image
// plus named frame rectangles, each of which gets an opacity mask for
// pixel-accurate collision tests.
package sheet

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"spritehit/imgio"
	"spritehit/opacity"
	"spritehit/palette"
	"spritehit/parallel"
)

// RectSpec is a frame rectangle in sheet pixel coordinates.
type RectSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

func (r RectSpec) rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// FrameSpec names a single frame rectangle.
type FrameSpec struct {
	Name string   `yaml:"name"`
	Rect RectSpec `yaml:"rect"`
}

// GridSpec names a run of equally sized frames laid out left to right,
// starting at Rect. It expands to frames name_0 .. name_{count-1}.
type GridSpec struct {
	Name  string   `yaml:"name"`
	Rect  RectSpec `yaml:"rect"`
	Count int      `yaml:"count"`
}

// Manifest is the YAML description of a sprite sheet. Exactly one of
// Transparent (a palette index) and Colorkey (a hex color resolved against
// the sheet's palette) selects the transparent color.
type Manifest struct {
	Image       string      `yaml:"image"`
	Transparent *uint8      `yaml:"transparent"`
	Colorkey    string      `yaml:"colorkey"`
	Frames      []FrameSpec `yaml:"frames"`
	Grids       []GridSpec  `yaml:"grids"`
}

// Frame is a named sub-rectangle of the sheet with its opacity mask.
type Frame struct {
	Name string
	Rect image.Rectangle
	Mask *opacity.Mask
}

// Collides reports whether this frame, placed at `at`, pixel-collides with
// another frame placed at otherAt.
func (f *Frame) Collides(at image.Point, other *Frame, otherAt image.Point) bool {
	return opacity.Collides(f.Mask, at, other.Mask, otherAt)
}

// Sheet is a loaded sprite sheet with all frame masks built.
type Sheet struct {
	Path        string
	Transparent uint8

	frames map[string]*Frame
	order  []*Frame
}

// Frame looks up a frame by name.
func (s *Sheet) Frame(name string) (*Frame, bool) {
	f, ok := s.frames[name]
	return f, ok
}

// Frames returns all frames in manifest order.
func (s *Sheet) Frames() []*Frame {
	return s.order
}

// Load reads a manifest, decodes its sheet image and builds the opacity
// mask of every frame on the given worker pool. Load waits for its own
// masks only, so the pool stays usable for further loads.
func Load(path string, pool *parallel.Pool) (*Sheet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read manifest %q: %w", path, err)
	}

	var man Manifest
	if err := yaml.Unmarshal(raw, &man); err != nil {
		return nil, fmt.Errorf("could not parse manifest %q: %w", path, err)
	}
	if man.Image == "" {
		return nil, fmt.Errorf("manifest %q names no sheet image", path)
	}

	imgPath := man.Image
	if !filepath.IsAbs(imgPath) {
		imgPath = filepath.Join(filepath.Dir(path), imgPath)
	}
	img, _, err := imgio.Decode(imgPath)
	if err != nil {
		return nil, err
	}
	pimg, err := imgio.Indexed(slog.Default().With("sheet", imgPath), img, "", false)
	if err != nil {
		return nil, err
	}

	transparent, err := man.transparentIndex(pimg.Palette)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}

	frames, err := man.expandFrames(pimg.Bounds())
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}

	s := &Sheet{
		Path:        path,
		Transparent: transparent,
		frames:      make(map[string]*Frame, len(frames)),
		order:       frames,
	}

	errs := make([]error, len(frames))
	var wg sync.WaitGroup
	for i, fr := range frames {
		i, fr := i, fr
		wg.Add(1)
		pool.Do(func() {
			defer wg.Done()
			fr.Mask, errs[i] = opacity.FromIndexed(pimg.Pix, pimg.Stride, fr.Rect, transparent)
		})
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("could not build mask for frame %q: %w", frames[i].Name, err)
		}
	}
	for _, fr := range frames {
		s.frames[fr.Name] = fr
	}
	return s, nil
}

func (m *Manifest) transparentIndex(pal color.Palette) (uint8, error) {
	switch {
	case m.Transparent != nil && m.Colorkey != "":
		return 0, fmt.Errorf("transparent and colorkey are mutually exclusive")
	case m.Transparent != nil:
		return *m.Transparent, nil
	case m.Colorkey != "":
		key, err := palette.ParseHex(m.Colorkey)
		if err != nil {
			return 0, err
		}
		return palette.KeyIndex(pal, key)
	default:
		return 0, fmt.Errorf("neither transparent index nor colorkey given")
	}
}

func (m *Manifest) expandFrames(bounds image.Rectangle) ([]*Frame, error) {
	sheetRect := image.Rect(0, 0, bounds.Dx(), bounds.Dy())

	var frames []*Frame
	add := func(name string, rs RectSpec) error {
		if name == "" {
			return fmt.Errorf("frame %d has no name", len(frames))
		}
		if rs.W < 1 || rs.H < 1 {
			return fmt.Errorf("frame %q has a degenerate %dx%d rectangle", name, rs.W, rs.H)
		}
		r := rs.rect()
		if !r.In(sheetRect) {
			return fmt.Errorf("frame %q rectangle %v leaves the %dx%d sheet", name, r, sheetRect.Dx(), sheetRect.Dy())
		}
		for _, fr := range frames {
			if fr.Name == name {
				return fmt.Errorf("duplicate frame name %q", name)
			}
		}
		frames = append(frames, &Frame{Name: name, Rect: r})
		return nil
	}

	for _, fs := range m.Frames {
		if err := add(fs.Name, fs.Rect); err != nil {
			return nil, err
		}
	}
	for _, gs := range m.Grids {
		if gs.Count < 1 {
			return nil, fmt.Errorf("grid %q has count %d", gs.Name, gs.Count)
		}
		rs := gs.Rect
		for i := 0; i < gs.Count; i++ {
			if err := add(fmt.Sprintf("%s_%d", gs.Name, i), rs); err != nil {
				return nil, err
			}
			rs.X += rs.W
		}
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames defined")
	}
	return frames, nil
}
