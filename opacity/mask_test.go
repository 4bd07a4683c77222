package opacity

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"
)

// buildIndexed fills a w x h buffer from a function mapping (x, y) to a
// palette index and builds a mask over the whole buffer with transparent
// index 0.
func buildIndexed(t *testing.T, w, h int, at func(x, y int) uint8) *Mask {
	t.Helper()
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = at(x, y)
		}
	}
	m, err := FromIndexed(pix, w, image.Rect(0, 0, w, h), 0)
	if err != nil {
		t.Fatalf("FromIndexed failed: %v", err)
	}
	return m
}

// TestFromIndexed_BitLayout verifies that every bit of the constructed mask
// matches sourcePixel != transparent, for widths around the 32-pixel word
// boundary.
func TestFromIndexed_BitLayout(t *testing.T) {
	widths := []int{1, 7, 31, 32, 33, 40, 64, 65}
	const h = 5

	for _, w := range widths {
		rng := rand.New(rand.NewSource(int64(w)))
		src := make([]uint8, w*h)
		for i := range src {
			src[i] = uint8(rng.Intn(4)) // index 0 is the transparent one
		}

		m, err := FromIndexed(src, w, image.Rect(0, 0, w, h), 0)
		if err != nil {
			t.Fatalf("width %d: FromIndexed failed: %v", w, err)
		}

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				want := src[y*w+x] != 0
				if got := m.OpaqueAt(x, y); got != want {
					t.Errorf("width %d: bit (%d,%d) = %v, want %v", w, x, y, got, want)
				}
			}
		}
	}
}

// TestFromIndexed_TrailingBitsZero verifies that bits past the frame width
// in the last word of each row stay zero even for fully opaque frames.
func TestFromIndexed_TrailingBitsZero(t *testing.T) {
	for _, w := range []int{1, 31, 33, 40, 65} {
		m := buildIndexed(t, w, 3, func(int, int) uint8 { return 1 })

		for y := 0; y < m.Height(); y++ {
			last := m.words[y*m.wordsPerRow+m.wordsPerRow-1]
			used := w % 32
			if used == 0 {
				used = 32
			}
			if tail := last << uint(used); tail != 0 {
				t.Errorf("width %d row %d: trailing bits not zero: %#08x", w, y, tail)
			}
		}
	}
}

// TestWordsPerRow verifies the word count per row for widths on and around
// multiples of 32.
func TestWordsPerRow(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{1, 1},
		{31, 1},
		{32, 1},
		{33, 2},
		{64, 2},
		{65, 3},
		{320, 10},
	}

	for _, tt := range tests {
		m := buildIndexed(t, tt.width, 1, func(int, int) uint8 { return 1 })
		if m.WordsPerRow() != tt.want {
			t.Errorf("width %d: WordsPerRow = %d, want %d", tt.width, m.WordsPerRow(), tt.want)
		}
	}
}

// TestFromIndexed_SubRect verifies that a sub-rectangle extraction reads the
// right bytes of a wider buffer.
func TestFromIndexed_SubRect(t *testing.T) {
	const stride, bufH = 16, 8
	pix := make([]uint8, stride*bufH)
	// Opaque L shape inside the extracted frame, garbage outside it.
	for i := range pix {
		pix[i] = 9
	}
	r := image.Rect(4, 2, 10, 7)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			pix[y*stride+x] = 0
		}
	}
	pix[3*stride+5] = 1
	pix[4*stride+5] = 1
	pix[4*stride+6] = 1

	m, err := FromIndexed(pix, stride, r, 0)
	if err != nil {
		t.Fatalf("FromIndexed failed: %v", err)
	}
	if m.Width() != 6 || m.Height() != 5 {
		t.Fatalf("frame size = %dx%d, want 6x5", m.Width(), m.Height())
	}

	wantOpaque := map[image.Point]bool{
		{1, 1}: true,
		{1, 2}: true,
		{2, 2}: true,
	}
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if got := m.OpaqueAt(x, y); got != wantOpaque[image.Pt(x, y)] {
				t.Errorf("bit (%d,%d) = %v, want %v", x, y, got, wantOpaque[image.Pt(x, y)])
			}
		}
	}
	if m.OpaqueCount() != 3 {
		t.Errorf("OpaqueCount = %d, want 3", m.OpaqueCount())
	}
}

// TestFromIndexed_BadGeometry verifies that malformed frame rectangles are
// rejected before any buffer access.
func TestFromIndexed_BadGeometry(t *testing.T) {
	pix := make([]uint8, 8*8)

	tests := []struct {
		name   string
		stride int
		rect   image.Rectangle
	}{
		{"empty rect", 8, image.Rect(2, 2, 2, 5)},
		// image.Rect canonicalizes swapped corners, so the inverted rectangle
		// has to be constructed literally to reach FromIndexed un-fixed.
		{"inverted rect", 8, image.Rectangle{Min: image.Pt(5, 5), Max: image.Pt(2, 2)}},
		{"negative origin", 8, image.Rect(-1, 0, 4, 4)},
		{"stride too small", 4, image.Rect(0, 0, 6, 2)},
		{"past end of buffer", 8, image.Rect(0, 0, 8, 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromIndexed(pix, tt.stride, tt.rect, 0); err == nil {
				t.Errorf("FromIndexed(%v, stride %d) succeeded, want error", tt.rect, tt.stride)
			}
		})
	}
}

// TestFromImage_UnsupportedFormat verifies that non-indexed images are
// rejected with a typed, recoverable error.
func TestFromImage_UnsupportedFormat(t *testing.T) {
	_, err := FromImage(image.NewRGBA(image.Rect(0, 0, 4, 4)), 0)
	if err == nil {
		t.Fatal("FromImage(RGBA) succeeded, want error")
	}
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("error %v is not an *UnsupportedFormatError", err)
	}
}

// TestFromPaletted verifies the image.Paletted adapter against the image's
// own index accessor.
func TestFromPaletted(t *testing.T) {
	pal := color.Palette{
		color.RGBA{},
		color.RGBA{R: 0xFF, A: 0xFF},
		color.RGBA{G: 0xFF, A: 0xFF},
	}
	img := image.NewPaletted(image.Rect(0, 0, 37, 4), pal)
	rng := rand.New(rand.NewSource(7))
	for y := 0; y < 4; y++ {
		for x := 0; x < 37; x++ {
			img.SetColorIndex(x, y, uint8(rng.Intn(3)))
		}
	}

	m, err := FromPaletted(img, 0)
	if err != nil {
		t.Fatalf("FromPaletted failed: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 37; x++ {
			want := img.ColorIndexAt(x, y) != 0
			if got := m.OpaqueAt(x, y); got != want {
				t.Errorf("bit (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

// TestMaskString verifies the ASCII rendering used by the dump command.
func TestMaskString(t *testing.T) {
	m := buildIndexed(t, 3, 2, func(x, y int) uint8 {
		if x == y {
			return 1
		}
		return 0
	})

	want := "X..\n.X.\n"
	if got := m.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
