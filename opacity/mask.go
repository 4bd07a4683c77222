// Package opacity builds and compares per-pixel opacity masks for
// pixel-accurate sprite collision. A mask stores one bit per pixel of a
// rectangular frame extracted from an 8-bit indexed image: the bit is set
// when the pixel's palette index differs from the frame's transparent index.
package opacity

import (
	"fmt"
	"image"
	"math/bits"
	"strings"
)

// Mask is an immutable bit-per-pixel opacity bitmap. Each pixel row is
// packed into 32-bit words, most significant bit first: bit 31 of a word is
// the leftmost pixel of its 32-pixel span. Unused low-order bits of the last
// word in a row are always zero.
type Mask struct {
	width       int
	height      int
	wordsPerRow int
	words       []uint32 // row-major, wordsPerRow words per row
}

// UnsupportedFormatError reports that a source image does not use an
// 8-bit indexed pixel format.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported pixel format %s: need an 8-bit indexed image", e.Format)
}

// FromIndexed builds a mask from the sub-rectangle r of an 8-bit indexed
// pixel buffer with the given stride (in pixels). A bit is set iff the
// source byte differs from transparent. The geometry is validated up front;
// FromIndexed never reads outside pix.
func FromIndexed(pix []uint8, stride int, r image.Rectangle, transparent uint8) (*Mask, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty frame rectangle %v", r)
	}
	if r.Min.X < 0 || r.Min.Y < 0 {
		return nil, fmt.Errorf("frame rectangle %v extends before the buffer origin", r)
	}
	if stride < r.Max.X {
		return nil, fmt.Errorf("stride %d too small for frame rectangle %v", stride, r)
	}
	if need := (r.Max.Y-1)*stride + r.Max.X; need > len(pix) {
		return nil, fmt.Errorf("pixel buffer too short: have %d bytes, frame %v at stride %d needs %d", len(pix), r, stride, need)
	}

	w, h := r.Dx(), r.Dy()
	m := &Mask{
		width:       w,
		height:      h,
		wordsPerRow: (w + 31) / 32,
	}
	m.words = make([]uint32, h*m.wordsPerRow)

	for i := 0; i < h; i++ {
		row := m.words[i*m.wordsPerRow:]
		src := pix[(r.Min.Y+i)*stride+r.Min.X:]

		k := -1
		var cursor uint32
		for j := 0; j < w; j++ {
			if cursor == 0 {
				k++
				cursor = 0x80000000
			}
			if src[j] != transparent {
				row[k] |= cursor
			}
			cursor >>= 1
		}
	}

	return m, nil
}

// FromPaletted builds a mask covering the whole of img.
func FromPaletted(img *image.Paletted, transparent uint8) (*Mask, error) {
	b := img.Bounds()
	return FromIndexed(img.Pix, img.Stride, image.Rect(0, 0, b.Dx(), b.Dy()), transparent)
}

// FromImage builds a mask from an image that must be 8-bit indexed.
// Any other image type yields an *UnsupportedFormatError; the caller
// decides whether that is fatal.
func FromImage(img image.Image, transparent uint8) (*Mask, error) {
	p, ok := img.(*image.Paletted)
	if !ok {
		return nil, &UnsupportedFormatError{Format: fmt.Sprintf("%T", img)}
	}
	return FromPaletted(p, transparent)
}

func (m *Mask) Width() int { return m.width }

func (m *Mask) Height() int { return m.height }

// WordsPerRow returns the number of 32-bit words packing one pixel row.
func (m *Mask) WordsPerRow() int { return m.wordsPerRow }

// Bounds returns the mask's rectangle anchored at the origin.
func (m *Mask) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// OpaqueAt reports whether the pixel at (x, y) is opaque. Coordinates
// outside the mask are transparent.
func (m *Mask) OpaqueAt(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.words[y*m.wordsPerRow+x/32]&(0x80000000>>(uint(x)%32)) != 0
}

// OpaqueCount returns the number of opaque pixels.
func (m *Mask) OpaqueCount() int {
	var n int
	for _, w := range m.words {
		n += bits.OnesCount32(w)
	}
	return n
}

// String renders the mask as ASCII art, one line per pixel row, with 'X'
// for opaque pixels and '.' for transparent ones.
func (m *Mask) String() string {
	var sb strings.Builder
	sb.Grow(m.height * (m.width + 1))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.OpaqueAt(x, y) {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
