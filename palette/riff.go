package palette

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/riff"
)

// RIFF PAL files carry a LOGPALETTE: a 16-bit version (3), a 16-bit entry
// count, then 4 bytes (red, green, blue, flags) per entry.

var (
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

// ReadRIFF reads every palette stored in a RIFF PAL stream, descending into
// nested PAL lists.
func ReadRIFF(r io.Reader) ([]color.Palette, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open RIFF stream: %w", err)
	}
	if formType != palType {
		return nil, fmt.Errorf("unsupported RIFF content type %q", formType[:])
	}
	return readChunks(rd)
}

func readChunks(r *riff.Reader) ([]color.Palette, error) {
	var pals []color.Palette

	for {
		id, size, data, err := r.Next()
		if err == io.EOF {
			return pals, nil
		}
		if err != nil {
			return pals, fmt.Errorf("could not read chunk %d: %w", len(pals), err)
		}

		switch id {
		case riff.LIST:
			listType, list, err := riff.NewListReader(size, data)
			if err != nil {
				return pals, fmt.Errorf("could not open list chunk %d: %w", len(pals), err)
			}
			if listType != palType {
				return pals, fmt.Errorf("unsupported list type %q in chunk %d", listType[:], len(pals))
			}
			sub, err := readChunks(list)
			pals = append(pals, sub...)
			if err != nil {
				return pals, err
			}
		case dataType:
			pal, err := readLogPalette(data)
			if err != nil {
				return pals, fmt.Errorf("chunk %d: %w", len(pals), err)
			}
			pals = append(pals, pal)
		default:
			return pals, fmt.Errorf("unsupported chunk type %q", id[:])
		}
	}
}

func readLogPalette(r io.Reader) (color.Palette, error) {
	var head struct {
		Version uint16
		Count   uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &head); err != nil {
		return nil, fmt.Errorf("could not read palette header: %w", err)
	}
	// Version 3 appears on disk with either byte order.
	if head.Version != 3 && head.Version != 0x300 {
		return nil, fmt.Errorf("unsupported palette version %#x", head.Version)
	}

	entries := make([]byte, int(head.Count)*4)
	if _, err := io.ReadFull(r, entries); err != nil {
		return nil, fmt.Errorf("could not read %d palette entries: %w", head.Count, err)
	}

	pal := make(color.Palette, head.Count)
	for i := range pal {
		pal[i] = color.RGBA{
			R: entries[i*4],
			G: entries[i*4+1],
			B: entries[i*4+2],
			A: 0xFF,
		}
	}
	return pal, nil
}
