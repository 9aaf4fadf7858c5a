package prt

import "fmt"

// The palette table is a CPAL block: a tag and palette count, then one
// tagged sub-section stream per palette. Every palette seen in the wild
// is PPAL (1048 bytes) -> head (4 bytes) -> data (1024 bytes, 256 BGRA
// entries). The head value is the number of tags still to come.
var (
	tagCPAL = [4]byte{'C', 'P', 'A', 'L'}
	tagPPAL = [4]byte{'P', 'P', 'A', 'L'}
	tagRIFF = [4]byte{'R', 'I', 'F', 'F'}
	tagHead = [4]byte{'h', 'e', 'a', 'd'}
	tagData = [4]byte{'d', 'a', 't', 'a'}
)

const (
	sizePPAL = 1048
	sizeHead = 4
	sizeData = 1024

	// The fewest bytes one palette can occupy: a head section and a
	// data section, each with its 8-byte tag header.
	minPaletteSize = 8 + sizeHead + 8 + sizeData
)

type sectionHeader struct {
	Tag  [4]byte
	Size uint32
}

func decodePalettes(r *reader) ([]Palette, error) {
	var hdr sectionHeader
	if err := r.read(&hdr); err != nil {
		return nil, err
	}
	if hdr.Tag != tagCPAL {
		return nil, fmt.Errorf("%w: signature %q is not CPAL", ErrInvalidContainer, hdr.Tag[:])
	}
	if !r.fits(hdr.Size, minPaletteSize) {
		return nil, fmt.Errorf("%w: %d palettes declared, %d bytes left",
			ErrTruncatedPalette, hdr.Size, r.remaining())
	}
	palettes := make([]Palette, hdr.Size)
	for i := range palettes {
		if err := decodePalette(r, &palettes[i]); err != nil {
			return nil, fmt.Errorf("palette %d: %w", i, err)
		}
	}
	return palettes, nil
}

func decodePalette(r *reader, pal *Palette) error {
	tagsLeft := 2
	for tagsLeft > 0 {
		tagsLeft--
		var hdr sectionHeader
		if err := r.read(&hdr); err != nil {
			return fmt.Errorf("%w: %v", ErrTruncatedPalette, err)
		}
		switch hdr.Tag {
		case tagPPAL:
			if hdr.Size != sizePPAL {
				return fmt.Errorf("%w: PPAL size %d", ErrTruncatedPalette, hdr.Size)
			}
		case tagHead:
			if hdr.Size != sizeHead {
				return fmt.Errorf("%w: head size %d", ErrTruncatedPalette, hdr.Size)
			}
			n, err := r.u32()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrTruncatedPalette, err)
			}
			tagsLeft = int(n)
		case tagData:
			if hdr.Size != sizeData {
				return fmt.Errorf("%w: data size %d", ErrTruncatedPalette, hdr.Size)
			}
			entries, err := r.bytes(sizeData)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrTruncatedPalette, err)
			}
			for i := range pal {
				e := entries[i*4 : i*4+4]
				// blue and red are swapped on disk
				pal[i] = Color{R: e[2], G: e[1], B: e[0], Flags: e[3]}
			}
		case tagRIFF:
			return fmt.Errorf("%w: RIFF palette not supported", ErrInvalidContainer)
		default:
			return fmt.Errorf("%w: unhandled tag %q (size %d)", ErrInvalidContainer, hdr.Tag[:], hdr.Size)
		}
	}
	return nil
}

func encodePalettes(w *writer, palettes []Palette) {
	w.tag("CPAL")
	w.u32(uint32(len(palettes)))
	for i := range palettes {
		w.tag("PPAL")
		w.u32(sizePPAL)
		w.tag("head")
		w.u32(sizeHead)
		w.u32(1)
		w.tag("data")
		w.u32(sizeData)
		for _, c := range palettes[i] {
			w.u8(c.B)
			w.u8(c.G)
			w.u8(c.R)
			w.u8(c.Flags)
		}
	}
}
