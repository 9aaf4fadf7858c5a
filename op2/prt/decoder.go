package prt

import "bytes"

// Decode parses a complete PRT container from data. Sections are laid
// out back to back: palette table, bitmap directory, animation block,
// then trailing bytes of unknown purpose which are captured verbatim.
// On any failure no partial model is returned.
func Decode(data []byte) (*File, error) {
	r := newReader(data, "palette table")

	palettes, err := decodePalettes(r)
	if err != nil {
		return nil, err
	}

	r.section = "bitmap directory"
	bitmaps, err := decodeBitmaps(r)
	if err != nil {
		return nil, err
	}

	r.section = "animation block"
	animations, optionalCount, err := decodeAnimations(r)
	if err != nil {
		return nil, err
	}

	return &File{
		Palettes:      palettes,
		Bitmaps:       bitmaps,
		Animations:    animations,
		OptionalCount: optionalCount,
		Extra:         bytes.Clone(r.rest()),
	}, nil
}
