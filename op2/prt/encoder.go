package prt

import "fmt"

// Encode serializes the model back into PRT container bytes. Section
// counts and totals are recomputed from the live slice lengths, so an
// edit that adds or removes palettes, bitmaps, frames or subframes comes
// out consistent; OptionalCount and Extra are written back unchanged.
// Each section is encoded into its own buffer first and the buffers
// concatenated, so no offsets ever need patching.
func Encode(file *File) ([]byte, error) {
	if err := file.validate(); err != nil {
		return nil, err
	}

	var pal, dir, anim writer
	encodePalettes(&pal, file.Palettes)
	encodeBitmaps(&dir, file.Bitmaps)
	encodeAnimations(&anim, file.Animations, file.OptionalCount)

	out := make([]byte, 0, pal.len()+dir.len()+anim.len()+len(file.Extra))
	out = append(out, pal.buf.Bytes()...)
	out = append(out, dir.buf.Bytes()...)
	out = append(out, anim.buf.Bytes()...)
	out = append(out, file.Extra...)
	return out, nil
}

// validate checks reference integrity, the only validation performed:
// whether the metadata describes a sensible asset is the editor's
// problem, and the game itself never checks either.
func (file *File) validate() error {
	for i, b := range file.Bitmaps {
		if int(b.PaletteID) < 0 || int(b.PaletteID) >= len(file.Palettes) {
			return fmt.Errorf("%w: bitmap %d: palette %d out of range (%d palettes)",
				ErrInconsistentModel, i, b.PaletteID, len(file.Palettes))
		}
	}
	for i, anim := range file.Animations {
		for j, frame := range anim.Frames {
			// the subframe count shares its byte with the optional flag
			if len(frame.Subframes) > 0x7f {
				return fmt.Errorf("%w: animation %d frame %d: %d subframes, limit is 127",
					ErrInconsistentModel, i, j, len(frame.Subframes))
			}
			for k, sub := range frame.Subframes {
				if int(sub.BitmapID) < 0 || int(sub.BitmapID) >= len(file.Bitmaps) {
					return fmt.Errorf("%w: animation %d frame %d subframe %d: bitmap %d out of range (%d bitmaps)",
						ErrInconsistentModel, i, j, k, sub.BitmapID, len(file.Bitmaps))
				}
			}
		}
	}
	return nil
}
