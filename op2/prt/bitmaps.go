package prt

import "fmt"

// One fixed-width directory record per bitmap, preceded by a count.
type bitmapRecord struct {
	PaddedWidth uint32
	DataOffset  uint32
	Height      uint32
	Width       uint32
	Type        int16
	PaletteID   int16
}

func decodeBitmaps(r *reader) ([]Bitmap, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	const recordSize = 20
	if !r.fits(count, recordSize) {
		return nil, fmt.Errorf("%w: %s: %d records declared, %d bytes left",
			ErrUnexpectedEOF, r.section, count, r.remaining())
	}
	bitmaps := make([]Bitmap, count)
	for i := range bitmaps {
		var rec bitmapRecord
		if err := r.read(&rec); err != nil {
			return nil, fmt.Errorf("bitmap %d: %w", i, err)
		}
		bitmaps[i] = Bitmap{
			Type:        BitmapType(rec.Type),
			PaletteID:   rec.PaletteID,
			Width:       rec.Width,
			Height:      rec.Height,
			PaddedWidth: rec.PaddedWidth,
			DataOffset:  rec.DataOffset,
		}
	}
	return bitmaps, nil
}

func encodeBitmaps(w *writer, bitmaps []Bitmap) {
	w.u32(uint32(len(bitmaps)))
	for _, b := range bitmaps {
		w.write(bitmapRecord{
			PaddedWidth: b.PaddedWidth,
			DataOffset:  b.DataOffset,
			Height:      b.Height,
			Width:       b.Width,
			Type:        int16(b.Type),
			PaletteID:   b.PaletteID,
		})
	}
}
