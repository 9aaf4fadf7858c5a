// Package prt decodes and encodes the Outpost 2 PRT art container.
//
// A PRT file holds the color palettes, the bitmap directory and the
// animation metadata for every sprite in the game; the raw indexed pixel
// data lives in the companion atlas file (see op2/atlas). The layout is
// reverse engineered and several fields have no known meaning. Those are
// kept on the model verbatim and written back unchanged.
package prt

import "image/color"

// File is the in-memory form of a whole PRT container. It is produced by
// Decode, may be freely edited, and is consumed by Encode.
type File struct {
	Palettes   []Palette
	Bitmaps    []Bitmap
	Animations []Animation

	// OptionalCount is read from the animation block header alongside the
	// animation/frame/subframe totals. Its meaning is unknown; it is
	// re-emitted verbatim while the other three totals are recomputed.
	OptionalCount uint32

	// Extra holds whatever bytes follow the last animation record.
	Extra []byte
}

type Color struct {
	R, G, B uint8
	// Flags is the fourth byte of the on-disk entry, usually zero.
	Flags uint8
}

// Palette is one 256-entry color table. Bitmaps reference palettes by
// their position in File.Palettes.
type Palette [256]Color

// Colors converts the palette for use with the image packages.
func (p *Palette) Colors() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}
	return out
}

type BitmapType int16

// Observed type tags. Values outside this set are preserved as-is so that
// asset types not yet reverse engineered survive a round trip.
const (
	BitmapIndexed8    BitmapType = 0
	BitmapIndexed8Alt BitmapType = 1
	BitmapShadow      BitmapType = 4
	BitmapShadowAlt   BitmapType = 5
)

func (t BitmapType) Known() bool {
	switch t {
	case BitmapIndexed8, BitmapIndexed8Alt, BitmapShadow, BitmapShadowAlt:
		return true
	}
	return false
}

// Bpp reports the pixel depth used to interpret atlas rows: shadow masks
// are 1bpp, everything else is 8bpp indexed.
func (t BitmapType) Bpp() int {
	if t == BitmapShadow || t == BitmapShadowAlt {
		return 1
	}
	return 8
}

// Bitmap is one directory record. The pixel bytes themselves live in the
// atlas file; the record only says how to find and interpret them.
type Bitmap struct {
	Type      BitmapType
	PaletteID int16
	Width     uint32
	Height    uint32

	// PaddedWidth is the row stride inside the atlas (width rounded up to
	// a multiple of four) and DataOffset the start of the rows relative to
	// the atlas pixel area. Both are recomputed by atlas.Builder when the
	// atlas is rebuilt; Encode writes them as found on the model.
	PaddedWidth uint32
	DataOffset  uint32
}

type Rect struct {
	Left, Top, Right, Bottom uint32
}

type Animation struct {
	Unknown1 uint32
	Bounds   Rect
	OffsetX  uint32
	OffsetY  uint32
	Unknown2 uint32
	Frames   []Frame

	// Appendix entries trail each animation record. Their meaning is
	// unknown; each is four little-endian words kept verbatim.
	Appendix [][4]uint32
}

// Frame holds one animation step. The two byte pairs Optional1/Optional2
// appear on disk only when the high bit of the subframe-count byte or the
// unknown byte is set; nil means absent.
type Frame struct {
	Unknown   uint8
	Optional1 *[2]uint8
	Optional2 *[2]uint8
	Subframes []Subframe
}

// Subframe places one bitmap within a frame. BitmapID indexes
// File.Bitmaps; X and Y are signed offsets from the animation origin.
type Subframe struct {
	BitmapID int16
	Unknown  uint8
	ID       uint8
	X, Y     int16
}
