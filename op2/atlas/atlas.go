// Package atlas reads and writes the companion bitmap file that holds
// the raw pixel rows for every bitmap in a PRT container. The game never
// looks at the BMP headers; the file is a BMP-shaped bag of bytes whose
// pixel area is addressed by the offsets in the PRT bitmap directory.
package atlas

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/op2tools/op2art/op2/prt"
)

var (
	ErrNotBMP     = errors.New("atlas: not a BMP file")
	ErrOutOfRange = errors.New("atlas: pixel data out of range")
)

const fileHeaderSize = 14

// Atlas is a read-only view over the bytes of an opened atlas file.
type Atlas struct {
	data       []byte
	pixelStart int
}

func Open(data []byte) (*Atlas, error) {
	if len(data) < fileHeaderSize || data[0] != 'B' || data[1] != 'M' {
		return nil, ErrNotBMP
	}
	start := int(binary.LittleEndian.Uint32(data[10:14]))
	if start < fileHeaderSize || start > len(data) {
		return nil, fmt.Errorf("%w: pixel area starts at %d of %d bytes", ErrNotBMP, start, len(data))
	}
	return &Atlas{data: data, pixelStart: start}, nil
}

// Pixels returns the raw rows for one directory entry: PaddedWidth bytes
// per row, Height rows. The slice aliases the atlas buffer.
func (a *Atlas) Pixels(b prt.Bitmap) ([]byte, error) {
	// Widths taken from a file can be large enough that their product
	// wraps a signed int, so the span is computed in uint64.
	n := uint64(b.PaddedWidth) * uint64(b.Height)
	end := uint64(a.pixelStart) + uint64(b.DataOffset) + n
	if end > uint64(len(a.data)) {
		return nil, fmt.Errorf("%w: offset %d length %d in %d-byte pixel area",
			ErrOutOfRange, b.DataOffset, n, len(a.data)-a.pixelStart)
	}
	start := a.pixelStart + int(b.DataOffset)
	return a.data[start : start+int(n)], nil
}

// PadWidth rounds a row width up to the four-byte stride the atlas uses.
func PadWidth(w uint32) uint32 { return (w + 3) &^ 3 }

// Builder lays bitmaps out back to back and wraps them into a new atlas
// file. Add rewrites each entry's PaddedWidth and DataOffset to match the
// layout being built, which is how those directory fields get their
// values before prt.Encode runs.
type Builder struct {
	pix []byte
}

// Add appends the rows for one bitmap. rows must already use the padded
// stride for the entry's width.
func (bld *Builder) Add(entry *prt.Bitmap, rows []byte) error {
	padded := PadWidth(entry.Width)
	if len(rows) != int(padded)*int(entry.Height) {
		return fmt.Errorf("atlas: %dx%d bitmap needs %d row bytes, got %d",
			entry.Width, entry.Height, int(padded)*int(entry.Height), len(rows))
	}
	entry.PaddedWidth = padded
	entry.DataOffset = uint32(len(bld.pix))
	bld.pix = append(bld.pix, rows...)
	return nil
}

// Bytes emits the finished atlas. The headers carry a nominal 8bpp
// single-row geometry and an all-black color table; the game ignores
// them and so does Open, which only needs the pixel-area offset.
func (bld *Builder) Bytes() []byte {
	const (
		infoHeaderSize = 40
		tableSize      = 256 * 4
		pixelStart     = fileHeaderSize + infoHeaderSize + tableSize
	)
	out := make([]byte, pixelStart+len(bld.pix))
	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:], uint32(len(out)))
	binary.LittleEndian.PutUint32(out[10:], pixelStart)
	binary.LittleEndian.PutUint32(out[14:], infoHeaderSize)
	binary.LittleEndian.PutUint32(out[18:], uint32(len(bld.pix))) // width
	binary.LittleEndian.PutUint32(out[22:], 1)                    // height
	binary.LittleEndian.PutUint16(out[26:], 1)                    // planes
	binary.LittleEndian.PutUint16(out[28:], 8)                    // bpp
	copy(out[pixelStart:], bld.pix)
	return out
}
