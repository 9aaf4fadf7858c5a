// Package pal converts PRT palettes to and from common interchange
// formats: RIFF PAL, JASC-PAL (Paint Shop Pro text) and ACT (Adobe Color
// Table), plus the color table of an indexed BMP on import.
package pal

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/bmp"

	"github.com/op2tools/op2art/op2/prt"
	"github.com/op2tools/op2art/utils"
)

var ErrUnknownFormat = errors.New("pal: unrecognized palette format")

const riffVersion = 0x0300

func ExportRIFF(w io.Writer, p *prt.Palette) error {
	dataLen := uint32(4 + 4*len(p))
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 4+8+dataLen)
	buf.WriteString("PAL data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	binary.Write(&buf, binary.LittleEndian, uint16(riffVersion))
	binary.Write(&buf, binary.LittleEndian, uint16(len(p)))
	for _, c := range p {
		buf.Write([]byte{c.R, c.G, c.B, c.Flags})
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func ImportRIFF(r io.Reader) (*prt.Palette, error) {
	hdr := make([]byte, 4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	if string(hdr) != "RIFF" {
		return nil, fmt.Errorf("%w: no RIFF signature", ErrUnknownFormat)
	}
	if _, err := utils.ReadUint32LE(r); err != nil { // riff length
		return nil, err
	}
	form := make([]byte, 8)
	if _, err := io.ReadFull(r, form); err != nil {
		return nil, err
	}
	if string(form) != "PAL data" {
		return nil, fmt.Errorf("%w: RIFF form %q is not PAL", ErrUnknownFormat, form)
	}
	if _, err := utils.ReadUint32LE(r); err != nil { // data length
		return nil, err
	}
	if v, err := utils.ReadUint16LE(r); err != nil {
		return nil, err
	} else if v != riffVersion {
		return nil, fmt.Errorf("pal: RIFF PAL version %#04x", v)
	}
	count, err := utils.ReadUint16LE(r)
	if err != nil {
		return nil, err
	}
	var p prt.Palette
	for i := 0; i < int(count) && i < len(p); i++ {
		entry := make([]byte, 4)
		if _, err := io.ReadFull(r, entry); err != nil {
			return nil, err
		}
		p[i] = prt.Color{R: entry[0], G: entry[1], B: entry[2], Flags: entry[3]}
	}
	return &p, nil
}

func ExportJASC(w io.Writer, p *prt.Palette) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "JASC-PAL\r\n0100\r\n%d\r\n", len(p))
	for _, c := range p {
		fmt.Fprintf(&buf, "%d %d %d\r\n", c.R, c.G, c.B)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func ImportJASC(r io.Reader) (*prt.Palette, error) {
	sc := bufio.NewScanner(r)
	line := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return sc.Text(), nil
	}
	sig, err := line()
	if err != nil {
		return nil, err
	}
	if sig != "JASC-PAL" {
		return nil, fmt.Errorf("%w: no JASC-PAL signature", ErrUnknownFormat)
	}
	if _, err := line(); err != nil { // version
		return nil, err
	}
	countLine, err := line()
	if err != nil {
		return nil, err
	}
	var count int
	if _, err := fmt.Sscanf(countLine, "%d", &count); err != nil {
		return nil, fmt.Errorf("pal: bad JASC color count %q", countLine)
	}
	var p prt.Palette
	for i := 0; i < count && i < len(p); i++ {
		entry, err := line()
		if err != nil {
			return nil, err
		}
		var red, green, blue int
		if _, err := fmt.Sscanf(entry, "%d %d %d", &red, &green, &blue); err != nil {
			return nil, fmt.Errorf("pal: bad JASC entry %q", entry)
		}
		p[i] = prt.Color{R: uint8(red), G: uint8(green), B: uint8(blue)}
	}
	return &p, nil
}

func ExportACT(w io.Writer, p *prt.Palette) error {
	out := make([]byte, 0, len(p)*3)
	for _, c := range p {
		out = append(out, c.R, c.G, c.B)
	}
	_, err := w.Write(out)
	return err
}

func ImportACT(r io.Reader) (*prt.Palette, error) {
	var p prt.Palette
	for i := range p {
		for j := 0; j < 3; j++ {
			b, err := utils.ReadByte(r)
			if err != nil {
				return nil, err
			}
			switch j {
			case 0:
				p[i].R = b
			case 1:
				p[i].G = b
			case 2:
				p[i].B = b
			}
		}
	}
	// a 4-byte color count / transparency footer may follow; ignored
	return &p, nil
}

// Import sniffs the format from the leading bytes: RIFF PAL, JASC-PAL,
// the color table of an indexed BMP, or raw ACT as the fallback
// (matching Photoshop's own behavior for extension-less tables).
func Import(data []byte) (*prt.Palette, error) {
	switch {
	case len(data) >= 4 && string(data[:4]) == "RIFF":
		return ImportRIFF(bytes.NewReader(data))
	case len(data) >= 8 && string(data[:8]) == "JASC-PAL":
		return ImportJASC(bytes.NewReader(data))
	case len(data) >= 2 && string(data[:2]) == "BM":
		return importBMP(data)
	case len(data) == 768 || len(data) == 772:
		return ImportACT(bytes.NewReader(data))
	}
	return nil, ErrUnknownFormat
}

func importBMP(data []byte) (*prt.Palette, error) {
	cfg, err := bmp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	table, ok := cfg.ColorModel.(color.Palette)
	if !ok {
		return nil, fmt.Errorf("%w: BMP has no color table", ErrUnknownFormat)
	}
	return FromColors(table), nil
}

// FromColors fills a PRT palette from an image palette, truncating or
// zero-padding to 256 entries.
func FromColors(table color.Palette) *prt.Palette {
	var p prt.Palette
	for i, c := range table {
		if i >= len(p) {
			break
		}
		red, green, blue, _ := c.RGBA()
		p[i] = prt.Color{R: uint8(red >> 8), G: uint8(green >> 8), B: uint8(blue >> 8)}
	}
	return &p
}
