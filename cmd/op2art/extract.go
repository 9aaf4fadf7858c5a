package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/op2tools/op2art/op2/atlas"
	"github.com/op2tools/op2art/op2/meta"
	"github.com/op2tools/op2art/op2/pal"
	"github.com/op2tools/op2art/op2/prt"
)

// directoryEntry is the per-bitmap record written to directory.json so
// a later build can reconstruct the PRT bitmap directory. Indexed
// bitmaps go to paletted PNGs; shadow masks and unrecognized types keep
// their raw rows in .bin files.
type directoryEntry struct {
	File      string `json:"file"`
	Type      int16  `json:"type"`
	PaletteID int16  `json:"paletteId"`
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "decode a PRT/BMP pair into editable parts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prt", Usage: "PRT file", Required: true},
			&cli.StringFlag{Name: "bmp", Usage: "companion bitmap atlas", Required: true},
			&cli.StringFlag{Name: "out", Usage: "output directory", Required: true},
			&cli.StringFlag{Name: "pal-format", Usage: "palette format: riff, jasc or act", Value: "riff"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			file, a, err := loadPair(cmd.String("prt"), cmd.String("bmp"))
			if err != nil {
				return err
			}
			return extract(file, a, cmd.String("out"), cmd.String("pal-format"))
		},
	}
}

func loadPair(prtPath, bmpPath string) (*prt.File, *atlas.Atlas, error) {
	prtData, err := os.ReadFile(prtPath)
	if err != nil {
		return nil, nil, err
	}
	file, err := prt.Decode(prtData)
	if err != nil {
		return nil, nil, err
	}
	bmpData, err := os.ReadFile(bmpPath)
	if err != nil {
		return nil, nil, err
	}
	a, err := atlas.Open(bmpData)
	if err != nil {
		return nil, nil, err
	}
	return file, a, nil
}

func extract(file *prt.File, a *atlas.Atlas, out, palFormat string) error {
	for _, dir := range []string{out, filepath.Join(out, "palettes"), filepath.Join(out, "bitmaps")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	for i := range file.Palettes {
		if err := writePalette(file, i, out, palFormat); err != nil {
			return err
		}
	}
	fmt.Printf("wrote %d palettes\n", len(file.Palettes))

	directory := make([]directoryEntry, len(file.Bitmaps))
	for i, b := range file.Bitmaps {
		rows, err := a.Pixels(b)
		if err != nil {
			return fmt.Errorf("bitmap %d: %w", i, err)
		}
		entry := directoryEntry{
			Type: int16(b.Type), PaletteID: b.PaletteID,
			Width: b.Width, Height: b.Height,
		}
		paletteOK := int(b.PaletteID) >= 0 && int(b.PaletteID) < len(file.Palettes)
		if b.Type.Known() && b.Type.Bpp() == 8 && paletteOK {
			entry.File = fmt.Sprintf("bmp_%04d.png", i)
			img := &image.Paletted{
				Pix:     rows,
				Stride:  int(b.PaddedWidth),
				Rect:    image.Rect(0, 0, int(b.Width), int(b.Height)),
				Palette: file.Palettes[b.PaletteID].Colors(),
			}
			if err := writePNG(filepath.Join(out, "bitmaps", entry.File), img); err != nil {
				return err
			}
		} else {
			entry.File = fmt.Sprintf("bmp_%04d.bin", i)
			if err := os.WriteFile(filepath.Join(out, "bitmaps", entry.File), rows, 0o644); err != nil {
				return err
			}
		}
		directory[i] = entry
	}
	fmt.Printf("wrote %d bitmaps\n", len(file.Bitmaps))

	if err := writeJSON(filepath.Join(out, "directory.json"), directory); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(out, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()
	if err := meta.Write(metaFile, file); err != nil {
		return err
	}
	fmt.Printf("wrote metadata for %d animations\n", len(file.Animations))

	if len(file.Extra) > 0 {
		if err := os.WriteFile(filepath.Join(out, "extra.bin"), file.Extra, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes of trailing data\n", len(file.Extra))
	}
	return nil
}

func writePalette(file *prt.File, i int, out, format string) error {
	var ext string
	switch format {
	case "riff":
		ext = "pal"
	case "jasc":
		ext = "jasc"
	case "act":
		ext = "act"
	default:
		return fmt.Errorf("unknown palette format %q", format)
	}
	f, err := os.Create(filepath.Join(out, "palettes", fmt.Sprintf("pal_%03d.%s", i, ext)))
	if err != nil {
		return err
	}
	defer f.Close()
	switch format {
	case "riff":
		return pal.ExportRIFF(f, &file.Palettes[i])
	case "jasc":
		return pal.ExportJASC(f, &file.Palettes[i])
	default:
		return pal.ExportACT(f, &file.Palettes[i])
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
