package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/op2tools/op2art/op2/atlas"
	"github.com/op2tools/op2art/op2/meta"
	"github.com/op2tools/op2art/op2/pal"
	"github.com/op2tools/op2art/op2/prt"
)

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "re-encode an extracted directory into a PRT/BMP pair",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "directory produced by extract", Required: true},
			&cli.StringFlag{Name: "prt", Usage: "output PRT file", Required: true},
			&cli.StringFlag{Name: "bmp", Usage: "output bitmap atlas", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return build(cmd.String("in"), cmd.String("prt"), cmd.String("bmp"))
		},
	}
}

func build(in, prtPath, bmpPath string) error {
	file := &prt.File{}

	palettes, err := readPalettes(filepath.Join(in, "palettes"))
	if err != nil {
		return err
	}
	file.Palettes = palettes

	var directory []directoryEntry
	if err := readJSON(filepath.Join(in, "directory.json"), &directory); err != nil {
		return err
	}
	var bld atlas.Builder
	file.Bitmaps = make([]prt.Bitmap, len(directory))
	for i, d := range directory {
		entry := prt.Bitmap{
			Type:      prt.BitmapType(d.Type),
			PaletteID: d.PaletteID,
			Width:     d.Width,
			Height:    d.Height,
		}
		rows, err := readBitmapRows(filepath.Join(in, "bitmaps", d.File), &entry, palettes)
		if err != nil {
			return fmt.Errorf("bitmap %d: %w", i, err)
		}
		if err := bld.Add(&entry, rows); err != nil {
			return fmt.Errorf("bitmap %d: %w", i, err)
		}
		file.Bitmaps[i] = entry
	}

	metaFile, err := os.Open(filepath.Join(in, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()
	doc, err := meta.Read(metaFile)
	if err != nil {
		return err
	}
	if err := doc.Apply(file); err != nil {
		return err
	}

	if extra, err := os.ReadFile(filepath.Join(in, "extra.bin")); err == nil {
		file.Extra = extra
	} else if !os.IsNotExist(err) {
		return err
	}

	out, err := prt.Encode(file)
	if err != nil {
		return err
	}
	if err := os.WriteFile(prtPath, out, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(bmpPath, bld.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Printf("built %s (%d palettes, %d bitmaps, %d animations) and %s\n",
		prtPath, len(file.Palettes), len(file.Bitmaps), len(file.Animations), bmpPath)
	return nil
}

func readPalettes(dir string) ([]prt.Palette, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	palettes := make([]prt.Palette, len(names))
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		p, err := pal.Import(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		palettes[i] = *p
	}
	return palettes, nil
}

// readBitmapRows loads one bitmap back as padded atlas rows. Paletted
// PNGs keep their indices; any other image is matched against the
// entry's palette color by color. Raw .bin files are taken as-is.
func readBitmapRows(path string, entry *prt.Bitmap, palettes []prt.Palette) ([]byte, error) {
	if filepath.Ext(path) == ".bin" {
		return os.ReadFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if uint32(b.Dx()) != entry.Width || uint32(b.Dy()) != entry.Height {
		return nil, fmt.Errorf("image is %dx%d, directory says %dx%d",
			b.Dx(), b.Dy(), entry.Width, entry.Height)
	}

	padded := int(atlas.PadWidth(entry.Width))
	rows := make([]byte, padded*int(entry.Height))
	switch src := img.(type) {
	case *image.Paletted:
		for y := 0; y < b.Dy(); y++ {
			copy(rows[y*padded:], src.Pix[y*src.Stride:y*src.Stride+b.Dx()])
		}
	default:
		if int(entry.PaletteID) < 0 || int(entry.PaletteID) >= len(palettes) {
			return nil, fmt.Errorf("palette %d out of range", entry.PaletteID)
		}
		colors := palettes[entry.PaletteID].Colors()
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				rows[y*padded+x] = uint8(colors.Index(img.At(b.Min.X+x, b.Min.Y+y)))
			}
		}
	}
	return rows, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
