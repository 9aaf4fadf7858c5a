// Package render composes bitmaps and animation frames into RGBA images
// for preview and export.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/op2tools/op2art/op2/atlas"
	"github.com/op2tools/op2art/op2/prt"
)

// shadow tint used for 1bpp shadow bitmaps
var shadowColor = color.RGBA{A: 0x80}

// Bitmap renders one directory entry from its raw atlas rows. Index 0 of
// the palette is treated as transparent, matching how the game keys
// sprites onto the terrain. Shadow bitmaps (1bpp) come out as a
// translucent black mask.
func Bitmap(b prt.Bitmap, palette *prt.Palette, rows []byte) (*image.RGBA, error) {
	if n := int(b.PaddedWidth) * int(b.Height); len(rows) < n {
		return nil, fmt.Errorf("render: %dx%d bitmap needs %d row bytes, got %d",
			b.Width, b.Height, n, len(rows))
	}
	canvas := image.NewRGBA(image.Rect(0, 0, int(b.Width), int(b.Height)))
	colors := palette.Colors()
	for y := 0; y < int(b.Height); y++ {
		row := rows[y*int(b.PaddedWidth):]
		for x := 0; x < int(b.Width); x++ {
			switch b.Type.Bpp() {
			case 1:
				if row[x/8]&(0x80>>(x%8)) != 0 {
					canvas.SetRGBA(x, y, shadowColor)
				}
			default:
				if idx := row[x]; idx != 0 {
					canvas.Set(x, y, colors[idx])
				}
			}
		}
	}
	return canvas, nil
}

// Frame composes one frame of an animation onto a canvas sized by the
// animation's bounding box. Subframes are drawn in order, each bitmap
// placed at the animation origin plus its signed offset.
func Frame(file *prt.File, a *atlas.Atlas, animIndex, frameIndex int) (*image.RGBA, error) {
	if animIndex < 0 || animIndex >= len(file.Animations) {
		return nil, fmt.Errorf("render: no animation %d", animIndex)
	}
	anim := file.Animations[animIndex]
	if frameIndex < 0 || frameIndex >= len(anim.Frames) {
		return nil, fmt.Errorf("render: animation %d has no frame %d", animIndex, frameIndex)
	}

	w := int(anim.Bounds.Right) - int(anim.Bounds.Left)
	h := int(anim.Bounds.Bottom) - int(anim.Bounds.Top)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: animation %d has empty bounds %+v", animIndex, anim.Bounds)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))

	for _, sub := range anim.Frames[frameIndex].Subframes {
		if int(sub.BitmapID) < 0 || int(sub.BitmapID) >= len(file.Bitmaps) {
			return nil, fmt.Errorf("render: subframe references bitmap %d of %d", sub.BitmapID, len(file.Bitmaps))
		}
		entry := file.Bitmaps[sub.BitmapID]
		if int(entry.PaletteID) < 0 || int(entry.PaletteID) >= len(file.Palettes) {
			return nil, fmt.Errorf("render: bitmap %d references palette %d of %d",
				sub.BitmapID, entry.PaletteID, len(file.Palettes))
		}
		rows, err := a.Pixels(entry)
		if err != nil {
			return nil, err
		}
		img, err := Bitmap(entry, &file.Palettes[entry.PaletteID], rows)
		if err != nil {
			return nil, err
		}
		x := int(anim.OffsetX) - int(anim.Bounds.Left) + int(sub.X)
		y := int(anim.OffsetY) - int(anim.Bounds.Top) + int(sub.Y)
		target := img.Bounds().Add(image.Pt(x, y))
		draw.Draw(canvas, target, img, image.Point{}, draw.Over)
	}
	return canvas, nil
}

// Animation renders every frame of one animation.
func Animation(file *prt.File, a *atlas.Atlas, animIndex int) ([]*image.RGBA, error) {
	if animIndex < 0 || animIndex >= len(file.Animations) {
		return nil, fmt.Errorf("render: no animation %d", animIndex)
	}
	frames := make([]*image.RGBA, len(file.Animations[animIndex].Frames))
	for i := range frames {
		img, err := Frame(file, a, animIndex, i)
		if err != nil {
			return nil, err
		}
		frames[i] = img
	}
	return frames, nil
}
