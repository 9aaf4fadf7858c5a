// Package meta renders the animation metadata of a PRT container to an
// editable JSON document and parses it back. Fields of unknown meaning
// are carried through explicitly (optional byte pairs hex-encoded) so an
// untouched document re-encodes to the same metadata.
package meta

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/op2tools/op2art/op2/prt"
)

type Document struct {
	// OptionalCount mirrors the count of unknown meaning from the
	// animation block header; edit at your own risk.
	OptionalCount uint32      `json:"optionalCount"`
	Animations    []Animation `json:"animations"`
}

type Animation struct {
	Unknown1 uint32      `json:"unknown1"`
	Bounds   Rect        `json:"bounds"`
	OffsetX  uint32      `json:"offsetX"`
	OffsetY  uint32      `json:"offsetY"`
	Unknown2 uint32      `json:"unknown2"`
	Frames   []Frame     `json:"frames"`
	Appendix [][4]uint32 `json:"appendix"`
}

type Rect struct {
	Left   uint32 `json:"left"`
	Top    uint32 `json:"top"`
	Right  uint32 `json:"right"`
	Bottom uint32 `json:"bottom"`
}

type Frame struct {
	Unknown   uint8      `json:"unknown"`
	Optional1 string     `json:"optional1,omitempty"` // hex, 2 bytes
	Optional2 string     `json:"optional2,omitempty"` // hex, 2 bytes
	Subframes []Subframe `json:"subframes"`
}

type Subframe struct {
	BitmapID int16 `json:"bitmapId"`
	Unknown  uint8 `json:"unknown"`
	ID       uint8 `json:"id"`
	X        int16 `json:"x"`
	Y        int16 `json:"y"`
}

func FromFile(file *prt.File) *Document {
	doc := &Document{
		OptionalCount: file.OptionalCount,
		Animations:    make([]Animation, len(file.Animations)),
	}
	for i, src := range file.Animations {
		anim := Animation{
			Unknown1: src.Unknown1,
			Bounds:   Rect{src.Bounds.Left, src.Bounds.Top, src.Bounds.Right, src.Bounds.Bottom},
			OffsetX:  src.OffsetX,
			OffsetY:  src.OffsetY,
			Unknown2: src.Unknown2,
			Frames:   make([]Frame, len(src.Frames)),
			Appendix: src.Appendix,
		}
		for j, f := range src.Frames {
			frame := Frame{
				Unknown:   f.Unknown,
				Subframes: make([]Subframe, len(f.Subframes)),
			}
			if f.Optional1 != nil {
				frame.Optional1 = hex.EncodeToString(f.Optional1[:])
			}
			if f.Optional2 != nil {
				frame.Optional2 = hex.EncodeToString(f.Optional2[:])
			}
			for k, s := range f.Subframes {
				frame.Subframes[k] = Subframe{
					BitmapID: s.BitmapID, Unknown: s.Unknown, ID: s.ID, X: s.X, Y: s.Y,
				}
			}
			anim.Frames[j] = frame
		}
		doc.Animations[i] = anim
	}
	return doc
}

// Apply replaces the animation metadata of file with the document's.
// Palettes, bitmaps and trailing data are left alone.
func (doc *Document) Apply(file *prt.File) error {
	animations := make([]prt.Animation, len(doc.Animations))
	for i, src := range doc.Animations {
		anim := prt.Animation{
			Unknown1: src.Unknown1,
			Bounds: prt.Rect{
				Left: src.Bounds.Left, Top: src.Bounds.Top,
				Right: src.Bounds.Right, Bottom: src.Bounds.Bottom,
			},
			OffsetX:  src.OffsetX,
			OffsetY:  src.OffsetY,
			Unknown2: src.Unknown2,
			Frames:   make([]prt.Frame, len(src.Frames)),
			Appendix: src.Appendix,
		}
		for j, f := range src.Frames {
			frame := prt.Frame{
				Unknown:   f.Unknown,
				Subframes: make([]prt.Subframe, len(f.Subframes)),
			}
			var err error
			if frame.Optional1, err = decodeOptional(f.Optional1); err != nil {
				return fmt.Errorf("meta: animation %d frame %d optional1: %w", i, j, err)
			}
			if frame.Optional2, err = decodeOptional(f.Optional2); err != nil {
				return fmt.Errorf("meta: animation %d frame %d optional2: %w", i, j, err)
			}
			for k, s := range f.Subframes {
				frame.Subframes[k] = prt.Subframe{
					BitmapID: s.BitmapID, Unknown: s.Unknown, ID: s.ID, X: s.X, Y: s.Y,
				}
			}
			anim.Frames[j] = frame
		}
		animations[i] = anim
	}
	file.Animations = animations
	file.OptionalCount = doc.OptionalCount
	return nil
}

func decodeOptional(s string) (*[2]uint8, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != 2 {
		return nil, fmt.Errorf("%d bytes, want 2", len(b))
	}
	return &[2]uint8{b[0], b[1]}, nil
}

func Write(w io.Writer, file *prt.File) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromFile(file))
}

func Read(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}
	return &doc, nil
}
