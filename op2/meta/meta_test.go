package meta

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/op2tools/op2art/op2/prt"
)

func testFile() *prt.File {
	return &prt.File{
		Palettes: make([]prt.Palette, 1),
		Bitmaps:  []prt.Bitmap{{Width: 8, Height: 8, PaddedWidth: 8}},
		Animations: []prt.Animation{{
			Unknown1: 1,
			Bounds:   prt.Rect{Left: 0, Top: 0, Right: 8, Bottom: 8},
			OffsetX:  4,
			OffsetY:  4,
			Unknown2: 2,
			Frames: []prt.Frame{
				{
					Unknown:   3,
					Optional1: &[2]uint8{0x01, 0x02},
					Subframes: []prt.Subframe{{BitmapID: 0, ID: 1, X: -1, Y: 1}},
				},
				{Subframes: []prt.Subframe{}},
			},
			Appendix: [][4]uint32{{9, 8, 7, 6}},
		}},
		OptionalCount: 42,
	}
}

func TestJSONRoundTrip(t *testing.T) {
	file := testFile()

	var buf bytes.Buffer
	if err := Write(&buf, file); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `"optional1": "0102"`) {
		t.Errorf("optional pair not hex encoded:\n%s", buf.String())
	}

	doc, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var got prt.File
	got.Palettes = file.Palettes
	got.Bitmaps = file.Bitmaps
	if err := doc.Apply(&got); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.OptionalCount != 42 {
		t.Errorf("optional count: %d", got.OptionalCount)
	}
	if !reflect.DeepEqual(got.Animations, file.Animations) {
		t.Fatalf("animations changed:\nwant %+v\ngot  %+v", file.Animations, got.Animations)
	}
}

func TestApplyRejectsBadOptional(t *testing.T) {
	doc := &Document{Animations: []Animation{{
		Frames: []Frame{{Optional1: "zz"}},
	}}}
	var file prt.File
	if err := doc.Apply(&file); err == nil {
		t.Fatal("bad hex accepted")
	}
	doc.Animations[0].Frames[0].Optional1 = "010203"
	if err := doc.Apply(&file); err == nil {
		t.Fatal("wrong length accepted")
	}
}

func TestReadRejectsUnknownFields(t *testing.T) {
	if _, err := Read(strings.NewReader(`{"bogus": 1}`)); err == nil {
		t.Fatal("unknown field accepted")
	}
}
