package atlas

import (
	"bytes"
	"errors"
	"testing"

	"github.com/op2tools/op2art/op2/prt"
)

func TestBuildAndReadBack(t *testing.T) {
	a := prt.Bitmap{Width: 5, Height: 2}
	b := prt.Bitmap{Width: 4, Height: 1}
	rowsA := []byte{1, 2, 3, 4, 5, 0, 0, 0, 6, 7, 8, 9, 10, 0, 0, 0}
	rowsB := []byte{20, 21, 22, 23}

	var bld Builder
	if err := bld.Add(&a, rowsA); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := bld.Add(&b, rowsB); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.PaddedWidth != 8 || a.DataOffset != 0 {
		t.Errorf("first entry: %+v", a)
	}
	if b.PaddedWidth != 4 || b.DataOffset != 16 {
		t.Errorf("second entry: %+v", b)
	}

	atlas, err := Open(bld.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := atlas.Pixels(a)
	if err != nil {
		t.Fatalf("Pixels: %v", err)
	}
	if !bytes.Equal(got, rowsA) {
		t.Errorf("rows changed: %v", got)
	}
	got, err = atlas.Pixels(b)
	if err != nil {
		t.Fatalf("Pixels: %v", err)
	}
	if !bytes.Equal(got, rowsB) {
		t.Errorf("rows changed: %v", got)
	}
}

func TestAddRejectsBadStride(t *testing.T) {
	entry := prt.Bitmap{Width: 5, Height: 2}
	var bld Builder
	if err := bld.Add(&entry, make([]byte, 10)); err == nil {
		t.Fatal("unpadded rows accepted")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	if _, err := Open([]byte("not a bitmap")); !errors.Is(err, ErrNotBMP) {
		t.Fatalf("want ErrNotBMP, got %v", err)
	}
}

func TestPixelsOutOfRange(t *testing.T) {
	var bld Builder
	entry := prt.Bitmap{Width: 4, Height: 1}
	if err := bld.Add(&entry, make([]byte, 4)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	atlas, err := Open(bld.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	bad := prt.Bitmap{Width: 4, Height: 100, PaddedWidth: 4, DataOffset: 0}
	if _, err := atlas.Pixels(bad); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange, got %v", err)
	}
}

func TestPixelsRejectsOverflowingGeometry(t *testing.T) {
	var bld Builder
	entry := prt.Bitmap{Width: 4, Height: 1}
	if err := bld.Add(&entry, make([]byte, 4)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	atlas, err := Open(bld.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// a span this large wraps a signed int; it must be rejected, not
	// slip past the bounds check and panic on the slice expression
	huge := prt.Bitmap{PaddedWidth: 0xFFFFFFFF, Height: 0xFFFFFFFF}
	if _, err := atlas.Pixels(huge); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange, got %v", err)
	}
	offset := prt.Bitmap{PaddedWidth: 4, Height: 1, DataOffset: 0xFFFFFFFF}
	if _, err := atlas.Pixels(offset); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange, got %v", err)
	}
}
