package prt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

type sampleBuf struct {
	bytes.Buffer
}

func (b *sampleBuf) u8(v uint8)   { b.WriteByte(v) }
func (b *sampleBuf) u16(v int16)  { binary.Write(b, binary.LittleEndian, v) }
func (b *sampleBuf) u32(v uint32) { binary.Write(b, binary.LittleEndian, v) }

func (b *sampleBuf) palette(seed uint8) {
	b.WriteString("PPAL")
	b.u32(1048)
	b.WriteString("head")
	b.u32(4)
	b.u32(1)
	b.WriteString("data")
	b.u32(1024)
	for i := 0; i < 256; i++ {
		b.u8(uint8(i))       // blue
		b.u8(seed)           // green
		b.u8(uint8(255 - i)) // red
		b.u8(0)
	}
}

// sample builds the container bytes: 2 palettes, 3 bitmaps, 1 animation
// with 2 frames of one subframe each, no appendix, 8 bytes of trailing
// data. Returns the bytes and the offset where the trailing data starts.
func sample() ([]byte, int) {
	var b sampleBuf
	b.WriteString("CPAL")
	b.u32(2)
	b.palette(10)
	b.palette(20)

	b.u32(3)
	for i := uint32(0); i < 3; i++ {
		b.u32(8)      // padded width
		b.u32(i * 64) // data offset
		b.u32(8)      // height
		b.u32(5)      // width
		b.u16(1)      // type
		b.u16(int16(i % 2))
	}

	b.u32(1) // animations
	b.u32(2) // frames
	b.u32(2) // subframes
	b.u32(7) // optional count, meaning unknown

	b.u32(9)                 // unknown1
	b.u32(0)                 // left
	b.u32(0)                 // top
	b.u32(16)                // right
	b.u32(16)                // bottom
	b.u32(8)                 // offset x
	b.u32(8)                 // offset y
	b.u32(3)                 // unknown2
	b.u32(2)                 // frame count
	b.u8(1)                  // frame 0: 1 subframe
	b.u8(5)                  // unknown
	b.u16(0)                 // bitmap
	b.u8(1)                  // unknown
	b.u8(0)                  // subframe id
	b.u16(-2)                // x
	b.u16(3)                 // y
	b.u8(1)                  // frame 1: 1 subframe
	b.u8(0)                  // unknown
	b.u16(2)                 // bitmap
	b.u8(0)                  // unknown
	b.u8(1)                  // subframe id
	b.u16(1)                 // x
	b.u16(-1)                // y
	b.u32(0)                 // appendix count

	extraStart := b.Len()
	b.WriteString("EXTRADAT")
	return b.Bytes(), extraStart
}

func TestDecodeSample(t *testing.T) {
	data, _ := sample()
	file, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(file.Palettes) != 2 || len(file.Bitmaps) != 3 || len(file.Animations) != 1 {
		t.Fatalf("counts: %d palettes, %d bitmaps, %d animations",
			len(file.Palettes), len(file.Bitmaps), len(file.Animations))
	}
	if got := file.Palettes[1][3]; got != (Color{R: 252, G: 20, B: 3}) {
		t.Errorf("palette entry: %+v (red/blue swap broken?)", got)
	}
	if b := file.Bitmaps[2]; b.Width != 5 || b.Height != 8 || b.PaddedWidth != 8 ||
		b.DataOffset != 128 || b.Type != BitmapIndexed8Alt || b.PaletteID != 0 {
		t.Errorf("bitmap 2: %+v", b)
	}
	anim := file.Animations[0]
	if anim.Bounds != (Rect{0, 0, 16, 16}) || anim.OffsetX != 8 || anim.OffsetY != 8 ||
		anim.Unknown1 != 9 || anim.Unknown2 != 3 {
		t.Errorf("animation header: %+v", anim)
	}
	if len(anim.Frames) != 2 {
		t.Fatalf("frames: %d", len(anim.Frames))
	}
	sub := anim.Frames[0].Subframes[0]
	if sub != (Subframe{BitmapID: 0, Unknown: 1, ID: 0, X: -2, Y: 3}) {
		t.Errorf("subframe: %+v", sub)
	}
	if file.OptionalCount != 7 {
		t.Errorf("optional count: %d", file.OptionalCount)
	}
	if string(file.Extra) != "EXTRADAT" {
		t.Errorf("extra data: %q", file.Extra)
	}
}

func TestRoundTrip(t *testing.T) {
	data, _ := sample()
	file, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := Encode(file)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode of re-encoded bytes: %v", err)
	}
	if !reflect.DeepEqual(file, again) {
		t.Fatalf("model changed across a round trip\nfirst:  %+v\nsecond: %+v", file, again)
	}
}

func TestDeterminism(t *testing.T) {
	data, _ := sample()
	a, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two decodes of the same bytes differ")
	}
}

func TestCountsRecomputed(t *testing.T) {
	data, _ := sample()
	file, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	file.Animations[0].Frames = append(file.Animations[0].Frames, Frame{
		Subframes: []Subframe{{BitmapID: 1}},
	})
	out, err := Encode(file)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode after edit: %v", err)
	}
	if got := len(again.Animations[0].Frames); got != 3 {
		t.Errorf("frames after edit: %d", got)
	}
	if again.OptionalCount != 7 {
		t.Errorf("optional count not preserved: %d", again.OptionalCount)
	}
}

func TestTruncation(t *testing.T) {
	data, extraStart := sample()
	for i := 0; i < extraStart; i++ {
		if _, err := Decode(data[:i]); err == nil {
			t.Fatalf("truncation at %d decoded without error", i)
		}
	}
	// cutting inside the trailing data is not an error, just shorter extra
	file, err := Decode(data[:extraStart+3])
	if err != nil {
		t.Fatalf("Decode with short extra: %v", err)
	}
	if len(file.Extra) != 3 {
		t.Errorf("extra length: %d", len(file.Extra))
	}
}

func TestTruncatedPaletteKind(t *testing.T) {
	data, _ := sample()
	// cut in the middle of the first palette's data section
	_, err := Decode(data[:8+16+500])
	if !errors.Is(err, ErrTruncatedPalette) {
		t.Fatalf("want ErrTruncatedPalette, got %v", err)
	}
}

func TestBadMagic(t *testing.T) {
	data, _ := sample()
	bad := bytes.Clone(data)
	bad[0] = 'X'
	if _, err := Decode(bad); !errors.Is(err, ErrInvalidContainer) {
		t.Fatalf("want ErrInvalidContainer, got %v", err)
	}
}

func TestRIFFPaletteRejected(t *testing.T) {
	var b sampleBuf
	b.WriteString("CPAL")
	b.u32(1)
	b.WriteString("RIFF")
	b.u32(2048)
	if _, err := Decode(b.Bytes()); !errors.Is(err, ErrInvalidContainer) {
		t.Fatalf("want ErrInvalidContainer, got %v", err)
	}
}

func TestAnimationCountMismatch(t *testing.T) {
	data, extraStart := sample()
	bad := bytes.Clone(data[:extraStart])
	// frame total lives right after the animation count
	animBlock := len(bad) - (16 + 36 + 2 + 8 + 2 + 8 + 4)
	binary.LittleEndian.PutUint32(bad[animBlock+4:], 5)
	if _, err := Decode(bad); !errors.Is(err, ErrMalformedAnimation) {
		t.Fatalf("want ErrMalformedAnimation, got %v", err)
	}
}

func TestDanglingPaletteRef(t *testing.T) {
	data, _ := sample()
	file, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	file.Bitmaps[0].PaletteID = 5
	out, err := Encode(file)
	if !errors.Is(err, ErrInconsistentModel) {
		t.Fatalf("want ErrInconsistentModel, got %v", err)
	}
	if out != nil {
		t.Fatal("bytes returned despite invalid model")
	}
}

func TestDanglingBitmapRef(t *testing.T) {
	data, _ := sample()
	file, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	file.Animations[0].Frames[1].Subframes[0].BitmapID = 9
	if _, err := Encode(file); !errors.Is(err, ErrInconsistentModel) {
		t.Fatalf("want ErrInconsistentModel, got %v", err)
	}
}

func TestOptionalPairsAndAppendix(t *testing.T) {
	file := &File{
		Palettes: make([]Palette, 1),
		Bitmaps:  []Bitmap{{Type: BitmapType(99), Width: 4, Height: 4, PaddedWidth: 4}},
		Animations: []Animation{{
			Frames: []Frame{{
				Unknown:   0x11,
				Optional1: &[2]uint8{0xaa, 0xbb},
				Optional2: &[2]uint8{0xcc, 0xdd},
				Subframes: []Subframe{{BitmapID: 0, X: -7, Y: 7}},
			}},
			Appendix: [][4]uint32{{1, 2, 3, 4}, {5, 6, 7, 8}},
		}},
		OptionalCount: 123,
		Extra:         []byte{0xde, 0xad},
	}
	out, err := Encode(file)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	first, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if first.Bitmaps[0].Type != BitmapType(99) {
		t.Errorf("unrecognized type tag not preserved: %d", first.Bitmaps[0].Type)
	}
	frame := first.Animations[0].Frames[0]
	if frame.Optional1 == nil || *frame.Optional1 != [2]uint8{0xaa, 0xbb} {
		t.Errorf("optional1: %v", frame.Optional1)
	}
	if frame.Optional2 == nil || *frame.Optional2 != [2]uint8{0xcc, 0xdd} {
		t.Errorf("optional2: %v", frame.Optional2)
	}
	if frame.Unknown != 0x11 {
		t.Errorf("frame unknown: %#x", frame.Unknown)
	}
	if len(first.Animations[0].Appendix) != 2 || first.Animations[0].Appendix[1] != [4]uint32{5, 6, 7, 8} {
		t.Errorf("appendix: %v", first.Animations[0].Appendix)
	}

	// a second pass must be stable field for field
	out2, err := Encode(first)
	if err != nil {
		t.Fatalf("Encode again: %v", err)
	}
	second, err := Decode(out2)
	if err != nil {
		t.Fatalf("Decode again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("round trip not stable")
	}
}

func TestHugeDeclaredCounts(t *testing.T) {
	// a count can claim more entries than the buffer could ever hold;
	// decoding must fail with the section's error, not try the allocation
	emptySections := func(b *sampleBuf) {
		b.WriteString("CPAL")
		b.u32(0) // no palettes
		b.u32(0) // no bitmaps
	}
	animHeader := func(b *sampleBuf, frameCount uint32) {
		for i := 0; i < 8; i++ {
			b.u32(0) // unknown1, bounds, offsets, unknown2
		}
		b.u32(frameCount)
	}
	cases := []struct {
		name  string
		build func(b *sampleBuf)
		want  error
	}{
		{"palettes", func(b *sampleBuf) {
			b.WriteString("CPAL")
			b.u32(0xFFFFFFFF)
		}, ErrTruncatedPalette},
		{"bitmaps", func(b *sampleBuf) {
			b.WriteString("CPAL")
			b.u32(0)
			b.u32(0xFFFFFFFF)
		}, ErrUnexpectedEOF},
		{"animations", func(b *sampleBuf) {
			emptySections(b)
			b.u32(0xFFFFFFFF)
			b.u32(0)
			b.u32(0)
			b.u32(0)
		}, ErrMalformedAnimation},
		{"frames", func(b *sampleBuf) {
			emptySections(b)
			b.u32(1)
			b.u32(0)
			b.u32(0)
			b.u32(0)
			animHeader(b, 0xFFFFFFFF)
			b.u32(0) // never-reached appendix count
		}, ErrMalformedAnimation},
		{"appendix", func(b *sampleBuf) {
			emptySections(b)
			b.u32(1)
			b.u32(0)
			b.u32(0)
			b.u32(0)
			animHeader(b, 0)
			b.u32(0xFFFFFFFF)
		}, ErrMalformedAnimation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var b sampleBuf
			tc.build(&b)
			file, err := Decode(b.Bytes())
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if file != nil {
				t.Fatal("model returned despite bogus count")
			}
		})
	}
}

func TestTooManySubframes(t *testing.T) {
	file := &File{
		Palettes: make([]Palette, 1),
		Bitmaps:  []Bitmap{{}},
		Animations: []Animation{{
			Frames: []Frame{{Subframes: make([]Subframe, 128)}},
		}},
	}
	if _, err := Encode(file); !errors.Is(err, ErrInconsistentModel) {
		t.Fatalf("want ErrInconsistentModel, got %v", err)
	}
}
