package prt

import "fmt"

// The animation block opens with four words: animation, frame and
// subframe totals plus one count of unknown meaning. The totals are
// cross-checked against what actually decodes; the unknown count is kept
// verbatim on the File.
type animBlockHeader struct {
	Animations    uint32
	Frames        uint32
	Subframes     uint32
	OptionalCount uint32
}

type animHeader struct {
	Unknown1   uint32
	Bounds     Rect
	OffsetX    uint32
	OffsetY    uint32
	Unknown2   uint32
	FrameCount uint32
}

type subframeRecord struct {
	BitmapID int16
	Unknown  uint8
	ID       uint8
	X, Y     int16
}

// optionalFlag marks a frame count/unknown byte that is followed by a
// two-byte extension of unknown purpose.
const optionalFlag = 0x80

// Lower bounds on the bytes one entry takes on disk, used to reject
// declared counts that cannot fit before allocating for them.
const (
	minAnimationSize  = 40 // nine header words plus an empty appendix
	minFrameSize      = 2
	appendixEntrySize = 16
)

func decodeAnimations(r *reader) ([]Animation, uint32, error) {
	var hdr animBlockHeader
	if err := r.read(&hdr); err != nil {
		return nil, 0, err
	}
	if !r.fits(hdr.Animations, minAnimationSize) {
		return nil, 0, fmt.Errorf("%w: %d animations declared, %d bytes left",
			ErrMalformedAnimation, hdr.Animations, r.remaining())
	}
	var frameTotal, subframeTotal uint32
	animations := make([]Animation, hdr.Animations)
	for i := range animations {
		if err := decodeAnimation(r, &animations[i], &frameTotal, &subframeTotal); err != nil {
			return nil, 0, fmt.Errorf("%w: animation %d: %v", ErrMalformedAnimation, i, err)
		}
	}
	if frameTotal != hdr.Frames {
		return nil, 0, fmt.Errorf("%w: decoded %d frames, header declares %d",
			ErrMalformedAnimation, frameTotal, hdr.Frames)
	}
	if subframeTotal != hdr.Subframes {
		return nil, 0, fmt.Errorf("%w: decoded %d subframes, header declares %d",
			ErrMalformedAnimation, subframeTotal, hdr.Subframes)
	}
	return animations, hdr.OptionalCount, nil
}

func decodeAnimation(r *reader, anim *Animation, frameTotal, subframeTotal *uint32) error {
	var hdr animHeader
	if err := r.read(&hdr); err != nil {
		return err
	}
	anim.Unknown1 = hdr.Unknown1
	anim.Bounds = hdr.Bounds
	anim.OffsetX = hdr.OffsetX
	anim.OffsetY = hdr.OffsetY
	anim.Unknown2 = hdr.Unknown2

	if !r.fits(hdr.FrameCount, minFrameSize) {
		return fmt.Errorf("%d frames declared, %d bytes left", hdr.FrameCount, r.remaining())
	}
	anim.Frames = make([]Frame, hdr.FrameCount)
	for i := range anim.Frames {
		if err := decodeFrame(r, &anim.Frames[i]); err != nil {
			return fmt.Errorf("frame %d: %v", i, err)
		}
		*frameTotal++
		*subframeTotal += uint32(len(anim.Frames[i].Subframes))
	}

	appendixCount, err := r.u32()
	if err != nil {
		return err
	}
	if !r.fits(appendixCount, appendixEntrySize) {
		return fmt.Errorf("%d appendix entries declared, %d bytes left", appendixCount, r.remaining())
	}
	anim.Appendix = make([][4]uint32, appendixCount)
	for i := range anim.Appendix {
		if err := r.read(&anim.Appendix[i]); err != nil {
			return fmt.Errorf("appendix %d: %v", i, err)
		}
	}
	return nil
}

func decodeFrame(r *reader, frame *Frame) error {
	count, err := r.u8()
	if err != nil {
		return err
	}
	unknown, err := r.u8()
	if err != nil {
		return err
	}
	if count&optionalFlag != 0 {
		count &^= optionalFlag
		if frame.Optional1, err = readOptional(r); err != nil {
			return err
		}
	}
	if unknown&optionalFlag != 0 {
		unknown &^= optionalFlag
		if frame.Optional2, err = readOptional(r); err != nil {
			return err
		}
	}
	frame.Unknown = unknown

	frame.Subframes = make([]Subframe, count)
	for i := range frame.Subframes {
		var rec subframeRecord
		if err := r.read(&rec); err != nil {
			return fmt.Errorf("subframe %d: %v", i, err)
		}
		frame.Subframes[i] = Subframe{
			BitmapID: rec.BitmapID,
			Unknown:  rec.Unknown,
			ID:       rec.ID,
			X:        rec.X,
			Y:        rec.Y,
		}
	}
	return nil
}

func readOptional(r *reader) (*[2]uint8, error) {
	b, err := r.bytes(2)
	if err != nil {
		return nil, err
	}
	return &[2]uint8{b[0], b[1]}, nil
}

func encodeAnimations(w *writer, animations []Animation, optionalCount uint32) {
	var frameTotal, subframeTotal uint32
	for _, anim := range animations {
		frameTotal += uint32(len(anim.Frames))
		for _, frame := range anim.Frames {
			subframeTotal += uint32(len(frame.Subframes))
		}
	}
	w.write(animBlockHeader{
		Animations:    uint32(len(animations)),
		Frames:        frameTotal,
		Subframes:     subframeTotal,
		OptionalCount: optionalCount,
	})
	for _, anim := range animations {
		encodeAnimation(w, anim)
	}
}

func encodeAnimation(w *writer, anim Animation) {
	w.write(animHeader{
		Unknown1:   anim.Unknown1,
		Bounds:     anim.Bounds,
		OffsetX:    anim.OffsetX,
		OffsetY:    anim.OffsetY,
		Unknown2:   anim.Unknown2,
		FrameCount: uint32(len(anim.Frames)),
	})
	for _, frame := range anim.Frames {
		count := uint8(len(frame.Subframes))
		unknown := frame.Unknown
		if frame.Optional1 != nil {
			count |= optionalFlag
		}
		if frame.Optional2 != nil {
			unknown |= optionalFlag
		}
		w.u8(count)
		w.u8(unknown)
		if frame.Optional1 != nil {
			w.bytes(frame.Optional1[:])
		}
		if frame.Optional2 != nil {
			w.bytes(frame.Optional2[:])
		}
		for _, sub := range frame.Subframes {
			w.write(subframeRecord{
				BitmapID: sub.BitmapID,
				Unknown:  sub.Unknown,
				ID:       sub.ID,
				X:        sub.X,
				Y:        sub.Y,
			})
		}
	}
	w.u32(uint32(len(anim.Appendix)))
	for _, entry := range anim.Appendix {
		w.write(entry)
	}
}
