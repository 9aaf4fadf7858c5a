package prt

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// reader walks a byte buffer sequentially. All multi-byte reads are
// little endian. Failed reads report the current section and offset so a
// bad file can be located; there is no way to seek backwards.
type reader struct {
	buf     []byte
	pos     int
	section string
}

func newReader(buf []byte, section string) *reader {
	return &reader{buf: buf, section: section}
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

// fits reports whether count entries of at least entrySize bytes each
// can still be present in the buffer. Declared counts pass through this
// before sizing any allocation, so a bogus count is rejected instead of
// exhausting memory.
func (r *reader) fits(count uint32, entrySize int) bool {
	return uint64(count)*uint64(entrySize) <= uint64(r.remaining())
}

func (r *reader) eof(need int) error {
	return fmt.Errorf("%w: %s: need %d bytes at offset %d, have %d",
		ErrUnexpectedEOF, r.section, need, r.pos, r.remaining())
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, r.eof(n)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// read decodes a fixed-size value (typically a packed struct) in one go.
func (r *reader) read(v any) error {
	n := binary.Size(v)
	if n < 0 {
		return fmt.Errorf("prt: %s: unsized value %T", r.section, v)
	}
	b, err := r.bytes(n)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, v)
}

// rest hands back everything after the last recognized section.
func (r *reader) rest() []byte { return r.buf[r.pos:] }

// writer builds a byte buffer. Writes append and never fail, so the
// encoders stay error-free and all validation lives in Encode.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) u8(v uint8) { w.buf.WriteByte(v) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) bytes(b []byte) { w.buf.Write(b) }

func (w *writer) tag(t string) { w.buf.WriteString(t) }

func (w *writer) write(v any) {
	binary.Write(&w.buf, binary.LittleEndian, v)
}

func (w *writer) len() int { return w.buf.Len() }
