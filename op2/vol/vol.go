// Package vol reads Outpost 2 VOL archives, the containers the game
// ships its PRT, BMP and map assets in. The archive is exposed as an
// fs.FS; entries are flat, there are no directories. Only uncompressed
// entries can be opened, which is how the game's art volumes are stored.
package vol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"time"

	"golang.org/x/text/encoding/charmap"
)

var (
	ErrNotVolume  = errors.New("vol: not a VOL archive")
	ErrCompressed = errors.New("vol: compressed entry not supported")
)

// compression tags used by the index; only CompressionNone is readable
const (
	CompressionNone uint16 = 0
	CompressionRLE  uint16 = 1
	CompressionLZ   uint16 = 2
	CompressionLZH  uint16 = 3
)

var (
	tagVOL  = [4]byte{'V', 'O', 'L', ' '}
	tagVOLH = [4]byte{'v', 'o', 'l', 'h'}
	tagVOLS = [4]byte{'v', 'o', 'l', 's'}
	tagVOLI = [4]byte{'v', 'o', 'l', 'i'}
	tagVBLK = [4]byte{'V', 'B', 'L', 'K'}
)

type sectionHeader struct {
	Tag  [4]byte
	Size uint32
}

type indexEntry struct {
	NameOffset  uint32
	DataOffset  uint32
	Size        int32
	Compression uint16
}

const indexEntrySize = 14

type entry struct {
	name   string
	header indexEntry
}

func (e *entry) Name() string               { return e.name }
func (e *entry) IsDir() bool                { return false }
func (e *entry) Type() fs.FileMode          { return 0 }
func (e *entry) Mode() fs.FileMode          { return os.ModePerm }
func (e *entry) Size() int64                { return int64(e.header.Size) }
func (e *entry) ModTime() time.Time         { return time.Time{} }
func (e *entry) Sys() any                   { return nil }
func (e *entry) Info() (fs.FileInfo, error) { return e, nil }

type ArchiveReader interface {
	io.Reader
	io.ReaderAt
}

type Container struct {
	r       ArchiveReader
	entries []*entry
	m       map[string]*entry
}

func NewContainer(r ArchiveReader) (*Container, error) {
	container := &Container{r: r, m: make(map[string]*entry)}
	if err := container.readIndex(); err != nil {
		return nil, err
	}
	return container, nil
}

func (container *Container) readIndex() error {
	var hdr sectionHeader
	if err := binary.Read(container.r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: %v", ErrNotVolume, err)
	}
	if hdr.Tag != tagVOL {
		return fmt.Errorf("%w: signature %q", ErrNotVolume, hdr.Tag[:])
	}
	if err := binary.Read(container.r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: %v", ErrNotVolume, err)
	}
	if hdr.Tag != tagVOLH {
		return fmt.Errorf("%w: missing volh section", ErrNotVolume)
	}
	if _, err := io.CopyN(io.Discard, container.r, int64(hdr.Size)); err != nil {
		return err
	}

	// string table: padded section length, then the used length, then
	// null-terminated filenames
	if err := binary.Read(container.r, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	if hdr.Tag != tagVOLS {
		return fmt.Errorf("%w: missing vols section", ErrNotVolume)
	}
	var used uint32
	if err := binary.Read(container.r, binary.LittleEndian, &used); err != nil {
		return err
	}
	if used > hdr.Size {
		return fmt.Errorf("%w: string table uses %d of %d bytes", ErrNotVolume, used, hdr.Size)
	}
	names := make([]byte, used)
	if _, err := io.ReadFull(container.r, names); err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, container.r, int64(hdr.Size-4-used)); err != nil {
		return err
	}

	if err := binary.Read(container.r, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	if hdr.Tag != tagVOLI {
		return fmt.Errorf("%w: missing voli section", ErrNotVolume)
	}
	index := make([]indexEntry, hdr.Size/indexEntrySize)
	if err := binary.Read(container.r, binary.LittleEndian, &index); err != nil {
		return err
	}

	for _, v := range index {
		if v.NameOffset >= used {
			continue
		}
		name := decodeName(names[v.NameOffset:])
		if name == "" {
			continue
		}
		e := &entry{name: name, header: v}
		container.entries = append(container.entries, e)
		container.m[name] = e
	}
	return nil
}

// filenames are stored in the DOS codepage the game was built with
func decodeName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	decoded, err := charmap.CodePage850.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}

type openedFile struct {
	*entry
	sr *io.SectionReader
}

func (f *openedFile) Read(p []byte) (int, error) { return f.sr.Read(p) }
func (f *openedFile) Close() error               { return nil }
func (f *openedFile) Stat() (fs.FileInfo, error) { return f.entry, nil }

func (container *Container) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &rootDir{container: container}, nil
	}
	file, ok := container.m[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if file.header.Compression != CompressionNone {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrCompressed}
	}

	// each data block is fronted by a VBLK header
	var blk sectionHeader
	blkHeader := make([]byte, 8)
	if _, err := container.r.ReadAt(blkHeader, int64(file.header.DataOffset)); err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if err := binary.Read(bytes.NewReader(blkHeader), binary.LittleEndian, &blk); err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if blk.Tag != tagVBLK {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrNotVolume}
	}
	sr := io.NewSectionReader(container.r, int64(file.header.DataOffset)+8, int64(file.header.Size))
	return &openedFile{entry: file, sr: sr}, nil
}

// Entries lists the archive contents in index order.
func (container *Container) Entries() []fs.DirEntry {
	out := make([]fs.DirEntry, len(container.entries))
	for i, e := range container.entries {
		out[i] = e
	}
	return out
}

type rootDir struct {
	container *Container
	pos       int
}

func (d *rootDir) Name() string               { return "." }
func (d *rootDir) IsDir() bool                { return true }
func (d *rootDir) Type() fs.FileMode          { return fs.ModeDir }
func (d *rootDir) Mode() fs.FileMode          { return fs.ModeDir }
func (d *rootDir) Size() int64                { return 0 }
func (d *rootDir) ModTime() time.Time         { return time.Time{} }
func (d *rootDir) Sys() any                   { return nil }
func (d *rootDir) Info() (fs.FileInfo, error) { return d, nil }
func (d *rootDir) Stat() (fs.FileInfo, error) { return d, nil }
func (d *rootDir) Close() error               { return nil }

func (d *rootDir) Read(p []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}

func (d *rootDir) ReadDir(n int) ([]fs.DirEntry, error) {
	entries := d.container.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	if d.pos >= len(entries) {
		if n <= 0 {
			return nil, nil
		}
		return nil, io.EOF
	}
	start := d.pos
	if n <= 0 {
		d.pos = len(entries)
	} else {
		d.pos += n
		if d.pos > len(entries) {
			d.pos = len(entries)
		}
	}
	return entries[start:d.pos], nil
}
