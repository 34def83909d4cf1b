// Package wad reads WAD2 lump containers. A wad is small enough to be held in
// memory whole; lumps are handed out as sub-slices of that buffer, still
// compressed if the lump says so.
package wad

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jchantrell/quakefs/internal/binfmt"
)

// On-disk layout, integers little-endian i32.
//
//	Header:
//	Offset  Size  Description
//	------  ----  ---------------------------
//	  0      4    'W' 'A' 'D' '2'
//	  4      4    lump count
//	  8      4    lump table offset
//
//	Lump table entry:
//	  0      4    file position
//	  4      4    size on disk
//	  8      4    uncompressed size
//	 12      1    type
//	 13      1    compression
//	 14      2    padding
//	 16     16    name, NUL padded
const (
	HeaderSize   = 4 + 4 + 4
	LumpInfoSize = 4 + 4 + 4 + 1 + 1 + 2 + 16
	NameSize     = 16
)

// Magic identifies a WAD2 file.
var Magic = []byte("WAD2")

// ErrLumpNotFound is returned when no lump has the requested name or index.
var ErrLumpNotFound = errors.New("lump not found")

// Lump is the metadata of one lump.
type Lump struct {
	Name     string
	FilePos  uint64
	DiskSize uint64
	// Size is the uncompressed size; equal to DiskSize for uncompressed lumps.
	Size        uint64
	Type        LumpType
	Compression Compression
}

// Wad is a WAD2 file loaded into memory.
type Wad struct {
	data  []byte
	lumps []Lump
}

// Loader loads whole files by name. *filesys.FileSys satisfies it.
type Loader interface {
	LoadFile(name string) ([]byte, bool, error)
}

// Load reads and parses the wad at path.
func Load(path string) (*Wad, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wad %s: %w", path, err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading wad %s: %w", path, err)
	}
	slog.Debug("Loaded wad", "path", path, "lumps", len(w.lumps))
	return w, nil
}

// LoadFrom loads the named wad through l, typically the search path.
func LoadFrom(l Loader, name string) (*Wad, error) {
	data, found, err := l.LoadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading wad %s: %w", name, err)
	}
	if !found {
		return nil, fmt.Errorf("no such file %s: %w", name, os.ErrNotExist)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading wad %s: %w", name, err)
	}
	slog.Debug("Loaded wad", "name", name, "lumps", len(w.lumps))
	return w, nil
}

// Parse parses a wad held in data. The Wad keeps data; callers must not
// modify it afterwards.
func Parse(data []byte) (*Wad, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("wad header too short (%d bytes): %w", len(data), binfmt.ErrMalformedArchive)
	}
	if !bytes.Equal(data[:4], Magic) {
		return nil, fmt.Errorf("no WAD2 id, magic %q: %w", data[:4], binfmt.ErrMalformedArchive)
	}

	count, err := binfmt.I32(data[4:8], "lump count")
	if err != nil {
		return nil, err
	}
	tableOffset, err := binfmt.I32(data[8:12], "lump table offset")
	if err != nil {
		return nil, err
	}

	// Both values fit in 31 bits, so the product cannot overflow.
	tableEnd := tableOffset + count*LumpInfoSize
	if tableEnd > uint64(len(data)) {
		return nil, fmt.Errorf("lump table [%d, %d) exceeds file size %d: %w",
			tableOffset, tableEnd, len(data), binfmt.ErrMalformedArchive)
	}

	lumps := make([]Lump, count)
	for i := range lumps {
		start := tableOffset + uint64(i)*LumpInfoSize
		l, err := parseLump(data[start : start+LumpInfoSize])
		if err != nil {
			return nil, fmt.Errorf("lump %d: %w", i, err)
		}
		lumps[i] = l
	}

	return &Wad{data: data, lumps: lumps}, nil
}

func parseLump(b []byte) (Lump, error) {
	name, err := binfmt.CString(b[16:32])
	if err != nil {
		return Lump{}, err
	}
	filePos, err := binfmt.I32(b[0:4], "file position")
	if err != nil {
		return Lump{}, fmt.Errorf("%s: %w", name, err)
	}
	diskSize, err := binfmt.I32(b[4:8], "disk size")
	if err != nil {
		return Lump{}, fmt.Errorf("%s: %w", name, err)
	}
	size, err := binfmt.I32(b[8:12], "size")
	if err != nil {
		return Lump{}, fmt.Errorf("%s: %w", name, err)
	}
	typ, err := parseLumpType(b[12])
	if err != nil {
		return Lump{}, fmt.Errorf("%s: %w", name, err)
	}
	comp, err := parseCompression(b[13])
	if err != nil {
		return Lump{}, fmt.Errorf("%s: %w", name, err)
	}

	return Lump{
		Name:        name,
		FilePos:     filePos,
		DiskSize:    diskSize,
		Size:        size,
		Type:        typ,
		Compression: comp,
	}, nil
}

// Lumps returns the lump table in on-disk order.
func (w *Wad) Lumps() []Lump {
	return w.lumps
}

// LumpInfo returns the first lump whose name matches, ignoring ASCII case.
// Non-ASCII bytes must match exactly.
func (w *Wad) LumpInfo(name string) (Lump, error) {
	for _, l := range w.lumps {
		if equalFoldASCII(l.Name, name) {
			return l, nil
		}
	}
	return Lump{}, fmt.Errorf("no lump named %s: %w", name, ErrLumpNotFound)
}

// DataForName returns the raw bytes of the named lump. The bytes are not
// decompressed.
func (w *Wad) DataForName(name string) ([]byte, error) {
	l, err := w.LumpInfo(name)
	if err != nil {
		return nil, err
	}
	return w.lumpData(l)
}

// DataForIndex returns the raw bytes of the i'th lump. The bytes are not
// decompressed.
func (w *Wad) DataForIndex(i int) ([]byte, error) {
	if i < 0 || i >= len(w.lumps) {
		return nil, fmt.Errorf("bad lump number %d (have %d): %w", i, len(w.lumps), ErrLumpNotFound)
	}
	return w.lumpData(w.lumps[i])
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func (w *Wad) lumpData(l Lump) ([]byte, error) {
	end := l.FilePos + l.DiskSize
	if end > uint64(len(w.data)) {
		return nil, fmt.Errorf("lump %s [%d, %d) exceeds wad size %d: %w",
			l.Name, l.FilePos, end, len(w.data), binfmt.ErrMalformedArchive)
	}
	return w.data[l.FilePos:end], nil
}
