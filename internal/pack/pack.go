// Package pack reads PACK archives (.pak files): a 12-byte header pointing at
// a directory of 64-byte name/offset/size records, followed by the raw bytes
// of every packed file.
package pack

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/jchantrell/quakefs/internal/binfmt"
	"github.com/jchantrell/quakefs/internal/reader"
)

// On-disk layout, all integers little-endian i32.
//
//	Header:
//	Offset  Size  Description
//	------  ----  ---------------------------
//	  0      4    'P' 'A' 'C' 'K'
//	  4      4    directory offset
//	  8      4    directory length in bytes
//
//	Directory entry:
//	  0     56    name, NUL padded
//	 56      4    file offset
//	 60      4    file size
const (
	HeaderSize = 4 + 4 + 4
	EntrySize  = 56 + 4 + 4
	NameSize   = 56

	// MaxEntries is the largest directory a pack may declare.
	MaxEntries = 2048
)

// Magic identifies a PACK archive.
var Magic = []byte("PACK")

// Entry describes one file stored inside a pack.
type Entry struct {
	Name   string
	Offset uint64
	Size   uint64
}

// Pack is an opened .pak file. It keeps a single read handle open for its
// lifetime; the handle's cursor is shared, so at most one Reader obtained
// from Open may be live at a time. Open blocks until the previous reader is
// closed.
type Pack struct {
	path    string
	file    *os.File
	handle  *bufferedFile
	entries []Entry
	crc     uint16

	// held from Open until the returned reader is closed
	mu sync.Mutex
}

// Load opens and parses the pack at path. If there is no file at path, Load
// returns found == false and a nil error; a missing pack is an expected
// outcome while scanning a game directory. Any other problem is an error.
func Load(path string) (p *Pack, found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("opening pack %s: %w", path, err)
	}

	p, err = parse(path, f)
	if err != nil {
		f.Close()
		return nil, true, fmt.Errorf("loading pack %s: %w", path, err)
	}

	slog.Debug("Added packfile", "path", path, "files", len(p.entries))

	return p, true, nil
}

func parse(path string, f *os.File) (*Pack, error) {
	handle := newBufferedFile(f)

	var header [HeaderSize]byte
	if _, err := io.ReadFull(handle, header[:]); err != nil {
		return nil, fmt.Errorf("reading header: %w: %w", binfmt.ErrMalformedArchive, err)
	}

	if !bytes.Equal(header[:4], Magic) {
		return nil, fmt.Errorf("not a packfile, magic %q: %w", header[:4], binfmt.ErrMalformedArchive)
	}

	dirOffset, err := binfmt.I32(header[4:8], "directory offset")
	if err != nil {
		return nil, err
	}
	dirLen, err := binfmt.I32(header[8:12], "directory length")
	if err != nil {
		return nil, err
	}

	count := dirLen / EntrySize
	if count > MaxEntries {
		return nil, fmt.Errorf("%d files in pack (max %d): %w", count, MaxEntries, binfmt.ErrTooManyEntries)
	}
	if rem := dirLen % EntrySize; rem != 0 {
		slog.Warn("Pack directory length is not a multiple of the entry size",
			"path", path,
			"directory_length", dirLen,
			"ignored_bytes", rem)
	}

	if _, err := handle.Seek(int64(dirOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to directory at %d: %w", dirOffset, err)
	}

	// The whole declared directory is read and fingerprinted, trailing bytes
	// included; only whole entries are parsed.
	dir := make([]byte, dirLen)
	if _, err := io.ReadFull(handle, dir); err != nil {
		return nil, fmt.Errorf("reading %d byte directory at %d: %w: %w", dirLen, dirOffset, binfmt.ErrMalformedArchive, err)
	}

	entries := make([]Entry, count)
	for i := range entries {
		e, err := parseEntry(dir[i*EntrySize : (i+1)*EntrySize])
		if err != nil {
			return nil, fmt.Errorf("directory entry %d: %w", i, err)
		}
		entries[i] = e
	}

	return &Pack{
		path:    path,
		file:    f,
		handle:  handle,
		entries: entries,
		crc:     binfmt.CRC16(dir),
	}, nil
}

func parseEntry(b []byte) (Entry, error) {
	name, err := binfmt.CString(b[:NameSize])
	if err != nil {
		return Entry{}, err
	}
	offset, err := binfmt.I32(b[56:60], "file offset")
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", name, err)
	}
	size, err := binfmt.I32(b[60:64], "file size")
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", name, err)
	}

	return Entry{Name: name, Offset: offset, Size: size}, nil
}

// Path returns the location of the pack on disk.
func (p *Pack) Path() string {
	return p.path
}

// Entries returns the directory in on-disk order.
func (p *Pack) Entries() []Entry {
	return p.entries
}

// Len returns the number of directory entries.
func (p *Pack) Len() int {
	return len(p.entries)
}

// CRC returns the CRC-16/CCITT of the raw directory bytes.
func (p *Pack) CRC() uint16 {
	return p.crc
}

// Lookup returns the first entry whose name matches exactly. Matching is
// case-sensitive.
func (p *Pack) Lookup(name string) (Entry, bool) {
	for _, e := range p.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Open returns a reader over e's bytes. The reader borrows the pack's handle
// exclusively: other calls to Open wait until it is closed.
func (p *Pack) Open(e Entry) (*reader.Reader, error) {
	p.mu.Lock()
	if p.file == nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("pack %s: %w", p.path, os.ErrClosed)
	}

	r, err := reader.NewBorrowed(p.handle, int64(e.Offset), int64(e.Size), p.mu.Unlock)
	if err != nil {
		return nil, fmt.Errorf("opening %s in %s: %w", e.Name, p.path, err)
	}
	return r, nil
}

// Close closes the pack's handle. It waits for an outstanding reader to be
// released.
func (p *Pack) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	p.handle = nil
	return err
}

// bufferedFile is a buffered reader over a file that can also seek. Seeking
// discards the buffer.
type bufferedFile struct {
	f  *os.File
	br *bufio.Reader
}

func newBufferedFile(f *os.File) *bufferedFile {
	return &bufferedFile{f: f, br: bufio.NewReader(f)}
}

func (b *bufferedFile) Read(p []byte) (int, error) {
	return b.br.Read(p)
}

func (b *bufferedFile) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset -= int64(b.br.Buffered())
	}
	pos, err := b.f.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	b.br.Reset(b.f)
	return pos, nil
}
