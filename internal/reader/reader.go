// Package reader provides a read-only view over a byte range of an underlying
// handle. A logical "file" may be a whole file on disk or a small section of a
// pack; either way a Reader never hands out bytes past its logical end.
package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrClosed is returned by Read after Close.
var ErrClosed = errors.New("reader: read after close")

// Reader is a bounded, forward-only reader. It cannot seek and cannot read
// past Len bytes, regardless of the caller's buffer size or how much data the
// backing handle physically holds.
//
// A Reader either owns its backing file (NewFile) or borrows a handle that
// belongs to someone else (NewBorrowed). A borrowed handle is held
// exclusively until Close is called.
type Reader struct {
	src    io.Reader
	close  func() error
	length int64
	nread  int64
	closed bool
}

// NewFile wraps a freshly opened file. The Reader takes ownership of f and
// closes it on Close. The logical length is the file's size at open time.
func NewFile(f *os.File) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}

	return &Reader{
		src:    bufio.NewReader(f),
		close:  f.Close,
		length: info.Size(),
	}, nil
}

// NewBorrowed seeks rs to offset and returns a Reader of the given length over
// it. release is called exactly once, by Close, or immediately if the seek
// fails. The caller must not touch rs until release has run.
func NewBorrowed(rs io.ReadSeeker, offset, length int64, release func()) (*Reader, error) {
	if offset < 0 || length < 0 {
		release()
		return nil, fmt.Errorf("invalid section (offset=%d, length=%d)", offset, length)
	}

	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		release()
		return nil, fmt.Errorf("seeking to %d: %w", offset, err)
	}

	return &Reader{
		src: rs,
		close: func() error {
			release()
			return nil
		},
		length: length,
	}, nil
}

// Read reads up to len(p) bytes, clipped to what remains of the logical
// section. At the logical end it returns 0, io.EOF. If the backing handle runs
// out before the logical end, io.ErrUnexpectedEOF is returned.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}

	remain := r.length - r.nread
	if remain == 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remain {
		p = p[:remain]
	}

	n, err := r.src.Read(p)
	r.nread += int64(n)
	if err == io.EOF && r.nread < r.length {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// Len returns the logical length of the section in bytes.
func (r *Reader) Len() int64 {
	return r.length
}

// Remaining returns the number of bytes not yet consumed.
func (r *Reader) Remaining() int64 {
	return r.length - r.nread
}

// Close releases the backing handle. Calling Close more than once is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.close()
}

// ReadAll reads r to its logical end and closes it.
func ReadAll(r *Reader) ([]byte, error) {
	defer r.Close()

	buf := make([]byte, r.Remaining())
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return buf[:n], err
	}
	return buf, nil
}
