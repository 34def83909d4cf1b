package reader

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backingFile(t *testing.T, size int) (*os.File, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "backing.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	return f, data
}

func TestBorrowedNeverReadsPastSection(t *testing.T) {
	f, data := backingFile(t, 1000)
	defer f.Close()

	released := 0
	r, err := NewBorrowed(f, 100, 10, func() { released++ })
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.Len())

	total := 0
	buf := make([]byte, 1000)
	var got []byte
	for {
		n, err := r.Read(buf)
		total += n
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, data[100:110], got)

	// Still at the logical end.
	n, err := r.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, released)
}

func TestBorrowedSmallBuffer(t *testing.T) {
	f, data := backingFile(t, 64)
	defer f.Close()

	r, err := NewBorrowed(f, 8, 5, func() {})
	require.NoError(t, err)

	one := make([]byte, 1)
	var got []byte
	for r.Remaining() > 0 {
		n, err := r.Read(one)
		require.NoError(t, err)
		got = append(got, one[:n]...)
	}
	assert.Equal(t, data[8:13], got)
}

func TestBorrowedShortBacking(t *testing.T) {
	f, _ := backingFile(t, 20)
	defer f.Close()

	r, err := NewBorrowed(f, 15, 10, func() {})
	require.NoError(t, err)

	got, err := ReadAll(r)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Len(t, got, 5)
}

func TestBorrowedInvalidSectionReleases(t *testing.T) {
	released := false
	_, err := NewBorrowed(bytes.NewReader(nil), -1, 4, func() { released = true })
	require.Error(t, err)
	assert.True(t, released)
}

func TestNewFile(t *testing.T) {
	f, data := backingFile(t, 300)

	r, err := NewFile(f)
	require.NoError(t, err)
	assert.Equal(t, int64(300), r.Len())

	got, err := ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// ReadAll closed the owned file.
	_, err = r.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Stat()
	assert.Error(t, err)
}

func TestEmptySection(t *testing.T) {
	r, err := NewBorrowed(bytes.NewReader([]byte("abc")), 1, 0, func() {})
	require.NoError(t, err)

	got, err := ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
