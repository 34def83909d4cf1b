package binfmt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCString(t *testing.T) {
	tests := []struct {
		name  string
		field []byte
		want  string
	}{
		{"simple", []byte("abc\x00"), "abc"},
		{"padding", []byte("abc\x00\x00\x00"), "abc"},
		{"trailing junk", []byte("abc\x00dh29834"), "abc"},
		{"junk with second nul", []byte("abc\x00dh29834\x00"), "abc"},
		{"terminator only", []byte("\x00"), ""},
		{"no terminator", []byte("abc"), "abc"},
		{"empty", []byte{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CString(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCStringFixedWidths(t *testing.T) {
	for _, width := range []int{16, 56} {
		field := make([]byte, width)
		copy(field, "disc")
		copy(field[8:], "junk")
		field[width-1] = 'Z'

		got, err := CString(field)
		require.NoError(t, err)
		assert.Equal(t, "disc", got, "width %d", width)
	}
}

func TestCStringInvalidText(t *testing.T) {
	_, err := CString([]byte{0xff, 0xfe, 'a'})
	require.ErrorIs(t, err, ErrMalformedArchive)

	// Invalid bytes after the terminator do not matter.
	got, err := CString([]byte{'o', 'k', 0, 0xff})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestI32(t *testing.T) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, 6822)
	v, err := I32(b, "size")
	require.NoError(t, err)
	assert.Equal(t, uint64(6822), v)

	binary.LittleEndian.PutUint32(b, 0x7fffffff)
	v, err = I32(b, "size")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7fffffff), v)

	var neg int32 = -1
	binary.LittleEndian.PutUint32(b, uint32(neg))
	_, err = I32(b, "size")
	require.ErrorIs(t, err, ErrMalformedArchive)
	assert.Contains(t, err.Error(), "size")
}

func TestCRC16(t *testing.T) {
	assert.Equal(t, uint16(0x29b1), CRC16([]byte("123456789")))
	assert.Equal(t, uint16(0xffff), CRC16(nil))
}
