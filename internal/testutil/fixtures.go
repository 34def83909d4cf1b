// Package testutil builds PACK and WAD2 fixtures for tests.
package testutil

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// PackFile is one file to be stored in a fixture pack.
type PackFile struct {
	Name string
	Data []byte
}

// BuildPack lays out files the way the stock tools do: header, file data
// starting at offset 12, directory last.
func BuildPack(files []PackFile) []byte {
	out := make([]byte, 12)
	copy(out, "PACK")

	offsets := make([]int, len(files))
	for i, f := range files {
		offsets[i] = len(out)
		out = append(out, f.Data...)
	}

	dirOffset := len(out)
	for i, f := range files {
		rec := make([]byte, 64)
		copy(rec[:56], f.Name)
		binary.LittleEndian.PutUint32(rec[56:], uint32(offsets[i]))
		binary.LittleEndian.PutUint32(rec[60:], uint32(len(f.Data)))
		out = append(out, rec...)
	}

	binary.LittleEndian.PutUint32(out[4:], uint32(dirOffset))
	binary.LittleEndian.PutUint32(out[8:], uint32(len(files)*64))
	return out
}

// WritePack writes a fixture pack to path, creating parent directories.
func WritePack(t *testing.T, path string, files []PackFile) {
	t.Helper()
	WriteFile(t, path, BuildPack(files))
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// WAV returns size bytes starting with a RIFF header.
func WAV(size int) []byte {
	data := make([]byte, size)
	copy(data, "RIFF")
	binary.LittleEndian.PutUint32(data[4:], uint32(size-8))
	copy(data[8:], "WAVE")
	for i := 12; i < size; i++ {
		data[i] = byte(i * 7)
	}
	return data
}

// Pak0Entries is the number of files in the stock pak0.pak.
const Pak0Entries = 339

// Pak0Files returns a 339-file fixture shaped like the stock pak0.pak: the
// first entry is sound/items/r_item1.wav, 6822 bytes, stored at offset 12.
func Pak0Files() []PackFile {
	files := make([]PackFile, 0, Pak0Entries)
	files = append(files, PackFile{Name: "sound/items/r_item1.wav", Data: WAV(6822)})
	for i := 1; i < Pak0Entries; i++ {
		files = append(files, PackFile{
			Name: fmt.Sprintf("maps/b_file%03d.bsp", i),
			Data: []byte(fmt.Sprintf("pak0 file %d", i)),
		})
	}
	return files
}

// Lump is one lump to be stored in a fixture wad.
type Lump struct {
	Name        string
	Type        byte
	Compression byte
	Data        []byte
	// Size is the uncompressed size; zero means len(Data).
	Size int
}

// BuildWad lays out a WAD2: header, lump data, lump table last.
func BuildWad(lumps []Lump) []byte {
	out := make([]byte, 12)
	copy(out, "WAD2")

	offsets := make([]int, len(lumps))
	for i, l := range lumps {
		offsets[i] = len(out)
		out = append(out, l.Data...)
	}

	tableOffset := len(out)
	for i, l := range lumps {
		size := l.Size
		if size == 0 {
			size = len(l.Data)
		}
		rec := make([]byte, 32)
		binary.LittleEndian.PutUint32(rec[0:], uint32(offsets[i]))
		binary.LittleEndian.PutUint32(rec[4:], uint32(len(l.Data)))
		binary.LittleEndian.PutUint32(rec[8:], uint32(size))
		rec[12] = l.Type
		rec[13] = l.Compression
		copy(rec[16:], l.Name)
		out = append(out, rec...)
	}

	binary.LittleEndian.PutUint32(out[4:], uint32(len(lumps)))
	binary.LittleEndian.PutUint32(out[8:], uint32(tableOffset))
	return out
}
