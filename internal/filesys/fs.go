package filesys

import (
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/jchantrell/quakefs/internal/reader"
)

// searchFS implements fs.FS over the search path
type searchFS struct {
	fsys *FileSys
}

func (s *searchFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	r, found, err := s.fsys.Resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if !found {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	return &searchFile{name: name, reader: r}, nil
}

// ReadFile implements fs.ReadFileFS.
func (s *searchFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}

	data, found, err := s.fsys.LoadFile(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	if !found {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

// searchFile implements fs.File for a resolved file
type searchFile struct {
	name   string
	reader *reader.Reader
}

func (sf *searchFile) Read(p []byte) (int, error) {
	return sf.reader.Read(p)
}

func (sf *searchFile) Close() error {
	return sf.reader.Close()
}

func (sf *searchFile) Stat() (fs.FileInfo, error) {
	return &searchFileInfo{sf}, nil
}

// searchFileInfo implements fs.FileInfo for resolved files
type searchFileInfo struct {
	*searchFile
}

func (sfi searchFileInfo) Name() string {
	return path.Base(sfi.name)
}

func (sfi searchFileInfo) Size() int64 {
	return sfi.reader.Len()
}

func (sfi searchFileInfo) Mode() fs.FileMode {
	return 0o444
}

func (sfi searchFileInfo) ModTime() time.Time {
	return time.Unix(0, 0)
}

func (sfi searchFileInfo) IsDir() bool {
	return false
}

func (sfi searchFileInfo) Sys() any {
	return nil
}

func (sfi searchFileInfo) String() string {
	return fmt.Sprintf("%s (%d bytes)", sfi.name, sfi.Size())
}
