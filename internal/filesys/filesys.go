// Package filesys implements the game's layered search path. A FileSys holds
// an ordered stack of directories and .pak files; a file name is resolved by
// asking each of them in priority order and taking the first hit.
package filesys

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jchantrell/quakefs/internal/pack"
	"github.com/jchantrell/quakefs/internal/reader"
)

const (
	// BaseGame is the game directory that is always on the search path.
	BaseGame = "id1"

	// Stock pak0.pak fingerprint; anything else marks the install modified.
	pak0Count = 339
	pak0CRC   = 32981
)

// ErrExplicitPathMissing is returned when an explicitly configured search
// path entry does not exist.
var ErrExplicitPathMissing = errors.New("explicit search path entry missing")

// Kind distinguishes the two sorts of search path entry.
type Kind int

const (
	KindDirectory Kind = iota
	KindPack
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindPack:
		return "pack"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SearchPath is one place to look for files: a directory on disk or an
// opened pack.
type SearchPath struct {
	Kind Kind
	// Dir is set for KindDirectory.
	Dir string
	// Pack is set for KindPack.
	Pack *pack.Pack
}

// Location returns the directory or pack path.
func (s SearchPath) Location() string {
	if s.Kind == KindPack {
		return s.Pack.Path()
	}
	return s.Dir
}

// Options is the startup configuration of a FileSys.
type Options struct {
	// BaseDir contains the game directories. Defaults to the working directory.
	BaseDir string
	// MissionPacks are extra game directories added after BaseGame, in order.
	MissionPacks []string
	// Game is an optional override game directory, added last.
	Game string
	// Path, when non-empty, replaces the generated search path entirely.
	// Entries ending in .pak are loaded as packs, anything else is a directory.
	Path []string
	// SkipHighest leaves the highest priority entry out of every lookup.
	SkipHighest bool
}

// FileSys is the game's search path. It is read-only once New returns.
type FileSys struct {
	gameDir     string
	skipHighest bool
	modified    bool

	// Lowest priority first.
	searchPaths []SearchPath
}

// New builds the search path described by opts. Any pack that exists but
// cannot be parsed aborts construction.
func New(opts Options) (*FileSys, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		baseDir = wd
	}

	fsys := &FileSys{skipHighest: opts.SkipHighest}

	// The generated path is built even when Path overrides it, since it also
	// decides the game directory.
	if err := fsys.AddGameDir(filepath.Join(baseDir, BaseGame)); err != nil {
		fsys.Close()
		return nil, err
	}
	for _, mp := range opts.MissionPacks {
		if err := fsys.AddGameDir(filepath.Join(baseDir, mp)); err != nil {
			fsys.Close()
			return nil, err
		}
	}
	if opts.Game != "" {
		fsys.modified = true
		if err := fsys.AddGameDir(filepath.Join(baseDir, opts.Game)); err != nil {
			fsys.Close()
			return nil, err
		}
	}

	if len(opts.Path) > 0 {
		fsys.modified = true
		explicit, err := loadExplicitPath(opts.Path)
		if err != nil {
			fsys.Close()
			return nil, err
		}
		fsys.Close()
		fsys.searchPaths = explicit
	}

	slog.Debug("Search path built",
		"game_dir", fsys.gameDir,
		"entries", len(fsys.searchPaths),
		"skip_highest", fsys.skipHighest)

	return fsys, nil
}

func loadExplicitPath(paths []string) ([]SearchPath, error) {
	var out []SearchPath
	closeAll := func() {
		for _, sp := range out {
			if sp.Kind == KindPack {
				sp.Pack.Close()
			}
		}
	}

	for _, p := range paths {
		if strings.HasSuffix(p, ".pak") {
			pak, found, err := pack.Load(p)
			if err != nil {
				closeAll()
				return nil, err
			}
			if !found {
				closeAll()
				return nil, fmt.Errorf("couldn't load packfile %s: %w", p, ErrExplicitPathMissing)
			}
			out = append(out, SearchPath{Kind: KindPack, Pack: pak})
			continue
		}

		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
			closeAll()
			return nil, fmt.Errorf("no such directory %s: %w", p, ErrExplicitPathMissing)
		}
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("checking search path directory %s: %w", p, err)
		}
		out = append(out, SearchPath{Kind: KindDirectory, Dir: p})
	}

	return out, nil
}

// AddGameDir puts dir on the search path, then every pakN.pak it contains
// (pak0.pak, pak1.pak, ... up to the first missing one) above it, each above
// the last. dir becomes the game directory.
func (f *FileSys) AddGameDir(dir string) error {
	f.searchPaths = append(f.searchPaths, SearchPath{Kind: KindDirectory, Dir: dir})

	for i := 0; ; i++ {
		path := filepath.Join(dir, fmt.Sprintf("pak%d.pak", i))
		p, found, err := pack.Load(path)
		if err != nil {
			return err
		}
		if !found {
			break
		}
		if p.Len() != pak0Count || p.CRC() != pak0CRC {
			f.modified = true
		}
		f.searchPaths = append(f.searchPaths, SearchPath{Kind: KindPack, Pack: p})
	}

	f.gameDir = dir
	return nil
}

// GameDir returns the most recently added game directory.
func (f *FileSys) GameDir() string {
	return f.gameDir
}

// Modified reports whether the install deviates from stock: an override game
// or path is in use, or a pack is not the stock pak0.pak.
func (f *FileSys) Modified() bool {
	return f.modified
}

// SkipHighest reports whether lookups leave out the highest priority entry.
func (f *FileSys) SkipHighest() bool {
	return f.skipHighest
}

// SearchPaths returns the search path, highest priority first. Entries left
// out by SkipHighest are still listed.
func (f *FileSys) SearchPaths() []SearchPath {
	out := make([]SearchPath, len(f.searchPaths))
	for i, sp := range f.searchPaths {
		out[len(out)-1-i] = sp
	}
	return out
}

// active returns the entries consulted by lookups, highest priority first.
func (f *FileSys) active() []SearchPath {
	paths := f.SearchPaths()
	if f.skipHighest && len(paths) > 0 {
		paths = paths[1:]
	}
	return paths
}

// Resolve finds name on the search path and returns a reader over its bytes.
// found is false, with a nil error, when no entry holds the name.
//
// A reader over a pack file holds that pack exclusively until it is closed.
// Resolving another name from the same pack blocks until then, so a caller
// must close one reader before resolving the next; holding two readers from
// one pack in a single goroutine deadlocks.
func (f *FileSys) Resolve(name string) (r *reader.Reader, found bool, err error) {
	for _, sp := range f.active() {
		switch sp.Kind {
		case KindPack:
			e, ok := sp.Pack.Lookup(name)
			if !ok {
				continue
			}
			r, err := sp.Pack.Open(e)
			if err != nil {
				return nil, true, err
			}
			slog.Debug("Resolved file", "name", name, "pack", sp.Pack.Path(), "size", e.Size)
			return r, true, nil

		case KindDirectory:
			path := filepath.Join(sp.Dir, filepath.FromSlash(name))
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			file, err := os.Open(path)
			if err != nil {
				return nil, true, fmt.Errorf("opening %s: %w", path, err)
			}
			r, err := reader.NewFile(file)
			if err != nil {
				return nil, true, err
			}
			slog.Debug("Resolved file", "name", name, "path", path, "size", r.Len())
			return r, true, nil
		}
	}

	return nil, false, nil
}

// LoadFile resolves name and reads it whole.
func (f *FileSys) LoadFile(name string) ([]byte, bool, error) {
	r, found, err := f.Resolve(name)
	if err != nil || !found {
		return nil, found, err
	}
	data, err := reader.ReadAll(r)
	if err != nil {
		return nil, true, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, true, nil
}

// Close closes every pack on the search path.
func (f *FileSys) Close() error {
	var errs []error
	for _, sp := range f.searchPaths {
		if sp.Kind == KindPack {
			if err := sp.Pack.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// FS returns a read-only io/fs view of the search path. Only regular files
// can be opened; directories are not listed.
func (f *FileSys) FS() fs.FS {
	return &searchFS{fsys: f}
}
