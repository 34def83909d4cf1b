package filesys

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jchantrell/quakefs/internal/binfmt"
	"github.com/jchantrell/quakefs/internal/reader"
	"github.com/jchantrell/quakefs/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stockBase lays out base/id1 with pak0.pak, pak1.pak and one loose file.
func stockBase(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	id1 := filepath.Join(base, BaseGame)

	testutil.WritePack(t, filepath.Join(id1, "pak0.pak"), testutil.Pak0Files())
	testutil.WritePack(t, filepath.Join(id1, "pak1.pak"), []testutil.PackFile{
		{Name: "maps/e2m1.bsp", Data: []byte("registered map")},
		{Name: "gfx/pop.lmp", Data: []byte("pak1 pop")},
		{Name: "maps/b_file001.bsp", Data: []byte("pak1 override")},
	})
	testutil.WriteFile(t, filepath.Join(id1, "gfx", "pop.lmp"), []byte("loose pop"))
	testutil.WriteFile(t, filepath.Join(id1, "autoexec.cfg"), []byte("bind x +jump"))
	return base
}

func newFileSys(t *testing.T, opts Options) *FileSys {
	t.Helper()
	fsys, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { fsys.Close() })
	return fsys
}

func load(t *testing.T, fsys *FileSys, name string) (string, bool) {
	t.Helper()
	data, found, err := fsys.LoadFile(name)
	require.NoError(t, err)
	return string(data), found
}

func TestStockSearchPath(t *testing.T) {
	base := stockBase(t)
	fsys := newFileSys(t, Options{BaseDir: base})

	require.Len(t, fsys.searchPaths, 3)
	assert.Equal(t, KindDirectory, fsys.searchPaths[0].Kind)
	assert.Equal(t, filepath.Join(base, "id1"), fsys.searchPaths[0].Dir)
	assert.Equal(t, KindPack, fsys.searchPaths[1].Kind)
	assert.Equal(t, "pak0.pak", filepath.Base(fsys.searchPaths[1].Pack.Path()))
	assert.Equal(t, testutil.Pak0Entries, fsys.searchPaths[1].Pack.Len())
	assert.Equal(t, KindPack, fsys.searchPaths[2].Kind)
	assert.Equal(t, "pak1.pak", filepath.Base(fsys.searchPaths[2].Pack.Path()))

	// Priority order is the reverse.
	paths := fsys.SearchPaths()
	assert.Equal(t, "pak1.pak", filepath.Base(paths[0].Location()))
	assert.Equal(t, "pak0.pak", filepath.Base(paths[1].Location()))
	assert.Equal(t, filepath.Join(base, "id1"), paths[2].Location())

	assert.Equal(t, filepath.Join(base, "id1"), fsys.GameDir())
}

func TestLoadSound(t *testing.T) {
	fsys := newFileSys(t, Options{BaseDir: stockBase(t)})

	data, found, err := fsys.LoadFile("sound/items/r_item1.wav")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, data, 6822)
	assert.Equal(t, []byte("RIFF"), data[:4])
}

func TestScanStopsAtFirstMissingIndex(t *testing.T) {
	base := t.TempDir()
	id1 := filepath.Join(base, BaseGame)
	for _, name := range []string{"pak0.pak", "pak1.pak", "pak2.pak", "pak4.pak"} {
		testutil.WritePack(t, filepath.Join(id1, name), []testutil.PackFile{{Name: "files/" + name, Data: []byte(name)}})
	}

	fsys := newFileSys(t, Options{BaseDir: base})
	packs := 0
	for _, sp := range fsys.SearchPaths() {
		if sp.Kind == KindPack {
			packs++
		}
	}
	assert.Equal(t, 3, packs)

	_, found := load(t, fsys, "files/pak4.pak")
	assert.False(t, found)
}

func TestEmptyGameDir(t *testing.T) {
	fsys := newFileSys(t, Options{BaseDir: t.TempDir()})
	require.Len(t, fsys.SearchPaths(), 1)
	assert.Equal(t, KindDirectory, fsys.SearchPaths()[0].Kind)

	_, found := load(t, fsys, "anything")
	assert.False(t, found)
}

func TestPackShadowsDirectory(t *testing.T) {
	fsys := newFileSys(t, Options{BaseDir: stockBase(t)})

	got, found := load(t, fsys, "gfx/pop.lmp")
	require.True(t, found)
	assert.Equal(t, "pak1 pop", got)

	got, found = load(t, fsys, "maps/b_file001.bsp")
	require.True(t, found)
	assert.Equal(t, "pak1 override", got, "later pack wins over earlier pack")

	got, found = load(t, fsys, "autoexec.cfg")
	require.True(t, found)
	assert.Equal(t, "bind x +jump", got)
}

func TestSkipHighest(t *testing.T) {
	base := stockBase(t)
	fsys := newFileSys(t, Options{BaseDir: base, SkipHighest: true})

	_, found := load(t, fsys, "maps/e2m1.bsp")
	assert.False(t, found, "only pak1 holds it and pak1 is skipped")

	got, found := load(t, fsys, "maps/b_file001.bsp")
	require.True(t, found)
	assert.Equal(t, "pak0 file 1", got)

	got, found = load(t, fsys, "gfx/pop.lmp")
	require.True(t, found)
	assert.Equal(t, "loose pop", got)

	_, found = load(t, fsys, "sound/items/r_item1.wav")
	assert.True(t, found)

	// Skipped entries are still listed.
	assert.Len(t, fsys.SearchPaths(), 3)
}

func TestNotFound(t *testing.T) {
	fsys := newFileSys(t, Options{BaseDir: stockBase(t)})

	r, found, err := fsys.Resolve("progs/missing.mdl")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, r)

	// Directories are not files.
	_, found = load(t, fsys, "gfx")
	assert.False(t, found)
}

func TestMalformedPackAborts(t *testing.T) {
	base := stockBase(t)
	testutil.WriteFile(t, filepath.Join(base, BaseGame, "pak2.pak"), []byte("JUNKJUNKJUNKJUNK"))

	_, err := New(Options{BaseDir: base})
	require.ErrorIs(t, err, binfmt.ErrMalformedArchive)
}

func TestMissionPacksAndGame(t *testing.T) {
	base := stockBase(t)
	testutil.WritePack(t, filepath.Join(base, "rogue", "pak0.pak"), []testutil.PackFile{
		{Name: "gfx/pop.lmp", Data: []byte("rogue pop")},
	})
	testutil.WriteFile(t, filepath.Join(base, "hipnotic", "gfx", "pop.lmp"), []byte("hipnotic pop"))
	testutil.WriteFile(t, filepath.Join(base, "mymod", "autoexec.cfg"), []byte("mymod"))

	fsys := newFileSys(t, Options{
		BaseDir:      base,
		MissionPacks: []string{"rogue", "hipnotic"},
		Game:         "mymod",
	})

	var locs []string
	for _, sp := range fsys.SearchPaths() {
		rel, err := filepath.Rel(base, sp.Location())
		require.NoError(t, err)
		locs = append(locs, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{
		"mymod",
		"hipnotic",
		"rogue/pak0.pak",
		"rogue",
		"id1/pak1.pak",
		"id1/pak0.pak",
		"id1",
	}, locs)

	got, _ := load(t, fsys, "gfx/pop.lmp")
	assert.Equal(t, "hipnotic pop", got)
	got, _ = load(t, fsys, "autoexec.cfg")
	assert.Equal(t, "mymod", got)

	assert.Equal(t, filepath.Join(base, "mymod"), fsys.GameDir())
	assert.True(t, fsys.Modified())
}

func TestPathOverrideReplaces(t *testing.T) {
	base := stockBase(t)
	extra := filepath.Join(t.TempDir(), "extra.pak")
	testutil.WritePack(t, extra, []testutil.PackFile{{Name: "gfx/pop.lmp", Data: []byte("extra pop")}})
	loose := t.TempDir()
	testutil.WriteFile(t, filepath.Join(loose, "gfx", "pop.lmp"), []byte("loose override"))
	testutil.WriteFile(t, filepath.Join(loose, "only-here.txt"), []byte("here"))

	fsys := newFileSys(t, Options{BaseDir: base, Path: []string{extra, loose}})

	paths := fsys.SearchPaths()
	require.Len(t, paths, 2)
	assert.Equal(t, loose, paths[0].Location())
	assert.Equal(t, extra, paths[1].Location())

	got, _ := load(t, fsys, "gfx/pop.lmp")
	assert.Equal(t, "loose override", got)
	got, _ = load(t, fsys, "only-here.txt")
	assert.Equal(t, "here", got)

	_, found := load(t, fsys, "sound/items/r_item1.wav")
	assert.False(t, found, "id1 packs are no longer on the path")

	assert.Equal(t, filepath.Join(base, "id1"), fsys.GameDir())
	assert.True(t, fsys.Modified())
}

func TestPathOverrideMissing(t *testing.T) {
	base := stockBase(t)

	_, err := New(Options{BaseDir: base, Path: []string{filepath.Join(base, "nope.pak")}})
	require.ErrorIs(t, err, ErrExplicitPathMissing)

	_, err = New(Options{BaseDir: base, Path: []string{filepath.Join(base, "nodir")}})
	require.ErrorIs(t, err, ErrExplicitPathMissing)

	bad := filepath.Join(base, "bad.pak")
	testutil.WriteFile(t, bad, []byte("nope"))
	_, err = New(Options{BaseDir: base, Path: []string{bad}})
	require.ErrorIs(t, err, binfmt.ErrMalformedArchive)
	require.False(t, errors.Is(err, ErrExplicitPathMissing))
}

func TestPathOverrideStatError(t *testing.T) {
	base := stockBase(t)
	// ENAMETOOLONG: the entry may exist, it just cannot be checked.
	tooLong := filepath.Join(base, strings.Repeat("a", 300))

	_, err := New(Options{BaseDir: base, Path: []string{tooLong}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrExplicitPathMissing))
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	_, err = New(Options{BaseDir: base, Path: []string{tooLong + ".pak"}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrExplicitPathMissing))

	// A regular file where a directory is expected is missing.
	_, err = New(Options{BaseDir: base, Path: []string{filepath.Join(base, BaseGame, "autoexec.cfg")}})
	require.ErrorIs(t, err, ErrExplicitPathMissing)
}

func TestResolveSamePackWaitsForClose(t *testing.T) {
	fsys := newFileSys(t, Options{BaseDir: stockBase(t)})

	first, found, err := fsys.Resolve("maps/e2m1.bsp")
	require.NoError(t, err)
	require.True(t, found)

	second := make(chan []byte, 1)
	go func() {
		data, _, err := fsys.LoadFile("gfx/pop.lmp")
		if err != nil {
			data = nil
		}
		second <- data
	}()

	select {
	case <-second:
		t.Fatal("second file from the same pack resolved while the first reader was open")
	case <-time.After(50 * time.Millisecond):
	}

	// Loose files and other packs are not held up.
	data, found, err := fsys.LoadFile("sound/items/r_item1.wav")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, data, 6822)

	require.NoError(t, first.Close())
	select {
	case got := <-second:
		assert.Equal(t, "pak1 pop", string(got))
	case <-time.After(5 * time.Second):
		t.Fatal("second resolve still blocked after the first reader was closed")
	}
}

func TestFixtureIsModified(t *testing.T) {
	fsys := newFileSys(t, Options{BaseDir: stockBase(t)})
	// pak1.pak is not the stock pak0.pak.
	assert.True(t, fsys.Modified())

	plain := newFileSys(t, Options{BaseDir: t.TempDir()})
	assert.False(t, plain.Modified())
}

func TestReaderHoldsPack(t *testing.T) {
	fsys := newFileSys(t, Options{BaseDir: stockBase(t)})

	r, found, err := fsys.Resolve("sound/items/r_item1.wav")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(6822), r.Len())

	head := make([]byte, 4)
	_, err = io.ReadFull(r, head)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(head))
	require.NoError(t, r.Close())

	// A loose file does not touch any pack.
	loose, _, err := fsys.Resolve("autoexec.cfg")
	require.NoError(t, err)
	data, _, err := fsys.LoadFile("maps/e2m1.bsp")
	require.NoError(t, err)
	assert.Equal(t, "registered map", string(data))
	got, err := reader.ReadAll(loose)
	require.NoError(t, err)
	assert.Equal(t, "bind x +jump", string(got))
}

func TestFS(t *testing.T) {
	fsys := newFileSys(t, Options{BaseDir: stockBase(t)})
	fsView := fsys.FS()

	data, err := fs.ReadFile(fsView, "gfx/pop.lmp")
	require.NoError(t, err)
	assert.Equal(t, "pak1 pop", string(data))

	info, err := fs.Stat(fsView, "sound/items/r_item1.wav")
	require.NoError(t, err)
	assert.Equal(t, "r_item1.wav", info.Name())
	assert.Equal(t, int64(6822), info.Size())
	assert.False(t, info.IsDir())

	_, err = fsView.Open("missing.txt")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = fsView.Open("../escape")
	require.ErrorIs(t, err, fs.ErrInvalid)
}

// TestRealInstall runs against a real installation when QUAKE_DIR is set.
func TestRealInstall(t *testing.T) {
	dir := os.Getenv("QUAKE_DIR")
	if dir == "" {
		t.Skip("QUAKE_DIR not set")
	}

	fsys := newFileSys(t, Options{BaseDir: dir})
	paths := fsys.SearchPaths()
	require.Len(t, paths, 3)
	assert.Equal(t, "pak1.pak", filepath.Base(paths[0].Location()))

	data, found, err := fsys.LoadFile("sound/items/r_item1.wav")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, data, 6822)
	assert.Equal(t, []byte("RIFF"), data[:4])
}
