// Package catalog records every name visible on a search path in an SQLite
// database, along with where it lives and whether a higher priority source
// hides it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jchantrell/quakefs/internal/filesys"
)

// Source is one search path entry. Priority 0 is the highest.
type Source struct {
	Priority int
	Kind     string
	Location string
	// Skipped is set for the entry left out of lookups by SkipHighest.
	Skipped bool
	Files   int
}

// EntryRow is one file held by a source.
type EntryRow struct {
	Priority int
	Source   string
	Kind     string
	Name     string
	// Offset is the position inside the pack; zero for loose files.
	Offset int64
	Size   int64
	// Shadowed is set when a lookup of Name would not return this row.
	Shadowed bool
}

// Stats summarises a Build.
type Stats struct {
	Sources  int
	Entries  int
	Visible  int
	Shadowed int
}

// ProgressCallback is called to report build progress
type ProgressCallback func(current int, total int, description string)

// Collect lists every source and entry on the search path, highest priority
// first, and marks the entries that lookups would not return.
func Collect(fsys *filesys.FileSys) ([]Source, []EntryRow, error) {
	paths := fsys.SearchPaths()
	seen := make(map[string]bool)

	var sources []Source
	var entries []EntryRow

	for priority, sp := range paths {
		skipped := priority == 0 && fsys.SkipHighest()

		rows, err := listSource(sp)
		if err != nil {
			return nil, nil, err
		}

		for i := range rows {
			rows[i].Priority = priority
			rows[i].Source = sp.Location()
			rows[i].Kind = sp.Kind.String()

			// Skipped sources hide nothing and are never returned.
			if skipped {
				rows[i].Shadowed = true
				continue
			}
			rows[i].Shadowed = seen[rows[i].Name]
			seen[rows[i].Name] = true
		}

		sources = append(sources, Source{
			Priority: priority,
			Kind:     sp.Kind.String(),
			Location: sp.Location(),
			Skipped:  skipped,
			Files:    len(rows),
		})
		entries = append(entries, rows...)
	}

	return sources, entries, nil
}

func listSource(sp filesys.SearchPath) ([]EntryRow, error) {
	if sp.Kind == filesys.KindPack {
		packEntries := sp.Pack.Entries()
		rows := make([]EntryRow, len(packEntries))
		for i, e := range packEntries {
			rows[i] = EntryRow{Name: e.Name, Offset: int64(e.Offset), Size: int64(e.Size)}
		}
		return rows, nil
	}

	var rows []EntryRow
	err := filepath.WalkDir(sp.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == sp.Dir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		// Lookups follow symlinks, so stat rather than trusting d.Type.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(sp.Dir, path)
		if err != nil {
			return err
		}
		rows = append(rows, EntryRow{Name: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", sp.Dir, err)
	}

	return rows, nil
}

// Build recreates the catalog tables and fills them from fsys.
func Build(ctx context.Context, c *Catalog, fsys *filesys.FileSys, options *BulkInsertOptions, progress ProgressCallback) (*Stats, error) {
	sources, entries, err := Collect(fsys)
	if err != nil {
		return nil, fmt.Errorf("collecting entries: %w", err)
	}

	if err := c.CreateSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	inserter := NewBulkInserter(c, options)

	if err := inserter.InsertSources(ctx, sources); err != nil {
		return nil, fmt.Errorf("inserting sources: %w", err)
	}

	err = inserter.InsertEntries(ctx, entries, func(inserted int) {
		if progress != nil {
			progress(inserted, len(entries), entries[inserted-1].Name)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("inserting entries: %w", err)
	}

	stats := &Stats{Sources: len(sources), Entries: len(entries)}
	for _, e := range entries {
		if e.Shadowed {
			stats.Shadowed++
		} else {
			stats.Visible++
		}
	}

	slog.Debug("Catalog built",
		"path", c.Path(),
		"sources", stats.Sources,
		"entries", stats.Entries,
		"shadowed", stats.Shadowed)

	return stats, nil
}
