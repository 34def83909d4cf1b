package export

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jchantrell/quakefs/internal/wad"
	"golang.org/x/sync/errgroup"
)

// FileLoader loads a whole file by name. *filesys.FileSys satisfies it.
type FileLoader interface {
	LoadFile(name string) ([]byte, bool, error)
}

// Exporter handles copying resolved files and lumps to disk
type Exporter struct {
	loader    FileLoader
	outputDir string
	workers   int
}

// NewExporter creates a new file exporter. workers below one means one.
func NewExporter(loader FileLoader, outputDir string, workers int) *Exporter {
	return &Exporter{
		loader:    loader,
		outputDir: outputDir,
		workers:   max(workers, 1),
	}
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// counter serialises progress reports from concurrent workers
type counter struct {
	mu       sync.Mutex
	done     int
	total    int
	callback ProgressCallback
}

func (c *counter) step(description string) {
	if c.callback == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done++
	c.callback(c.done, c.total, description)
}

// ExportFiles resolves each name and writes it to outputDir/name, creating
// directories as needed. A name that cannot be resolved is an error.
func (e *Exporter) ExportFiles(ctx context.Context, names []string, progressCallback ProgressCallback) error {
	if len(names) == 0 {
		return nil
	}

	for _, name := range names {
		if !fs.ValidPath(name) {
			return fmt.Errorf("invalid file name %q", name)
		}
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	progress := &counter{total: len(names), callback: progressCallback}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, found, err := e.loader.LoadFile(name)
			if err != nil {
				return fmt.Errorf("loading file %s: %w", name, err)
			}
			if !found {
				return fmt.Errorf("file %s not found on search path: %w", name, fs.ErrNotExist)
			}

			outputPath := filepath.Join(e.outputDir, filepath.FromSlash(name))
			if err := writeFile(outputPath, data); err != nil {
				return err
			}

			slog.Debug("Copied file", "name", name, "output", outputPath, "size", len(data))
			progress.step(name)
			return nil
		})
	}

	return g.Wait()
}

// ExportLumps writes every lump of w to outputDir as <name>.<type>, raw as
// stored. Compressed lumps are written compressed.
func (e *Exporter) ExportLumps(w *wad.Wad, progressCallback ProgressCallback) error {
	lumps := w.Lumps()
	if len(lumps) == 0 {
		return nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	progress := &counter{total: len(lumps), callback: progressCallback}

	for i, lump := range lumps {
		data, err := w.DataForIndex(i)
		if err != nil {
			return fmt.Errorf("reading lump %s: %w", lump.Name, err)
		}

		outputPath := filepath.Join(e.outputDir, LumpFileName(lump))
		if err := writeFile(outputPath, data); err != nil {
			return err
		}

		if lump.Compression != wad.CompressionNone {
			slog.Debug("Wrote compressed lump", "name", lump.Name, "compression", lump.Compression)
		}
		slog.Debug("Wrote lump", "name", lump.Name, "type", lump.Type, "output", outputPath)
		progress.step(lump.Name)
	}

	return nil
}

// LumpFileName returns the file name a lump is exported under
func LumpFileName(lump wad.Lump) string {
	return sanitizeName(lump.Name) + "." + lump.Type.String()
}

// sanitizeName makes a lump name safe for use as a filename. Texture names
// may start with '*' or '+', and '*' is not allowed on every platform.
func sanitizeName(name string) string {
	if name == "" {
		return "_"
	}
	return strings.NewReplacer("/", "@", `\`, "@", "*", "#", ":", "_").Replace(name)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	return nil
}
