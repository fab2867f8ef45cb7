package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"shownotes/internal/models"
)

// DefaultPattern matches episode notes files in the content root.
const DefaultPattern = "*.md"

// Source is the raw content of one notes file.
type Source struct {
	// Path is relative to the content root, slash separated.
	Path string
	Raw  []byte
}

// Reader enumerates and reads notes files from a content root.
type Reader struct {
	fsys    fs.FS
	pattern string
}

// NewReader creates a reader over fsys. An empty pattern means DefaultPattern.
func NewReader(fsys fs.FS, pattern string) *Reader {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Reader{fsys: fsys, pattern: pattern}
}

// NewDirReader creates a reader over a directory on disk.
func NewDirReader(root, pattern string) *Reader {
	return NewReader(os.DirFS(root), pattern)
}

// Read returns every notes file matching the reader pattern in lexical order.
// Any enumeration or read failure aborts the whole read.
func (r *Reader) Read(ctx context.Context) ([]Source, error) {
	if _, err := fs.Stat(r.fsys, "."); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
	}

	matches, err := fs.Glob(r.fsys, r.pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: glob %q: %w", models.ErrSourceUnavailable, r.pattern, err)
	}
	sort.Strings(matches)

	sources := make([]Source, 0, len(matches))
	for _, name := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := fs.Stat(r.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("%w: stat %s: %w", models.ErrSourceUnavailable, name, err)
		}
		if info.IsDir() {
			continue
		}

		raw, err := fs.ReadFile(r.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", models.ErrSourceUnavailable, name, err)
		}
		sources = append(sources, Source{Path: name, Raw: raw})
	}

	return sources, nil
}
