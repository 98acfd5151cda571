package find

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/modernice/sceneinc/internal"
	"github.com/modernice/sceneinc/internal/slice"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

const (
	// DefaultExtension is the file extension of candidate files.
	DefaultExtension = ".hpp"

	// DefaultMarker is the declaration a candidate must contain to qualify.
	DefaultMarker = "struct scene_model"
)

// Finder searches a file system for files that contain a marker declaration.
// Only files whose name ends with the configured extension are opened; their
// whole content is checked for the marker as a plain substring. Use New to
// create a Finder.
type Finder struct {
	repo    fs.FS
	skip    *Skip
	ext     string
	marker  []byte
	include []string
	exclude []string
	log     *slog.Logger
}

// Option configures a Finder.
type Option interface {
	apply(*Finder)
}

type optionFunc func(*Finder)

func (opt optionFunc) apply(f *Finder) {
	opt(f)
}

// WithLogger returns an Option that sets the logger of a Finder.
func WithLogger(h slog.Handler) Option {
	return optionFunc(func(f *Finder) {
		f.log = slog.New(h)
	})
}

// Extension returns an Option that sets the file extension of candidate files.
// Defaults to DefaultExtension.
func Extension(ext string) Option {
	return optionFunc(func(f *Finder) {
		f.ext = ext
	})
}

// Marker returns an Option that sets the substring a candidate must contain.
// Defaults to DefaultMarker.
func Marker(marker string) Option {
	return optionFunc(func(f *Finder) {
		f.marker = []byte(marker)
	})
}

// Include returns an Option that restricts the search to files matching at
// least one of the given doublestar patterns. Patterns are matched against the
// slash-separated path relative to the root of the file system.
func Include(pattern ...string) Option {
	pattern = slice.NoZero(slice.Map(pattern, strings.TrimSpace))
	return optionFunc(func(f *Finder) {
		f.include = append(f.include, pattern...)
	})
}

// Exclude returns an Option that removes files matching any of the given
// doublestar patterns from the search.
func Exclude(pattern ...string) Option {
	pattern = slice.NoZero(slice.Map(pattern, strings.TrimSpace))
	return optionFunc(func(f *Finder) {
		f.exclude = append(f.exclude, pattern...)
	})
}

// New returns a Finder that searches repo.
func New(repo fs.FS, opts ...Option) *Finder {
	f := &Finder{
		repo:   repo,
		ext:    DefaultExtension,
		marker: []byte(DefaultMarker),
	}
	for _, opt := range opts {
		opt.apply(f)
	}
	if f.skip == nil {
		skip := SkipNone()
		f.skip = &skip
	}
	if f.log == nil {
		f.log = internal.NopLogger()
	}
	return f
}

// Find walks the file system and returns the paths of all qualifying files,
// sorted in ascending order. Paths are relative to the root of the file system.
func (f *Finder) Find(ctx context.Context) ([]string, error) {
	if len(f.marker) == 0 {
		return nil, fmt.Errorf("empty marker")
	}

	if err := f.validatePatterns(); err != nil {
		return nil, err
	}

	f.log.Debug("Searching for marked files ...", "extension", f.ext, "marker", string(f.marker))

	var found []string

	if err := fs.WalkDir(f.repo, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if path == "." {
			return nil
		}

		entry := Entry{DirEntry: d, Path: path}

		if d.IsDir() {
			if f.skip.ExcludeDir(entry) {
				f.log.Debug("Skipping directory", "dir", path)
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), f.ext) {
			return nil
		}

		if !f.globAllowed(path) {
			f.log.Debug("Skipping file", "path", path, "reason", "glob")
			return nil
		}

		if f.skip.ExcludeFile(entry) {
			f.log.Debug("Skipping file", "path", path)
			return nil
		}

		ok, err := f.containsMarker(path)
		if err != nil {
			return err
		}

		if ok {
			f.log.Debug("Found marked file", "path", path)
			found = append(found, path)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	slices.Sort(found)

	f.log.Info(fmt.Sprintf("Found %d marked files", len(found)), "files", found)

	return found, nil
}

func (f *Finder) validatePatterns() error {
	for _, pattern := range append(slices.Clone(f.include), f.exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return nil
}

func (f *Finder) globAllowed(path string) bool {
	if len(f.include) > 0 && !matchAny(f.include, path) {
		return false
	}
	return !matchAny(f.exclude, path)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func (f *Finder) containsMarker(path string) (bool, error) {
	file, err := f.repo.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	return bytes.Contains(content, f.marker), nil
}
