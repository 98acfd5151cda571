package patch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andreyvit/diff"
	"github.com/modernice/sceneinc/git"
	"github.com/modernice/sceneinc/internal"
	"github.com/spf13/afero"
	"golang.org/x/exp/slog"
)

// ErrNotWritten is returned by Apply when the target cannot be found as a
// regular file after it has been written.
var ErrNotWritten = errors.New("file not written")

// Patch replaces the content of a single target file. The previous content of
// the target is discarded entirely when the patch is applied.
type Patch struct {
	target  string
	content []byte
	scenes  []string
	log     *slog.Logger
}

// Option configures a Patch.
type Option func(*Patch)

// WithLogger returns an Option that sets the logger of a Patch.
func WithLogger(h slog.Handler) Option {
	return func(p *Patch) {
		p.log = slog.New(h)
	}
}

// Scenes returns an Option that records the scene files the content was
// generated from. They are listed in the commit message of the patch.
func Scenes(scenes ...string) Option {
	return func(p *Patch) {
		p.scenes = append(p.scenes, scenes...)
	}
}

// New returns a Patch that writes content to target.
func New(target string, content []byte, opts ...Option) *Patch {
	p := &Patch{
		target:  target,
		content: content,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = internal.NopLogger()
	}
	return p
}

// Target returns the path of the file that the patch writes.
func (p *Patch) Target() string {
	return p.target
}

// Content returns the content that the patch writes.
func (p *Patch) Content() []byte {
	return p.content
}

// Scenes returns the scene files the content was generated from.
func (p *Patch) Scenes() []string {
	return p.scenes
}

// Files returns the paths of all files written by Apply.
func (p *Patch) Files() []string {
	return []string{filepath.ToSlash(p.target)}
}

// Commit returns the commit message for the patch.
func (p *Patch) Commit() git.Commit {
	c := git.DefaultCommit()
	if len(p.scenes) == 0 {
		return c
	}

	c.Desc = append(c.Desc, fmt.Sprintf("Included scenes (%d):", len(p.scenes)))
	for _, scene := range p.scenes {
		c.Desc = append(c.Desc, "  - "+scene)
	}

	return c
}

// DryRun returns the content of every file the patch would write, keyed by path.
func (p *Patch) DryRun() map[string][]byte {
	return map[string][]byte{p.target: p.content}
}

// Diff returns a line diff from the current content of the target in fsys to
// the content of the patch. A missing target is treated as an empty file. The
// diff is empty if applying the patch would not change the target.
func (p *Patch) Diff(fsys afero.Fs) (string, error) {
	current, err := afero.ReadFile(fsys, p.target)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", p.target, err)
	}

	if string(current) == string(p.content) {
		return "", nil
	}

	return diff.LineDiff(string(current), string(p.content)), nil
}

// Apply truncates the target in fsys and writes the content of the patch. After
// writing, the target must exist as a regular file; otherwise Apply returns an
// error that wraps ErrNotWritten.
func (p *Patch) Apply(ctx context.Context, fsys afero.Fs) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.log.Info(fmt.Sprintf("Writing file %q ...", p.target), "bytes", len(p.content))

	if err := writeFile(fsys, p.target, p.content); err != nil {
		return fmt.Errorf("write %s: %w", p.target, err)
	}

	stat, err := fsys.Stat(p.target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritten, p.target, err)
	}

	if !stat.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotWritten, p.target)
	}

	return nil
}

func writeFile(fsys afero.Fs, path string, content []byte) error {
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
