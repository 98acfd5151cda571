// Package sceneinc keeps an aggregator header in sync with the scene headers of
// a project. It searches a root directory for headers that declare a scene
// model and regenerates a single header that includes all of them.
package sceneinc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/modernice/sceneinc/find"
	"github.com/modernice/sceneinc/header"
	"github.com/modernice/sceneinc/internal"
	"github.com/modernice/sceneinc/internal/slice"
	"github.com/modernice/sceneinc/patch"
	"github.com/spf13/afero"
	"golang.org/x/exp/slog"
)

const (
	// DefaultRoot is the directory that is searched for scene headers.
	DefaultRoot = "scenes"

	// DefaultOutput is the file name of the aggregator header within the root.
	DefaultOutput = "scenes.hpp"
)

var (
	// ErrRootNotFound is returned when the root directory does not exist.
	ErrRootNotFound = errors.New("root directory not found")

	// ErrNoScenes is returned when no scene headers were found. Nothing is
	// written in this case.
	ErrNoScenes = errors.New("no scene files found")
)

// Scene is a header that declares a scene model.
type Scene struct {
	// Path is the slash-separated path of the header relative to the root.
	Path string

	// Include is the path that the aggregator header uses to include the scene.
	Include string
}

// Generator regenerates the aggregator header of a root directory. Use New to
// create a Generator.
type Generator struct {
	root     string
	output   string
	prefix   *string
	fs       afero.Fs
	findOpts []find.Option
	log      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger returns an Option that sets the logger of a Generator. The
// handler is passed on to the finder and the patches it creates.
func WithLogger(h slog.Handler) Option {
	return func(g *Generator) {
		g.log = slog.New(h)
	}
}

// WithFs returns an Option that sets the file system a Generator reads from and
// writes to. Defaults to the OS file system.
func WithFs(fsys afero.Fs) Option {
	return func(g *Generator) {
		g.fs = fsys
	}
}

// Output returns an Option that sets the file name of the aggregator header.
// The name is relative to the root. Defaults to DefaultOutput.
func Output(name string) Option {
	return func(g *Generator) {
		g.output = name
	}
}

// IncludePrefix returns an Option that sets the directory that include
// directives start with. Defaults to the root as passed to New.
func IncludePrefix(prefix string) Option {
	return func(g *Generator) {
		g.prefix = &prefix
	}
}

// FindWith returns an Option that passes options to the finder.
func FindWith(opts ...find.Option) Option {
	return func(g *Generator) {
		g.findOpts = append(g.findOpts, opts...)
	}
}

// New returns a Generator for the given root directory.
func New(root string, opts ...Option) *Generator {
	g := &Generator{
		root:   root,
		output: DefaultOutput,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.fs == nil {
		g.fs = afero.NewOsFs()
	}
	if g.log == nil {
		g.log = internal.NopLogger()
	}
	return g
}

// Root returns the root directory.
func (g *Generator) Root() string {
	return g.root
}

// OutputPath returns the path of the aggregator header.
func (g *Generator) OutputPath() string {
	return filepath.Join(g.root, g.output)
}

// Find returns the scene headers below the root, sorted by path. It returns
// ErrRootNotFound if the root is not a directory. The aggregator header itself
// is never returned.
func (g *Generator) Find(ctx context.Context) ([]Scene, error) {
	if ok, err := afero.DirExists(g.fs, g.root); err != nil {
		return nil, fmt.Errorf("stat %s: %w", g.root, err)
	} else if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, g.root)
	}

	g.log.Info("Searching for scene files ...", "root", g.root)

	opts := append([]find.Option{find.WithLogger(g.log.Handler())}, g.findOpts...)

	paths, err := find.New(g.rootFS(), opts...).Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("find scene files: %w", err)
	}

	output := filepath.ToSlash(filepath.Clean(g.output))
	paths = slice.Filter(paths, func(p string) bool { return p != output })

	prefix := filepath.ToSlash(g.root)
	if g.prefix != nil {
		prefix = *g.prefix
	}

	return slice.Map(paths, func(p string) Scene {
		return Scene{Path: p, Include: path.Join(prefix, p)}
	}), nil
}

// rootFS returns the root directory as an fs.FS. BasePathFs rejects every name
// below a base of ".", so the working directory is served unwrapped.
func (g *Generator) rootFS() fs.FS {
	if filepath.Clean(g.root) == "." {
		return afero.NewIOFS(g.fs)
	}
	return afero.NewIOFS(afero.NewBasePathFs(g.fs, g.root))
}

// Generate finds the scene headers and returns a patch that replaces the
// aggregator header. It returns ErrNoScenes if no scene headers were found.
func (g *Generator) Generate(ctx context.Context) (*patch.Patch, error) {
	scenes, err := g.Find(ctx)
	if err != nil {
		return nil, err
	}

	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}

	content := header.Render(slice.Map(scenes, func(s Scene) string { return s.Include }))

	return patch.New(
		g.OutputPath(),
		content,
		patch.Scenes(Paths(scenes)...),
		patch.WithLogger(g.log.Handler()),
	), nil
}

// Update generates the aggregator header and writes it. The previous content
// of the header is replaced entirely. If no scene headers were found, Update
// returns ErrNoScenes and leaves the header untouched.
func (g *Generator) Update(ctx context.Context) (*patch.Patch, error) {
	p, err := g.Generate(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.Apply(ctx, g.fs); err != nil {
		return p, fmt.Errorf("apply patch: %w", err)
	}

	return p, nil
}

// Paths returns the Path of each scene.
func Paths(scenes []Scene) []string {
	return slice.Map(scenes, func(s Scene) string { return s.Path })
}
