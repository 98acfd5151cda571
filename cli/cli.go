package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/modernice/sceneinc"
	"github.com/modernice/sceneinc/find"
	"github.com/modernice/sceneinc/git"
	"github.com/modernice/sceneinc/internal"
	"github.com/modernice/sceneinc/patch"
	"github.com/spf13/afero"
	"golang.org/x/exp/slog"
)

// NoScenesMessage is printed when no scene headers were found.
const NoScenesMessage = "No scenes files have been found, something doesn't look correct."

// CLI is the command line of sceneinc. Running it without a command runs update.
type CLI struct {
	Globals

	Update UpdateCmd `cmd:"" default:"withargs" help:"Regenerate the aggregator header."`
	List   ListCmd   `cmd:"" help:"List the scene headers without writing anything."`
}

// Globals are the flags shared by all commands.
type Globals struct {
	Verbose bool `name:"verbose" short:"v" env:"SCENEINC_VERBOSE" help:"Enable verbose logging."`
}

// Search holds the flags that control where and how scene headers are searched.
type Search struct {
	Root    string   `name:"root" default:"scenes" env:"SCENEINC_ROOT" help:"Directory that is searched for scene headers."`
	Output  string   `name:"output" short:"o" default:"scenes.hpp" env:"SCENEINC_OUTPUT" help:"File name of the aggregator header, relative to the root."`
	Prefix  string   `name:"prefix" env:"SCENEINC_PREFIX" help:"Directory that include directives start with. Defaults to the root."`
	Marker  string   `name:"marker" default:"struct scene_model" env:"SCENEINC_MARKER" help:"Declaration a header must contain to be included."`
	Ext     string   `name:"ext" default:".hpp" env:"SCENEINC_EXT" help:"File extension of scene headers."`
	Include []string `name:"include" short:"i" env:"SCENEINC_INCLUDE" help:"Glob pattern(s) to include files, relative to the root."`
	Exclude []string `name:"exclude" short:"e" env:"SCENEINC_EXCLUDE" help:"Glob pattern(s) to exclude files, relative to the root."`
}

// UpdateCmd regenerates the aggregator header.
type UpdateCmd struct {
	Search

	DryRun bool   `name:"dry" default:"false" env:"SCENEINC_DRY_RUN" help:"Print the changes without applying them."`
	Branch string `env:"SCENEINC_BRANCH" help:"Branch name to commit the header to. Leave empty to write it in place."`
}

// ListCmd prints the scene headers that update would include.
type ListCmd struct {
	Search
}

// New parses the command line and returns the kong context.
func New() *kong.Context {
	var cfg CLI
	return kong.Parse(&cfg,
		kong.Name("sceneinc"),
		kong.Description("Keeps the aggregator header of a scenes directory in sync with its scene headers."),
		kong.UsageOnError(),
		kong.Bind(&cfg.Globals),
	)
}

// Run regenerates the aggregator header and reports to stdout.
func (cmd *UpdateCmd) Run(g *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return cmd.Execute(ctx, os.Stdout, g.handler())
}

// Run lists the scene headers on stdout.
func (cmd *ListCmd) Run(g *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return cmd.Execute(ctx, os.Stdout, g.handler())
}

func (g *Globals) handler() slog.Handler {
	if !g.Verbose {
		return internal.NopLogger().Handler()
	}
	return slog.HandlerOptions{Level: slog.LevelDebug}.NewTextHandler(os.Stderr)
}

// Execute regenerates the aggregator header and writes the report to w. If no
// scene headers are found, NoScenesMessage is written and Execute returns nil
// without touching the header.
func (cmd *UpdateCmd) Execute(ctx context.Context, w io.Writer, h slog.Handler) error {
	if cmd.Branch != "" {
		if err := cmd.relativeRoot(); err != nil {
			return err
		}
	}

	gen := cmd.generator(h)

	p, err := gen.Generate(ctx)
	if err != nil {
		return softAbort(w, err)
	}

	printScenes(w, p.Scenes())

	switch {
	case cmd.DryRun:
		return printDryRun(w, p)
	case cmd.Branch != "":
		branch, err := git.Repo(".", git.WithLogger(h)).Commit(ctx, p, git.Branch(cmd.Branch))
		if err != nil {
			return fmt.Errorf("commit %s: %w", p.Target(), err)
		}
		fmt.Fprintf(w, "\nFile %q committed to branch %q\n\n", p.Target(), branch)
		return nil
	}

	if err := p.Apply(ctx, afero.NewOsFs()); err != nil {
		return fmt.Errorf("update %s: %w", p.Target(), err)
	}

	fmt.Fprintf(w, "\nFile %q updated\n\n", p.Target())

	return nil
}

// Execute writes the scene headers below the root to w.
func (cmd *ListCmd) Execute(ctx context.Context, w io.Writer, h slog.Handler) error {
	scenes, err := cmd.generator(h).Find(ctx)
	if err == nil && len(scenes) == 0 {
		err = sceneinc.ErrNoScenes
	}
	if err != nil {
		return softAbort(w, err)
	}

	printScenes(w, sceneinc.Paths(scenes))

	return nil
}

func (s *Search) generator(h slog.Handler) *sceneinc.Generator {
	opts := []sceneinc.Option{
		sceneinc.WithLogger(h),
		sceneinc.Output(s.Output),
		sceneinc.FindWith(
			find.Extension(s.Ext),
			find.Marker(s.Marker),
			find.Include(s.Include...),
			find.Exclude(s.Exclude...),
		),
	}
	if s.Prefix != "" {
		opts = append(opts, sceneinc.IncludePrefix(s.Prefix))
	}
	return sceneinc.New(s.Root, opts...)
}

// relativeRoot rewrites an absolute root relative to the working directory,
// which is the Git repository that patches are committed to.
func (s *Search) relativeRoot() error {
	if !filepath.IsAbs(s.Root) {
		return nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	rel, err := filepath.Rel(wd, s.Root)
	if err != nil {
		return fmt.Errorf("make %s relative to %s: %w", s.Root, wd, err)
	}
	s.Root = rel

	return nil
}

// softAbort writes NoScenesMessage and returns nil if err is ErrNoScenes.
// Other errors are returned unchanged.
func softAbort(w io.Writer, err error) error {
	if errors.Is(err, sceneinc.ErrNoScenes) {
		fmt.Fprintln(w, NoScenesMessage)
		return nil
	}
	return err
}

func printScenes(w io.Writer, paths []string) {
	fmt.Fprintf(w, "The following %d scene files have been found\n", len(paths))
	for _, path := range paths {
		fmt.Fprintf(w, "  - %s\n", path)
	}
}

func printDryRun(w io.Writer, p *patch.Patch) error {
	d, err := p.Diff(afero.NewOsFs())
	if err != nil {
		return fmt.Errorf("diff %s: %w", p.Target(), err)
	}

	if d == "" {
		fmt.Fprintf(w, "\nFile %q is up to date\n\n", p.Target())
		return nil
	}

	fmt.Fprintf(w, "\nFile %q would be updated:\n\n%s\n\n", p.Target(), d)

	return nil
}
