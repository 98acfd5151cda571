package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/modernice/sceneinc/internal"
	"github.com/modernice/sceneinc/internal/git"
	"github.com/spf13/afero"
	"golang.org/x/exp/slog"
)

// DefaultBranch is the branch that Commit creates when no Branch option is given.
const DefaultBranch = "sceneinc-patch"

// Patch is a set of file changes that can be written to a file system.
type Patch interface {
	// Apply writes the changes to fsys.
	Apply(ctx context.Context, fsys afero.Fs) error

	// Files returns the paths of the files that Apply writes.
	Files() []string
}

// Committer is implemented by patches that provide their own commit message.
type Committer interface {
	Commit() Commit
}

// Repository is a local Git repository that patches can be committed to. Use
// Repo to create a Repository.
type Repository struct {
	root string
	git  git.Git
	log  *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger returns an Option that sets the logger of a Repository.
func WithLogger(h slog.Handler) Option {
	return func(repo *Repository) {
		repo.log = slog.New(h)
	}
}

// Repo returns the Repository at root. A relative root is resolved against the
// working directory.
func Repo(root string, opts ...Option) *Repository {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	repo := &Repository{
		root: root,
		git:  git.Git(root),
	}
	for _, opt := range opts {
		opt(repo)
	}
	if repo.log == nil {
		repo.log = internal.NopLogger()
	}
	return repo
}

// Root returns the root directory of the repository.
func (r *Repository) Root() string {
	return r.root
}

// CommitOption configures a single Commit call.
type CommitOption func(*commit)

// Branch returns a CommitOption that sets the branch to commit to.
func Branch(branch string) CommitOption {
	return func(c *commit) {
		c.branch = branch
	}
}

type commit struct {
	branch string
}

// Commit checks out a new branch, applies p to the working tree and commits the
// files that p has written. The branch defaults to DefaultBranch; if a branch
// with that name already exists, the current Unix timestamp (milliseconds) is
// appended to it. If p implements Committer, its commit message is used,
// otherwise DefaultCommit.
//
// If a step after the checkout fails, the previous branch is checked out again
// and the new branch is deleted. Files written by p stay in the working tree.
//
// Commit returns the name of the branch that was created.
func (r *Repository) Commit(ctx context.Context, p Patch, opts ...CommitOption) (_ string, rerr error) {
	var cfg commit
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.branch == "" {
		cfg.branch = DefaultBranch
	}

	if _, _, err := r.git.Cmd(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+cfg.branch); err == nil {
		cfg.branch = fmt.Sprintf("%s_%d", cfg.branch, time.Now().UnixMilli())
	}

	r.log.Info("[git] Committing patch ...", "branch", cfg.branch)

	prev, err := r.head(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve current branch: %w", err)
	}

	if _, output, err := r.git.Cmd(ctx, "checkout", "-b", cfg.branch); err != nil {
		return "", fmt.Errorf("checkout branch: %w: %s", err, string(output))
	}

	defer func() {
		if rerr != nil {
			rerr = errors.Join(rerr, r.rollback(prev, cfg.branch))
		}
	}()

	if err := p.Apply(ctx, afero.NewBasePathFs(afero.NewOsFs(), r.root)); err != nil {
		return "", fmt.Errorf("apply patch to repository %s: %w", r.root, err)
	}

	if _, _, err := r.git.Cmd(ctx, append([]string{"add", "--"}, p.Files()...)...); err != nil {
		return "", fmt.Errorf("add changes: %w", err)
	}

	c := DefaultCommit()
	if com, ok := p.(Committer); ok {
		c = com.Commit()
	}

	args := []string{"commit"}
	for _, para := range c.Paragraphs() {
		args = append(args, "-m", para)
	}

	if _, _, err := r.git.Cmd(ctx, args...); err != nil {
		return "", fmt.Errorf("commit patch: %w", err)
	}

	return cfg.branch, nil
}

// head returns the current branch, or the current commit if HEAD is detached.
func (r *Repository) head(ctx context.Context) (string, error) {
	_, out, err := r.git.Cmd(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if ref := strings.TrimSpace(string(out)); ref != "HEAD" {
		return ref, nil
	}
	if _, out, err = r.git.Cmd(ctx, "rev-parse", "HEAD"); err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *Repository) rollback(prev, branch string) error {
	ctx := context.Background()

	r.log.Warn("[git] Rolling back ...", "branch", prev)

	if _, _, err := r.git.Cmd(ctx, "checkout", prev); err != nil {
		return fmt.Errorf("check out %s: %w", prev, err)
	}

	if _, _, err := r.git.Cmd(ctx, "branch", "-D", branch); err != nil {
		return fmt.Errorf("delete branch %s: %w", branch, err)
	}

	return nil
}
