package gittest

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modernice/sceneinc/git"
	igit "github.com/modernice/sceneinc/internal/git"
)

// Git is a Git repository with test assertions.
type Git igit.Git

// Init skips the test if git is not installed, then initializes a repository
// in a temporary directory with a local identity and an initial commit.
func Init(t *testing.T) Git {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	g := Git(t.TempDir())
	g.Must(t, "init")
	g.Must(t, "config", "user.name", "sceneinc")
	g.Must(t, "config", "user.email", "sceneinc@example.com")
	g.Must(t, "commit", "--allow-empty", "-m", "initial commit")

	return g
}

// Cmd runs a git command in the repository.
func (g Git) Cmd(args ...string) (*exec.Cmd, []byte, error) {
	return igit.Git(g).Cmd(context.Background(), args...)
}

// Must runs a git command and fails the test if it fails.
func (g Git) Must(t *testing.T, args ...string) []byte {
	t.Helper()

	_, out, err := g.Cmd(args...)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// AssertBranch fails the test if the current branch is not branch.
func (g Git) AssertBranch(t *testing.T, branch string) {
	t.Helper()

	if got := strings.TrimSpace(string(g.Must(t, "branch", "--show-current"))); got != branch {
		t.Fatalf("expected to be in branch %q; branch is %q", branch, got)
	}
}

// AssertBranchPrefix fails the test if the current branch does not start with prefix.
func (g Git) AssertBranchPrefix(t *testing.T, prefix string) {
	t.Helper()

	if got := strings.TrimSpace(string(g.Must(t, "branch", "--show-current"))); !strings.HasPrefix(got, prefix) {
		t.Fatalf("expected branch %q to have prefix %q", got, prefix)
	}
}

// AssertCommit fails the test if the message of the latest commit differs from c.
func (g Git) AssertCommit(t *testing.T, c git.Commit) {
	t.Helper()

	want := c.String()

	if got := strings.TrimSpace(string(g.Must(t, "log", "-1", "--pretty=%B"))); got != want {
		t.Fatalf("unexpected commit message\n%s\n\nwant:\n%s\n\ngot:\n%s", cmp.Diff(want, got), want, got)
	}
}

// AssertTracked fails the test if path is not tracked in HEAD.
func (g Git) AssertTracked(t *testing.T, path string) {
	t.Helper()

	if _, _, err := g.Cmd("cat-file", "-e", "HEAD:"+path); err != nil {
		t.Fatalf("expected %q to be committed: %v", path, err)
	}
}
