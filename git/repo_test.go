package git_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modernice/sceneinc/git"
	"github.com/modernice/sceneinc/header"
	"github.com/modernice/sceneinc/internal/git/gittest"
	ipatch "github.com/modernice/sceneinc/internal/patch"
	"github.com/modernice/sceneinc/internal/tests"
	"github.com/modernice/sceneinc/patch"
	"github.com/spf13/afero"
)

func TestRepository_Commit(t *testing.T) {
	g := gittest.Init(t)
	root := string(g)
	tests.WriteTree(t, root, tests.Tree{"scenes/a/x.hpp": "struct scene_model {};"})

	content := header.Render([]string{"scenes/a/x.hpp"})
	p := patch.New("scenes/scenes.hpp", content, patch.Scenes("a/x.hpp"))

	branch, err := git.Repo(root).Commit(context.Background(), p)
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	if branch != git.DefaultBranch {
		t.Fatalf("Commit() should create branch %q; got %q", git.DefaultBranch, branch)
	}

	g.AssertBranch(t, git.DefaultBranch)
	g.AssertCommit(t, git.Commit{
		Msg: "chore: update scene includes",
		Desc: []string{
			"Included scenes (1):",
			"  - a/x.hpp",
		},
		Footer: "This commit was created by sceneinc.",
	})
	g.AssertTracked(t, "scenes/scenes.hpp")

	tests.ExpectFile(t, filepath.Join(root, "scenes", "scenes.hpp"), string(content))

	if out := string(g.Must(t, "status", "--porcelain")); !strings.Contains(out, "scenes/a/") {
		t.Fatalf("only the patched files should be committed; status:\n%s", out)
	}
}

func TestRepository_Commit_existingBranch(t *testing.T) {
	g := gittest.Init(t)
	root := string(g)
	tests.WriteTree(t, root, tests.Tree{"scenes/.keep": ""})

	g.Must(t, "branch", "update-scenes")

	p := patch.New("scenes/scenes.hpp", header.Render([]string{"scenes/a.hpp"}))

	branch, err := git.Repo(root).Commit(context.Background(), p, git.Branch("update-scenes"))
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	if branch == "update-scenes" || !strings.HasPrefix(branch, "update-scenes_") {
		t.Fatalf("Commit() should create a new branch with a timestamp suffix; got %q", branch)
	}

	g.AssertBranchPrefix(t, "update-scenes_")
}

func TestCommit_String(t *testing.T) {
	c := git.NewCommit("chore: update scene includes", "Included scenes (1):", "  - a.hpp")
	c.Footer = "footer"

	want := "chore: update scene includes\n\nIncluded scenes (1):\n  - a.hpp\n\nfooter"
	if got := c.String(); got != want {
		t.Fatalf("String() = %q; want %q", got, want)
	}

	if got := (git.Commit{}).Paragraphs(); len(got) != 1 || got[0] != "chore: update scene includes" {
		t.Fatalf("empty commit should fall back to the default subject; got %v", got)
	}
}

func TestRepository_Commit_defaultMessage(t *testing.T) {
	g := gittest.Init(t)
	root := string(g)

	p := ipatch.Mock(map[string]string{
		"scenes/scenes.hpp": "#pragma once\n",
		"scenes/extra.hpp":  "struct scene_model {};\n",
	})

	if _, err := git.Repo(root).Commit(context.Background(), p, git.Branch("scenes")); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	g.AssertBranch(t, "scenes")
	g.AssertCommit(t, git.DefaultCommit())
	for _, file := range p.Files() {
		g.AssertTracked(t, file)
	}
}

func TestRepository_Commit_rollback(t *testing.T) {
	g := gittest.Init(t)
	before := strings.TrimSpace(string(g.Must(t, "branch", "--show-current")))

	_, err := git.Repo(string(g)).Commit(context.Background(), failingPatch{}, git.Branch("broken"))
	if !errors.Is(err, errApply) {
		t.Fatalf("Commit() should fail with %q; got %v", errApply, err)
	}

	g.AssertBranch(t, before)

	if _, _, err := g.Cmd("rev-parse", "--verify", "--quiet", "refs/heads/broken"); err == nil {
		t.Fatalf("branch %q should be deleted after a failed commit", "broken")
	}
}

func TestRepository_Commit_relativeRoot(t *testing.T) {
	g := gittest.Init(t)
	tests.WriteTree(t, string(g), tests.Tree{"scenes/a.hpp": "struct scene_model {};"})
	tests.Chdir(t, string(g))

	p := patch.New("scenes/scenes.hpp", header.Render([]string{"scenes/a.hpp"}))

	if _, err := git.Repo(".").Commit(context.Background(), p); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	g.AssertBranch(t, git.DefaultBranch)
	g.AssertTracked(t, "scenes/scenes.hpp")
}

var errApply = errors.New("apply failed")

type failingPatch struct{}

func (failingPatch) Apply(context.Context, afero.Fs) error { return errApply }

func (failingPatch) Files() []string { return []string{"scenes/scenes.hpp"} }
