package patch_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modernice/sceneinc/git"
	"github.com/modernice/sceneinc/patch"
	"github.com/spf13/afero"
)

var _ interface {
	git.Patch
	git.Committer
} = (*patch.Patch)(nil)

const (
	target  = "scenes/scenes.hpp"
	content = "\n#pragma once\n\n#include \"scenes/a.hpp\"\n"
)

func newFs(t *testing.T) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("scenes", 0755); err != nil {
		t.Fatal(err)
	}
	return fsys
}

func TestPatch_Apply(t *testing.T) {
	fsys := newFs(t)

	p := patch.New(target, []byte(content))

	if err := p.Apply(context.Background(), fsys); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	expectFile(t, fsys, target, content)
}

func TestPatch_Apply_truncates(t *testing.T) {
	fsys := newFs(t)
	old := content + strings.Repeat("#include \"scenes/removed.hpp\"\n", 10)
	if err := afero.WriteFile(fsys, target, []byte(old), 0644); err != nil {
		t.Fatal(err)
	}

	if err := patch.New(target, []byte(content)).Apply(context.Background(), fsys); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	expectFile(t, fsys, target, content)
}

func TestPatch_Apply_readOnly(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())

	err := patch.New(target, []byte(content)).Apply(context.Background(), fsys)
	if err == nil {
		t.Fatalf("Apply() should fail on a read-only file system")
	}

	if errors.Is(err, patch.ErrNotWritten) {
		t.Fatalf("write errors should be returned before the existence check; got %v", err)
	}
}

func TestPatch_Apply_existenceCheck(t *testing.T) {
	fsys := vanishingFs{newFs(t)}

	err := patch.New(target, []byte(content)).Apply(context.Background(), fsys)
	if !errors.Is(err, patch.ErrNotWritten) {
		t.Fatalf("Apply() should fail with %q; got %v", patch.ErrNotWritten, err)
	}
}

func TestPatch_Apply_canceled(t *testing.T) {
	fsys := newFs(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := patch.New(target, []byte(content)).Apply(ctx, fsys); !errors.Is(err, context.Canceled) {
		t.Fatalf("Apply() should fail with %q; got %v", context.Canceled, err)
	}

	if ok, _ := afero.Exists(fsys, target); ok {
		t.Fatalf("canceled Apply() should not write %s", target)
	}
}

func TestPatch_DryRun(t *testing.T) {
	p := patch.New(target, []byte(content))

	want := map[string][]byte{target: []byte(content)}
	if got := p.DryRun(); !cmp.Equal(want, got) {
		t.Fatalf("unexpected dry run result:\n%s", cmp.Diff(want, got))
	}
}

func TestPatch_Diff(t *testing.T) {
	fsys := newFs(t)
	p := patch.New(target, []byte(content))

	d, err := p.Diff(fsys)
	if err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}
	if !strings.Contains(d, `+#include "scenes/a.hpp"`) {
		t.Fatalf("diff against a missing file should add every line; got:\n%s", d)
	}

	if err := afero.WriteFile(fsys, target, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if d, err = p.Diff(fsys); err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}
	if d != "" {
		t.Fatalf("diff against identical content should be empty; got:\n%s", d)
	}

	if err := afero.WriteFile(fsys, target, []byte(content+"#include \"scenes/old.hpp\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if d, err = p.Diff(fsys); err != nil {
		t.Fatalf("Diff() failed: %v", err)
	}
	if !strings.Contains(d, `-#include "scenes/old.hpp"`) {
		t.Fatalf("diff should remove stale includes; got:\n%s", d)
	}
}

func TestPatch_Commit(t *testing.T) {
	p := patch.New(target, []byte(content), patch.Scenes("a.hpp", "b/c.hpp"))

	want := git.Commit{
		Msg: "chore: update scene includes",
		Desc: []string{
			"Included scenes (2):",
			"  - a.hpp",
			"  - b/c.hpp",
		},
		Footer: "This commit was created by sceneinc.",
	}

	if got := p.Commit(); !got.Equal(want) {
		t.Fatalf("unexpected commit:\n%s", cmp.Diff(want, got))
	}

	if got := patch.New(target, nil).Commit(); !got.Equal(git.DefaultCommit()) {
		t.Fatalf("patch without scenes should use the default commit; got %#v", got)
	}
}

func TestPatch_Files(t *testing.T) {
	if got, want := patch.New(target, nil).Files(), []string{target}; !cmp.Equal(want, got) {
		t.Fatalf("unexpected files:\n%s", cmp.Diff(want, got))
	}
}

// vanishingFs accepts writes but never reports the written file afterwards.
type vanishingFs struct {
	afero.Fs
}

func (fs vanishingFs) Stat(name string) (os.FileInfo, error) {
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
}

func expectFile(t *testing.T, fsys afero.Fs, path, want string) {
	t.Helper()

	got, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	if string(got) != want {
		t.Fatalf("unexpected content of %s:\n%s", path, cmp.Diff(want, string(got)))
	}
}
