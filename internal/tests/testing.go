package tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Must panics if err is not nil and returns v otherwise.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Tree maps slash-separated file paths to file contents.
type Tree map[string]string

// WriteTree creates the files of tree below root, creating directories as needed.
func WriteTree(t *testing.T, root string, tree Tree) {
	t.Helper()

	for path, content := range tree {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("create directory for %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// ExpectFile fails the test if the file at path does not have the content want.
func ExpectFile(t *testing.T, path, want string) {
	t.Helper()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	if string(got) != want {
		t.Fatalf("unexpected content of %s:\n%s", path, cmp.Diff(want, string(got)))
	}
}

// ExpectNoFile fails the test if a file exists at path.
func ExpectNoFile(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file at %s; stat returned %v", path, err)
	}
}

// Chdir changes the working directory to dir and restores it when the test ends.
func Chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore working directory %s: %v", wd, err)
		}
	})
}
