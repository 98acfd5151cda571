package patch

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MockPatch writes a fixed set of files. It satisfies git.Patch but not
// git.Committer, so it is committed with the default message.
type MockPatch[Content ~string | ~[]byte] struct {
	files map[string]Content
}

// Mock returns a MockPatch that writes files, keyed by path.
func Mock[Content interface{ ~string | ~[]byte }](files map[string]Content) *MockPatch[Content] {
	return &MockPatch[Content]{files}
}

// Apply writes every file to fsys, creating parent directories as needed.
func (p *MockPatch[_]) Apply(ctx context.Context, fsys afero.Fs) error {
	for path, content := range p.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := afero.WriteFile(fsys, path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Files returns the sorted paths of the files written by Apply.
func (p *MockPatch[_]) Files() []string {
	files := maps.Keys(p.files)
	slices.Sort(files)
	return files
}
