package find

import (
	"io/fs"
	"strings"
)

// Skip holds the rules that exclude directories and files from a search.
// Hidden excludes directories whose name starts with a dot, Dotfiles does the
// same for files. Dir and File are custom rules that run after the built-in
// ones. A Skip can be passed to New as an Option.
type Skip struct {
	Hidden   bool
	Dotfiles bool

	Dir  func(Entry) bool
	File func(Entry) bool
}

// Entry is a directory entry together with its path relative to the root of
// the searched file system.
type Entry struct {
	fs.DirEntry
	Path string
}

// SkipNone returns a Skip that excludes nothing. This is the default of a
// Finder: every directory below the root is searched.
func SkipNone() Skip {
	return Skip{}
}

// SkipHidden returns a Skip that excludes hidden directories and dotfiles.
func SkipHidden() Skip {
	return Skip{
		Hidden:   true,
		Dotfiles: true,
	}
}

func (s Skip) apply(f *Finder) {
	f.skip = &s
}

// ExcludeDir reports whether the directory e should not be searched.
func (s Skip) ExcludeDir(e Entry) bool {
	if s.Hidden && strings.HasPrefix(e.Name(), ".") {
		return true
	}

	if s.Dir != nil {
		return s.Dir(e)
	}

	return false
}

// ExcludeFile reports whether the file e should not be inspected.
func (s Skip) ExcludeFile(e Entry) bool {
	if s.Dotfiles && strings.HasPrefix(e.Name(), ".") {
		return true
	}

	if s.File != nil {
		return s.File(e)
	}

	return false
}
