package git

import "strings"

const (
	defaultMsg    = "chore: update scene includes"
	defaultFooter = "This commit was created by sceneinc."
)

// Commit is a commit message made of a subject line (Msg), an optional
// description and an optional footer. Each part becomes its own paragraph.
type Commit struct {
	Msg    string
	Desc   []string
	Footer string
}

// NewCommit returns a Commit with the given subject and description lines.
func NewCommit(msg string, desc ...string) Commit {
	return Commit{
		Msg:  msg,
		Desc: desc,
	}
}

// DefaultCommit returns the Commit that is used for patches that don't provide
// their own message.
func DefaultCommit() Commit {
	c := NewCommit(defaultMsg)
	c.Footer = defaultFooter
	return c
}

// Equal reports whether c and c2 describe the same message.
func (c Commit) Equal(c2 Commit) bool {
	return c.Msg == c2.Msg && c.Footer == c2.Footer && allEqual(c.Desc, c2.Desc)
}

func allEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Paragraphs returns the subject, the description (joined by newlines) and the
// footer, skipping empty parts. An empty subject is replaced by the default one.
func (c Commit) Paragraphs() []string {
	out := make([]string, 0, 3)
	if c.Msg == "" {
		c.Msg = defaultMsg
	}
	out = append(out, c.Msg)
	if len(c.Desc) > 0 {
		out = append(out, strings.Join(c.Desc, "\n"))
	}
	if c.Footer != "" {
		out = append(out, c.Footer)
	}
	return out
}

// String returns the full commit message.
func (c Commit) String() string {
	return strings.Join(c.Paragraphs(), "\n\n")
}
