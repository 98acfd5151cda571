// Package header renders the aggregator header that includes every scene.
package header

import (
	"bytes"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
)

var preamble = heredoc.Doc(`
	// All scenes must be included in this file
	//  If you add a new scene: its corresponding header file must be included
	//  This can be done manually or using the automatic script
`)

// Render returns the aggregator content for the given include paths. Paths are
// written in the order they are passed.
func Render(includes []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("\n#pragma once\n\n")
	buf.WriteString(strings.TrimRight(preamble, "\n"))
	buf.WriteString("\n\n")
	for _, inc := range includes {
		buf.WriteString(Include(inc))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Include returns the include directive for path. The path is written verbatim.
func Include(path string) string {
	return `#include "` + path + `"`
}
