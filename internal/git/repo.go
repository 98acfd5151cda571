package git

import (
	"context"
	"fmt"
	"os/exec"
)

// Git is the root directory of a local Git repository. Commands run with that
// directory as their working directory.
type Git string

// Cmd runs git with the given arguments inside the repository and returns the
// command, its standard output and an error that carries the output on failure.
func (g Git) Cmd(ctx context.Context, args ...string) (*exec.Cmd, []byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = string(g)
	out, err := cmd.Output()
	if err != nil {
		return cmd, out, fmt.Errorf("git %s: %s (%w)", args[0], out, err)
	}
	return cmd, out, nil
}
