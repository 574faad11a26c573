package shell

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
)

// versionPattern matches the first dotted version number in tool output,
// with an optional patch component.
var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// Available reports whether tool resolves on PATH.
func Available(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}

// CommandVersion runs tool with args (--version by default) and extracts
// the first dotted version number from its output.
func (s *Shell) CommandVersion(ctx context.Context, tool string, args ...string) (string, error) {
	if len(args) == 0 {
		args = []string{"--version"}
	}

	out, err := s.Output(ctx, Command{Argv: append([]string{tool}, args...)})
	if err != nil {
		return "", fmt.Errorf("failed to probe %s version: %w", tool, err)
	}

	v := versionPattern.FindString(out)
	if v == "" {
		return "", fmt.Errorf("no version number in %s output", tool)
	}
	return v, nil
}
