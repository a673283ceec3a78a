// Package git wraps the few git CLI queries docsync needs.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git runs queries through the git CLI.
type Git struct {
	// gitPath is the path to the git executable
	gitPath string
}

// NewGit creates a new Git instance.
// It verifies that git is available on the system.
func NewGit(ctx context.Context) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}

	// Verify git works
	cmd := exec.CommandContext(ctx, gitPath, "version")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}

	return &Git{gitPath: gitPath}, nil
}

// TopLevel returns the root of the working tree containing dir.
func (g *Git) TopLevel(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", dir, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed in %s: %w", dir, err)
	}

	top := strings.TrimSpace(string(output))
	if top == "" {
		return "", fmt.Errorf("git rev-parse returned no toplevel for %s", dir)
	}
	return filepath.FromSlash(top), nil
}

// HasUncommittedChanges reports whether any of paths differ from HEAD or
// are untracked. With no paths the whole working tree is checked.
// SECURITY: repoPath must be a validated, trusted path.
func (g *Git) HasUncommittedChanges(ctx context.Context, repoPath string, paths ...string) (bool, error) {
	args := []string{"-C", repoPath, "status", "--porcelain"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}

	output, err := exec.CommandContext(ctx, g.gitPath, args...).Output()
	if err != nil {
		return false, fmt.Errorf("git status failed in %s: %w", repoPath, err)
	}
	return strings.TrimSpace(string(output)) != "", nil
}
