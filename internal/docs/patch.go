// Package docs rewrites generated regions inside hand-written Markdown
// documents. A region is everything between a start and an end marker; the
// markers and all text outside them are left byte-for-byte intact.
package docs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMarkerNotFound means a document lacks a usable start/end marker pair
var ErrMarkerNotFound = errors.New("missing or invalid generated markers")

// ErrMarkerInContent means the replacement text contains one of the region's
// own markers and could not be located again on the next run
var ErrMarkerInContent = errors.New("generated content contains a region marker")

// Region identifies a generated span by its marker literals
type Region struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Validate checks that both markers are set and distinct
func (r Region) Validate() error {
	if r.Start == "" || r.End == "" {
		return fmt.Errorf("region markers must not be empty")
	}
	if r.Start == r.End {
		return fmt.Errorf("start and end markers must differ (both %q)", r.Start)
	}
	return nil
}

func (r Region) String() string {
	return r.Start + " ... " + r.End
}

// Result describes the outcome of patching one document
type Result struct {
	Path    string
	Before  string
	After   string
	Written bool
}

// Changed reports whether the region content differs from the document
func (r *Result) Changed() bool {
	return r.Before != r.After
}

// Splice returns doc with the region's content replaced by replacement,
// wrapped in single newlines. A replacement holding either marker is refused.
func Splice(doc string, region Region, replacement string) (string, error) {
	for _, marker := range []string{region.Start, region.End} {
		if strings.Contains(replacement, marker) {
			return "", fmt.Errorf("%w: %q", ErrMarkerInContent, marker)
		}
	}

	startIdx := strings.Index(doc, region.Start)
	if startIdx == -1 {
		return "", fmt.Errorf("%w: start marker %q not found", ErrMarkerNotFound, region.Start)
	}
	endIdx := strings.Index(doc, region.End)
	if endIdx == -1 {
		return "", fmt.Errorf("%w: end marker %q not found", ErrMarkerNotFound, region.End)
	}

	contentStart := startIdx + len(region.Start)
	if endIdx < contentStart {
		return "", fmt.Errorf("%w: end marker %q precedes start marker %q", ErrMarkerNotFound, region.End, region.Start)
	}
	if strings.Contains(doc[contentStart:], region.Start) {
		return "", fmt.Errorf("%w: start marker %q occurs more than once", ErrMarkerNotFound, region.Start)
	}

	var b strings.Builder
	b.Grow(len(doc) + len(replacement))
	b.WriteString(doc[:contentStart])
	b.WriteString("\n")
	b.WriteString(replacement)
	b.WriteString("\n")
	b.WriteString(doc[endIdx:])
	return b.String(), nil
}

// Plan computes the patched document without touching the filesystem
func Plan(path string, region Region, replacement string) (*Result, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- document paths come from project config
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	before := string(data)
	after, err := Splice(before, region, replacement)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Result{Path: path, Before: before, After: after}, nil
}

// Patch replaces the region's content in the document at path. When the
// new document equals the current one byte-for-byte nothing is written.
func Patch(path string, region Region, replacement string) (*Result, error) {
	result, err := Plan(path, region, replacement)
	if err != nil {
		return nil, err
	}
	if !result.Changed() {
		return result, nil
	}

	if err := writeFileAtomic(path, []byte(result.After)); err != nil {
		return nil, err
	}
	result.Written = true
	return result, nil
}

// writeFileAtomic writes data next to path and renames it into place, so a
// concurrent reader sees either the old or the new document.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".docsync-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }() // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set mode on %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
