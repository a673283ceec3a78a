package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/steveyegge/docsync/internal/types"
)

// DefaultBdTimeout bounds a single `bd show` invocation
const DefaultBdTimeout = 30 * time.Second

// CommandRunner executes name with args and returns its stdout. Stderr is
// folded into the returned error.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w\n%s", err, msg)
		}
		return out, err
	}
	return out, nil
}

// LiveSource reads issues through `bd show <id> --json`.
type LiveSource struct {
	// BdPath is the bd executable name or path
	BdPath string

	// Timeout bounds each invocation. Zero means wait indefinitely.
	Timeout time.Duration

	run CommandRunner
}

// NewLiveSource creates a live source. A nil runner uses ExecRunner.
func NewLiveSource(bdPath string, timeout time.Duration, run CommandRunner) *LiveSource {
	if bdPath == "" {
		bdPath = "bd"
	}
	if run == nil {
		run = ExecRunner
	}
	return &LiveSource{BdPath: bdPath, Timeout: timeout, run: run}
}

// Kind implements Source
func (l *LiveSource) Kind() SourceKind {
	return SourceLive
}

// Show implements Source.
//
// Process failures (binary missing, non-zero exit, timeout) wrap
// ErrToolUnavailable. Output that is not JSON wraps ErrMalformedData, and
// anything other than a non-empty array wraps ErrNotFound. The Reader decides
// which of these are recoverable.
func (l *LiveSource) Show(ctx context.Context, id string) (*types.Issue, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	out, err := l.run(ctx, l.BdPath, "show", id, "--json")
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s show %s timed out after %v", ErrToolUnavailable, l.BdPath, id, l.Timeout)
		}
		return nil, fmt.Errorf("%w: failed to read beads issue %s: %v", ErrToolUnavailable, id, err)
	}

	return parseShowOutput(id, out)
}

// parseShowOutput decodes the single JSON value bd prints. Only a one or
// more element array counts as a hit; everything else is "not found".
func parseShowOutput(id string, out []byte) (*types.Issue, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty output from bd show %s --json", ErrNotFound, id)
	}

	var value interface{}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON from bd show %s --json: %v", ErrMalformedData, id, err)
	}
	if arr, ok := value.([]interface{}); !ok || len(arr) == 0 {
		return nil, fmt.Errorf("%w: beads issue %s", ErrNotFound, id)
	}

	var issues []*types.Issue
	if err := json.Unmarshal(trimmed, &issues); err != nil {
		return nil, fmt.Errorf("%w: unexpected issue shape from bd show %s --json: %v", ErrMalformedData, id, err)
	}
	issue := issues[0]
	if issue == nil {
		return nil, fmt.Errorf("%w: beads issue %s", ErrNotFound, id)
	}
	if err := issue.Validate(); err != nil {
		return nil, fmt.Errorf("%w: bd show %s --json: %v", ErrMalformedData, id, err)
	}

	for _, dep := range issue.Dependencies {
		if dep.Title == "" && dep.Status == "" {
			dep.Title = dep.DependsOnID
			dep.Status = types.StatusUnknown
		}
	}
	return issue, nil
}
