// Package tracker resolves issues from the beads tracker, either by asking
// the live bd CLI or by reading the .beads/issues.jsonl snapshot.
package tracker

import "errors"

var (
	// ErrToolUnavailable means the live tracker could not answer. During the
	// probe it selects the snapshot source instead of failing the run.
	ErrToolUnavailable = errors.New("tracker tool unavailable")

	// ErrMalformedData means a source exists but its content cannot be trusted.
	ErrMalformedData = errors.New("malformed tracker data")

	// ErrNotFound means the issue is absent from the active source.
	ErrNotFound = errors.New("issue not found")
)
