package tracker

import (
	"context"
	"fmt"

	"github.com/steveyegge/docsync/internal/types"
)

// SourceKind names the backend that served a run
type SourceKind string

const (
	// SourceLive is the bd CLI
	SourceLive SourceKind = "bd"
	// SourceSnapshot is the local .beads/issues.jsonl export
	SourceSnapshot SourceKind = "snapshot"
)

// Source resolves a single issue with its dependencies expanded
type Source interface {
	Kind() SourceKind
	Show(ctx context.Context, id string) (*types.Issue, error)
}

// Mode controls how the Reader picks its source
type Mode string

const (
	// ModeAuto tries the live tracker first and falls back to the snapshot
	ModeAuto Mode = "auto"
	// ModeLive uses only the live tracker
	ModeLive Mode = "live"
	// ModeSnapshot uses only the snapshot
	ModeSnapshot Mode = "snapshot"
)

// IsValid checks if the mode value is valid
func (m Mode) IsValid() bool {
	switch m {
	case ModeAuto, ModeLive, ModeSnapshot:
		return true
	}
	return false
}

// Selection records which source serves a run. It is fixed by the probe
// and never changes afterwards.
type Selection struct {
	Source SourceKind

	// Unavailable is the live tracker failure that forced the fallback.
	// Nil when the selected source answered the probe directly.
	Unavailable error
}

// FellBack reports whether the snapshot was selected because the live
// tracker failed
func (s Selection) FellBack() bool {
	return s.Unavailable != nil
}

// String returns a short operator-facing description
func (s Selection) String() string {
	if s.FellBack() {
		return fmt.Sprintf("%s (fallback: %v)", s.Source, s.Unavailable)
	}
	return string(s.Source)
}

// Reader resolves issues for one sync run. The first lookup probes the
// sources and every later lookup goes to the same one.
type Reader struct {
	live     Source
	snapshot Source
	mode     Mode

	selected  Source
	selection Selection
}

// NewReader creates a reader. Either source may be nil when the mode never
// consults it.
func NewReader(live, snapshot Source, mode Mode) *Reader {
	if mode == "" {
		mode = ModeAuto
	}
	return &Reader{live: live, snapshot: snapshot, mode: mode}
}

// Selection returns the probe outcome, and false if no probe has run yet
func (r *Reader) Selection() (Selection, bool) {
	return r.selection, r.selected != nil
}

// Probe resolves id and fixes the source for the rest of the run.
//
// In auto mode any live failure (missing binary, non-zero exit, timeout,
// unparsable or empty output) selects the snapshot; the failure is kept in
// Selection.Unavailable for operator output. Errors from the selected
// source are returned as-is.
func (r *Reader) Probe(ctx context.Context, id string) (*types.Issue, Selection, error) {
	if r.selected != nil {
		issue, err := r.selected.Show(ctx, id)
		return issue, r.selection, err
	}

	switch r.mode {
	case ModeLive:
		return r.probeOnly(ctx, r.live, id)
	case ModeSnapshot:
		return r.probeOnly(ctx, r.snapshot, id)
	case ModeAuto:
	default:
		return nil, Selection{}, fmt.Errorf("invalid source mode %q", r.mode)
	}

	if r.live == nil {
		return r.probeOnly(ctx, r.snapshot, id)
	}

	issue, liveErr := r.live.Show(ctx, id)
	if liveErr == nil {
		r.selected = r.live
		r.selection = Selection{Source: r.live.Kind()}
		return issue, r.selection, nil
	}
	if ctx.Err() != nil {
		return nil, Selection{}, ctx.Err()
	}
	if r.snapshot == nil {
		return nil, Selection{}, liveErr
	}

	unavailable := liveErr
	r.selected = r.snapshot
	r.selection = Selection{Source: r.snapshot.Kind(), Unavailable: unavailable}

	issue, err := r.snapshot.Show(ctx, id)
	if err != nil {
		return nil, r.selection, fmt.Errorf("live tracker unavailable (%v); %w", unavailable, err)
	}
	return issue, r.selection, nil
}

func (r *Reader) probeOnly(ctx context.Context, src Source, id string) (*types.Issue, Selection, error) {
	if src == nil {
		return nil, Selection{}, fmt.Errorf("%w: no %s source configured", ErrToolUnavailable, r.mode)
	}
	r.selected = src
	r.selection = Selection{Source: src.Kind()}

	issue, err := src.Show(ctx, id)
	if err != nil {
		return nil, r.selection, err
	}
	return issue, r.selection, nil
}

// Resolve returns the issue from the selected source, probing first if
// this is the first lookup of the run.
func (r *Reader) Resolve(ctx context.Context, id string) (*types.Issue, error) {
	if r.selected == nil {
		issue, _, err := r.Probe(ctx, id)
		return issue, err
	}
	return r.selected.Show(ctx, id)
}
