// Package syncer drives one end-to-end documentation sync: resolve the
// tracked issues, summarize the release gate, render both sections and patch
// the target documents.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/steveyegge/docsync/internal/config"
	"github.com/steveyegge/docsync/internal/docs"
	"github.com/steveyegge/docsync/internal/progress"
	"github.com/steveyegge/docsync/internal/tracker"
	"github.com/steveyegge/docsync/internal/types"
)

// ErrDrift is returned in check mode when a document is out of date
var ErrDrift = errors.New("generated sections are out of date")

// IssueResolver is the part of tracker.Reader the syncer uses
type IssueResolver interface {
	Probe(ctx context.Context, id string) (*types.Issue, tracker.Selection, error)
	Resolve(ctx context.Context, id string) (*types.Issue, error)
}

// Options configures a Syncer
type Options struct {
	Config *config.Config
	Reader IssueResolver

	// Check computes the documents without writing and reports drift
	Check bool

	// Now is used for the optional date stamp. Defaults to time.Now.
	Now func() time.Time

	// RunID identifies the run in the report. Generated when empty.
	RunID string
}

// Syncer runs a single sync. It is not safe for concurrent use and a
// fresh one is built per run.
type Syncer struct {
	cfg    *config.Config
	reader IssueResolver
	check  bool
	now    func() time.Time
	runID  string
}

// New validates opts and returns a Syncer
func New(opts Options) (*Syncer, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Syncer{
		cfg:    opts.Config,
		reader: opts.Reader,
		check:  opts.Check,
		now:    opts.Now,
		runID:  opts.RunID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.runID == "" {
		s.runID = uuid.New().String()
	}
	return s, nil
}

// Report describes a completed (or partially completed) run
type Report struct {
	RunID     string
	Selection tracker.Selection
	Summary   progress.Summary
	Documents []*docs.Result
}

// Written returns the documents that were rewritten
func (r *Report) Written() []*docs.Result {
	var written []*docs.Result
	for _, d := range r.Documents {
		if d.Written {
			written = append(written, d)
		}
	}
	return written
}

// Drifted returns the documents whose generated region differs from the
// tracker
func (r *Report) Drifted() []*docs.Result {
	var drifted []*docs.Result
	for _, d := range r.Documents {
		if d.Changed() {
			drifted = append(drifted, d)
		}
	}
	return drifted
}

// Run performs the sync.
//
// Any unresolvable issue, malformed source or marker problem aborts the run.
// Documents are patched one after another; if the second fails the first
// stays written and the returned report lists it alongside the error.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: s.runID}
	issues := s.cfg.Issues

	foundation, sel, err := s.reader.Probe(ctx, issues.Foundation.ID)
	report.Selection = sel
	if err != nil {
		return report, fmt.Errorf("resolving foundation issue %s: %w", issues.Foundation.ID, err)
	}
	harness, err := s.reader.Resolve(ctx, issues.Harness.ID)
	if err != nil {
		return report, fmt.Errorf("resolving harness issue %s from %s: %w", issues.Harness.ID, sel.Source, err)
	}
	gate, err := s.reader.Resolve(ctx, issues.ReleaseGate.ID)
	if err != nil {
		return report, fmt.Errorf("resolving release gate %s from %s: %w", issues.ReleaseGate.ID, sel.Source, err)
	}

	report.Summary = progress.Summarize(gate)

	input := progress.Input{
		Foundation:  progress.Row{Issue: foundation, ProgressLabel: issues.Foundation.ProgressLabel, VisionLabel: issues.Foundation.VisionLabel},
		Harness:     progress.Row{Issue: harness, ProgressLabel: issues.Harness.ProgressLabel, VisionLabel: issues.Harness.VisionLabel},
		ReleaseGate: progress.Row{Issue: gate, ProgressLabel: issues.ReleaseGate.ProgressLabel, VisionLabel: issues.ReleaseGate.VisionLabel},
		Summary:     report.Summary,
		Command:     s.cfg.Command,
	}
	if s.cfg.StampDate {
		input.GeneratedOn = s.now().UTC().Format("2006-01-02")
	}

	targets := []struct {
		doc  config.Document
		text string
	}{
		{s.cfg.Documents.Progress, progress.RenderProgress(input)},
		{s.cfg.Documents.Vision, progress.RenderVision(input)},
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var result *docs.Result
		if s.check {
			result, err = docs.Plan(target.doc.Path, target.doc.Region, target.text)
		} else {
			result, err = docs.Patch(target.doc.Path, target.doc.Region, target.text)
		}
		if err != nil {
			return report, err
		}
		report.Documents = append(report.Documents, result)
	}

	if s.check {
		if drifted := report.Drifted(); len(drifted) > 0 {
			return report, fmt.Errorf("%w: %d of %d documents", ErrDrift, len(drifted), len(report.Documents))
		}
	}
	return report, nil
}
