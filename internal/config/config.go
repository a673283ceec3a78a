// Package config loads docsync's project configuration from .docsync.yaml
// and DOCSYNC_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/docsync/internal/docs"
	"github.com/steveyegge/docsync/internal/tracker"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file, looked up in the project root
const FileName = ".docsync.yaml"

// TrackedIssue is one of the three issues the generated sections report on
type TrackedIssue struct {
	ID            string `yaml:"id"`
	ProgressLabel string `yaml:"progress_label"`
	VisionLabel   string `yaml:"vision_label"`
}

// Issues names the foundation milestone, the stress-test harness and the
// release gate
type Issues struct {
	Foundation  TrackedIssue `yaml:"foundation"`
	Harness     TrackedIssue `yaml:"harness"`
	ReleaseGate TrackedIssue `yaml:"release_gate"`
}

// Document is a Markdown file with one generated region
type Document struct {
	Path   string      `yaml:"path"`
	Region docs.Region `yaml:"markers"`
}

// Documents lists the two generated targets
type Documents struct {
	Progress Document `yaml:"progress"`
	Vision   Document `yaml:"vision"`
}

// Config holds everything a sync run needs
type Config struct {
	// Source selects the tracker backend: auto, live or snapshot
	// Default: auto
	Source tracker.Mode

	// BdPath is the bd executable
	// Default: "bd"
	BdPath string

	// BdTimeout bounds each bd invocation; 0 waits forever
	// Default: 30s
	BdTimeout time.Duration

	// SnapshotPath is the JSONL export used when bd is unavailable
	// Default: .beads/issues.jsonl
	SnapshotPath string

	// Command is the invocation named in generated headers
	// Default: "docsync sync"
	Command string

	// StampDate adds the run date to generated headers. Off by default so
	// that unchanged tracker data produces no writes on later days.
	StampDate bool

	Issues    Issues
	Documents Documents
}

// ConfigFile is the on-disk shape of .docsync.yaml
type ConfigFile struct {
	Source       string    `yaml:"source"`
	BdPath       string    `yaml:"bd_path"`
	BdTimeout    string    `yaml:"bd_timeout"` // Duration string like "30s"; "0" disables
	SnapshotPath string    `yaml:"snapshot"`
	Command      string    `yaml:"command"`
	StampDate    *bool     `yaml:"stamp_date"`
	Issues       Issues    `yaml:"issues"`
	Documents    Documents `yaml:"documents"`
}

// DefaultConfig returns the defaults. Issue ids have no sensible default
// and must come from the config file or flags.
func DefaultConfig() *Config {
	return &Config{
		Source:       tracker.ModeAuto,
		BdPath:       "bd",
		BdTimeout:    tracker.DefaultBdTimeout,
		SnapshotPath: filepath.Join(".beads", "issues.jsonl"),
		Command:      "docsync sync",
		Issues: Issues{
			Foundation: TrackedIssue{
				ProgressLabel: "Foundation milestone roadmap",
				VisionLabel:   "Milestone roadmap complete",
			},
			Harness: TrackedIssue{
				ProgressLabel: "Advanced TUI stress harness",
				VisionLabel:   "Real-app harness complete",
			},
			ReleaseGate: TrackedIssue{
				ProgressLabel: "1.0 release gate",
				VisionLabel:   "1.0 parity gate",
			},
		},
		Documents: Documents{
			Progress: Document{
				Path: filepath.Join("docs", "progress-tracker.md"),
				Region: docs.Region{
					Start: "<!-- GENERATED:beads-progress:start -->",
					End:   "<!-- GENERATED:beads-progress:end -->",
				},
			},
			Vision: Document{
				Path: filepath.Join("docs", "vision-vs-implementation.md"),
				Region: docs.Region{
					Start: "<!-- GENERATED:vision-status:start -->",
					End:   "<!-- GENERATED:vision-status:end -->",
				},
			},
		},
	}
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if !c.Source.IsValid() {
		return fmt.Errorf("source must be auto, live or snapshot (got %q)", c.Source)
	}
	if c.Source != tracker.ModeSnapshot && c.BdPath == "" {
		return fmt.Errorf("bd_path is required unless source is snapshot")
	}
	if c.BdTimeout < 0 {
		return fmt.Errorf("bd_timeout cannot be negative (got %v)", c.BdTimeout)
	}
	if c.Source != tracker.ModeLive && c.SnapshotPath == "" {
		return fmt.Errorf("snapshot is required unless source is live")
	}

	issues := []struct {
		name  string
		issue TrackedIssue
	}{
		{"foundation", c.Issues.Foundation},
		{"harness", c.Issues.Harness},
		{"release_gate", c.Issues.ReleaseGate},
	}
	for _, it := range issues {
		if it.issue.ID == "" {
			return fmt.Errorf("issues.%s.id is required", it.name)
		}
	}

	documents := []struct {
		name string
		doc  Document
	}{
		{"progress", c.Documents.Progress},
		{"vision", c.Documents.Vision},
	}
	for _, d := range documents {
		if d.doc.Path == "" {
			return fmt.Errorf("documents.%s.path is required", d.name)
		}
		if err := d.doc.Region.Validate(); err != nil {
			return fmt.Errorf("documents.%s.markers: %w", d.name, err)
		}
	}
	if filepath.Clean(c.Documents.Progress.Path) == filepath.Clean(c.Documents.Vision.Path) &&
		c.Documents.Progress.Region == c.Documents.Vision.Region {
		return fmt.Errorf("progress and vision documents must not share the same region")
	}
	return nil
}

// String returns a human-readable representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s, BdPath: %s, BdTimeout: %v, Snapshot: %s, "+
			"Gate: %s, Progress: %s, Vision: %s, StampDate: %t}",
		c.Source, c.BdPath, c.BdTimeout, c.SnapshotPath,
		c.Issues.ReleaseGate.ID, c.Documents.Progress.Path, c.Documents.Vision.Path, c.StampDate,
	)
}

// Load reads .docsync.yaml from projectRoot (defaults if absent), applies
// environment overrides and resolves relative paths against projectRoot.
// The result is not validated so that flags can still fill in gaps.
func Load(projectRoot string) (*Config, error) {
	cfg, err := LoadFile(filepath.Join(projectRoot, FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Resolve(projectRoot)
	return cfg, nil
}

// LoadFile parses a config file. A missing file yields DefaultConfig.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is under the project root
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return file.ToConfig()
}

// ToConfig overlays the file's settings on DefaultConfig
func (cf *ConfigFile) ToConfig() (*Config, error) {
	cfg := DefaultConfig()

	if cf.Source != "" {
		cfg.Source = tracker.Mode(cf.Source)
	}
	if cf.BdPath != "" {
		cfg.BdPath = cf.BdPath
	}
	if cf.BdTimeout != "" {
		timeout, err := time.ParseDuration(cf.BdTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid bd_timeout: %w", err)
		}
		cfg.BdTimeout = timeout
	}
	if cf.SnapshotPath != "" {
		cfg.SnapshotPath = cf.SnapshotPath
	}
	if cf.Command != "" {
		cfg.Command = cf.Command
	}
	if cf.StampDate != nil {
		cfg.StampDate = *cf.StampDate
	}

	mergeIssue(&cfg.Issues.Foundation, cf.Issues.Foundation)
	mergeIssue(&cfg.Issues.Harness, cf.Issues.Harness)
	mergeIssue(&cfg.Issues.ReleaseGate, cf.Issues.ReleaseGate)
	mergeDocument(&cfg.Documents.Progress, cf.Documents.Progress)
	mergeDocument(&cfg.Documents.Vision, cf.Documents.Vision)

	return cfg, nil
}

func mergeIssue(dst *TrackedIssue, src TrackedIssue) {
	if src.ID != "" {
		dst.ID = src.ID
	}
	if src.ProgressLabel != "" {
		dst.ProgressLabel = src.ProgressLabel
	}
	if src.VisionLabel != "" {
		dst.VisionLabel = src.VisionLabel
	}
}

func mergeDocument(dst *Document, src Document) {
	if src.Path != "" {
		dst.Path = src.Path
	}
	if src.Region.Start != "" {
		dst.Region.Start = src.Region.Start
	}
	if src.Region.End != "" {
		dst.Region.End = src.Region.End
	}
}

// Resolve makes the snapshot and document paths absolute, relative to
// projectRoot
func (c *Config) Resolve(projectRoot string) {
	c.SnapshotPath = resolvePath(projectRoot, c.SnapshotPath)
	c.Documents.Progress.Path = resolvePath(projectRoot, c.Documents.Progress.Path)
	c.Documents.Vision.Path = resolvePath(projectRoot, c.Documents.Vision.Path)
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
