package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/docsync/internal/config"
	"github.com/steveyegge/docsync/internal/git"
	"github.com/steveyegge/docsync/internal/storage"
	"github.com/steveyegge/docsync/internal/tracker"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	rootDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docsync",
	Short: "Keep generated project-status sections in sync with Beads",
	Long: `docsync reads milestone and release-gate issues from the Beads tracker
and rewrites the generated regions of the project's status documents.

The live bd CLI is preferred. When it is missing or failing, docsync falls
back to the JSONL snapshot at .beads/issues.jsonl and says so.

Settings come from .docsync.yaml in the project root, DOCSYNC_* environment
variables and command-line flags, in increasing order of precedence.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root (default: current directory, then git toplevel)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// debugf prints when --verbose or DOCSYNC_DEBUG is set
func debugf(format string, args ...interface{}) {
	if verbose || os.Getenv("DOCSYNC_DEBUG") != "" {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// resolveProjectRoot finds the project root. An explicit --root wins; then
// the current directory; then the enclosing git working tree.
func resolveProjectRoot(ctx context.Context) (string, error) {
	if rootDir != "" {
		abs, err := filepath.Abs(rootDir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve --root: %w", err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return "", fmt.Errorf("--root %s is not a directory", abs)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	root, err := storage.DiscoverProjectRoot(cwd)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, storage.ErrNoProject) {
		return "", err
	}

	g, gitErr := git.NewGit(ctx)
	if gitErr != nil {
		debugf("git unavailable for root discovery: %v", gitErr)
		return "", err
	}
	top, gitErr := g.TopLevel(ctx, cwd)
	if gitErr != nil {
		debugf("not inside a git working tree: %v", gitErr)
		return "", err
	}
	debugf("using git toplevel %s", top)
	return storage.DiscoverProjectRoot(top)
}

// trackerFlags are the tracker and target overrides shared by sync, show
// and doctor
type trackerFlags struct {
	source     string
	bdPath     string
	bdTimeout  time.Duration
	snapshot   string
	foundation string
	harness    string
	gate       string
	stampDate  bool
}

func (f *trackerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "Tracker source: auto, live or snapshot (default from config: auto)")
	cmd.Flags().StringVar(&f.bdPath, "bd", "", "bd executable (default from config: bd)")
	cmd.Flags().DurationVar(&f.bdTimeout, "bd-timeout", tracker.DefaultBdTimeout, "Timeout for each bd invocation; 0 waits forever")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "JSONL snapshot path (default from config: .beads/issues.jsonl)")
	cmd.Flags().StringVar(&f.foundation, "foundation", "", "Foundation milestone issue id")
	cmd.Flags().StringVar(&f.harness, "harness", "", "Stress-test harness issue id")
	cmd.Flags().StringVar(&f.gate, "gate", "", "Release gate issue id")
	cmd.Flags().BoolVar(&f.stampDate, "stamp-date", false, "Add the run date to generated headers")
}

// apply overlays the flags the user actually set on cfg
func (f *trackerFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = tracker.Mode(f.source)
	}
	if flags.Changed("bd") {
		cfg.BdPath = f.bdPath
	}
	if flags.Changed("bd-timeout") {
		cfg.BdTimeout = f.bdTimeout
	}
	if flags.Changed("snapshot") {
		cfg.SnapshotPath = f.snapshot
	}
	if flags.Changed("foundation") {
		cfg.Issues.Foundation.ID = f.foundation
	}
	if flags.Changed("harness") {
		cfg.Issues.Harness.ID = f.harness
	}
	if flags.Changed("gate") {
		cfg.Issues.ReleaseGate.ID = f.gate
	}
	if flags.Changed("stamp-date") {
		cfg.StampDate = f.stampDate
	}
}

// loadConfig resolves the project root and builds the effective config
func loadConfig(ctx context.Context, cmd *cobra.Command, flags *trackerFlags) (string, *config.Config, error) {
	root, err := resolveProjectRoot(ctx)
	if err != nil {
		return "", nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return "", nil, err
	}
	flags.apply(cmd, cfg)
	cfg.Resolve(root)

	debugf("project root: %s", root)
	debugf("%s", cfg)
	return root, cfg, nil
}

// newReader builds a Reader with only the sources the mode can consult
func newReader(cfg *config.Config) *tracker.Reader {
	var live, snapshot tracker.Source
	if cfg.Source != tracker.ModeSnapshot {
		live = tracker.NewLiveSource(cfg.BdPath, cfg.BdTimeout, nil)
	}
	if cfg.Source != tracker.ModeLive {
		snapshot = tracker.NewSnapshotSource(tracker.NewSnapshotStore(cfg.SnapshotPath))
	}
	return tracker.NewReader(live, snapshot, cfg.Source)
}
