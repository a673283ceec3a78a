package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/steveyegge/docsync/internal/config"
	"github.com/steveyegge/docsync/internal/git"
	"github.com/steveyegge/docsync/internal/storage"
	"github.com/steveyegge/docsync/internal/syncer"
	"github.com/steveyegge/docsync/internal/tracker"
)

var syncFlags trackerFlags

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Regenerate the status sections from Beads",
	Long: `Resolve the foundation, harness and release-gate issues, summarize the
release gate's dependencies and rewrite the generated regions of the progress
tracker and the vision document.

Only the text between each document's start and end markers is replaced.
Documents whose generated text is already current are left untouched.

Examples:
  # Sync using bd, falling back to .beads/issues.jsonl
  docsync sync

  # Fail (exit 1) if either document is out of date, writing nothing
  docsync sync --check

  # Never call bd
  docsync sync --source snapshot`,
	Run: func(cmd *cobra.Command, args []string) {
		check, _ := cmd.Flags().GetBool("check")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		root, cfg, err := loadConfig(ctx, cmd, &syncFlags)
		if err == nil {
			err = runSync(ctx, os.Stdout, root, cfg, check)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			stop()
			os.Exit(1)
		}
	},
}

func init() {
	syncCmd.Flags().Bool("check", false, "Report drift without writing; exit 1 if any document is out of date")
	syncFlags.register(syncCmd)
	rootCmd.AddCommand(syncCmd)
}

// runSync performs one sync against the project at root and prints the
// outcome to out. Warnings go to stderr.
func runSync(ctx context.Context, out io.Writer, root string, cfg *config.Config, check bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	runID := uuid.New().String()
	debugf("run %s", runID)

	if !check {
		lockPath, err := storage.AcquireLock(root, runID, version)
		if err != nil {
			return err
		}
		defer func() {
			if releaseErr := storage.ReleaseLock(lockPath, runID); releaseErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", releaseErr)
			}
		}()

		warnUncommitted(ctx, root, cfg)
	}

	s, err := syncer.New(syncer.Options{
		Config: cfg,
		Reader: newReader(cfg),
		Check:  check,
		RunID:  runID,
	})
	if err != nil {
		return err
	}

	report, runErr := s.Run(ctx)
	printReport(out, root, cfg, report, check)
	return runErr
}

// warnUncommitted warns about local edits to the target documents. It is
// best effort: a project outside git simply gets no warning.
func warnUncommitted(ctx context.Context, root string, cfg *config.Config) {
	g, err := git.NewGit(ctx)
	if err != nil {
		debugf("skipping uncommitted-changes check: %v", err)
		return
	}

	for _, path := range []string{cfg.Documents.Progress.Path, cfg.Documents.Vision.Path} {
		dirty, err := g.HasUncommittedChanges(ctx, root, path)
		if err != nil {
			debugf("skipping uncommitted-changes check for %s: %v", path, err)
			return
		}
		if dirty {
			fmt.Fprintf(os.Stderr, "Warning: %s has uncommitted changes; its generated region will be rewritten in place\n",
				relPath(root, path))
		}
	}
}

func printReport(out io.Writer, root string, cfg *config.Config, report *syncer.Report, check bool) {
	if report == nil || report.Selection.Source == "" {
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	sel := report.Selection
	if sel.FellBack() {
		fmt.Fprintf(os.Stderr, "Warning: bd unavailable, using snapshot %s: %v\n",
			relPath(root, cfg.SnapshotPath), sel.Unavailable)
		if err := storage.CheckSnapshotFreshness(cfg.SnapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	source := green(string(sel.Source))
	if sel.Source == tracker.SourceSnapshot {
		source = yellow(string(sel.Source))
	}
	fmt.Fprintf(out, "%s Run %s, data source: %s\n", cyan("→"), report.RunID, source)

	if len(report.Documents) > 0 {
		counts := report.Summary.Counts
		fmt.Fprintf(out, "%s Release gate %s: %d / %d closed (%s), %d remaining\n",
			cyan("→"), cfg.Issues.ReleaseGate.ID, counts.Closed, counts.Total,
			report.Summary.Completion(), len(report.Summary.Remaining))
	}

	for _, doc := range report.Documents {
		name := relPath(root, doc.Path)
		switch {
		case check && doc.Changed():
			fmt.Fprintf(out, "%s %s is out of date\n", red("✗"), name)
			fmt.Fprint(out, doc.Diff())
		case doc.Written:
			fmt.Fprintf(out, "%s Updated %s\n", green("✓"), name)
		default:
			fmt.Fprintf(out, "%s %s is up to date\n", green("✓"), name)
		}
		debugf("%s: written=%t changed=%t", doc.Path, doc.Written, doc.Changed())
	}

	if check && len(report.Drifted()) > 0 {
		fmt.Fprintf(out, "Run '%s' to update the generated sections\n", cfg.Command)
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
