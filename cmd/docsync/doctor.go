package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/docsync/internal/config"
	"github.com/steveyegge/docsync/internal/docs"
	"github.com/steveyegge/docsync/internal/storage"
	"github.com/steveyegge/docsync/internal/tracker"
)

var doctorFlags trackerFlags

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that docsync can run in this project",
	Long: `Run health checks to diagnose common docsync setup problems.

This command checks for:
- Project root and configuration
- bd on PATH and answering for the release gate
- Snapshot readability and freshness against the beads database
- Generated-region markers in both documents
- Leftover run locks

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - The configuration is unusable`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		red := color.New(color.FgRed).SprintFunc()

		root, cfg, err := loadConfig(ctx, cmd, &doctorFlags)
		if err != nil {
			fmt.Printf("%s %v\n", red("✗"), err)
			os.Exit(2)
		}
		os.Exit(runDoctor(ctx, os.Stdout, root, cfg))
	},
}

func init() {
	doctorFlags.register(doctorCmd)
	rootCmd.AddCommand(doctorCmd)
}

// runDoctor prints each check to out and returns the exit code
func runDoctor(ctx context.Context, out io.Writer, root string, cfg *config.Config) int {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	var failures, warnings []string
	fail := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		failures = append(failures, msg)
		fmt.Fprintf(out, "  %s %s\n", red("✗"), msg)
	}
	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		warnings = append(warnings, msg)
		fmt.Fprintf(out, "  %s %s\n", yellow("⚠"), msg)
	}
	ok := func(format string, args ...interface{}) {
		fmt.Fprintf(out, "  %s %s\n", green("✓"), fmt.Sprintf(format, args...))
	}

	fmt.Fprintf(out, "Running docsync health checks...\n\n")

	// Check 1: configuration
	fmt.Fprintf(out, "%s Configuration\n", cyan("→"))
	ok("Project root: %s", root)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "  %s %v\n", red("✗"), err)
		fmt.Fprintf(out, "\n%s Fix %s before running sync\n", red("✗"), filepath.Join(root, config.FileName))
		return 2
	}
	ok("Tracking %s, %s and gate %s",
		cfg.Issues.Foundation.ID, cfg.Issues.Harness.ID, cfg.Issues.ReleaseGate.ID)

	gateID := cfg.Issues.ReleaseGate.ID

	// Check 2: live tracker
	fmt.Fprintf(out, "%s Live tracker (%s)\n", cyan("→"), cfg.BdPath)
	liveProblem := warn
	if cfg.Source == tracker.ModeLive {
		liveProblem = fail
	}
	if cfg.Source == tracker.ModeSnapshot {
		ok("Skipped (source is snapshot)")
	} else if bdPath, err := exec.LookPath(cfg.BdPath); err != nil {
		liveProblem("%s not found on PATH", cfg.BdPath)
	} else {
		ok("Found %s", bdPath)
		live := tracker.NewLiveSource(cfg.BdPath, cfg.BdTimeout, nil)
		if issue, err := live.Show(ctx, gateID); err != nil {
			liveProblem("bd show %s failed: %v", gateID, err)
		} else {
			ok("bd resolved %s (%d dependencies)", issue.ID, len(issue.Dependencies))
		}
	}

	// Check 3: snapshot
	fmt.Fprintf(out, "%s Snapshot (%s)\n", cyan("→"), relPath(root, cfg.SnapshotPath))
	snapshotProblem := fail
	if cfg.Source == tracker.ModeAuto {
		snapshotProblem = warn
	}
	if cfg.Source == tracker.ModeLive {
		ok("Skipped (source is live)")
	} else {
		store := tracker.NewSnapshotStore(cfg.SnapshotPath)
		if n, err := store.Len(); err != nil {
			snapshotProblem("%v", err)
		} else {
			ok("%d issues", n)
			if _, err := store.Get(gateID); err != nil {
				snapshotProblem("%v", err)
			}
			if err := storage.CheckSnapshotFreshness(cfg.SnapshotPath); err != nil {
				warn("%v", err)
			} else {
				ok("Not older than the beads database")
			}
		}
	}

	// Check 4: markers
	fmt.Fprintf(out, "%s Generated regions\n", cyan("→"))
	for _, doc := range []config.Document{cfg.Documents.Progress, cfg.Documents.Vision} {
		if _, err := docs.Plan(doc.Path, doc.Region, ""); err != nil {
			fail("%v", err)
			continue
		}
		ok("%s has %s", relPath(root, doc.Path), doc.Region)
	}

	// Check 5: leftover lock
	fmt.Fprintf(out, "%s Run lock\n", cyan("→"))
	lockPath := filepath.Join(root, storage.LockFileName)
	if _, err := os.Stat(lockPath); err == nil {
		warn("%s exists; a run is in progress or crashed", storage.LockFileName)
	} else if errors.Is(err, os.ErrNotExist) {
		ok("No lock held")
	} else {
		warn("cannot stat %s: %v", lockPath, err)
	}

	fmt.Fprintln(out)
	switch {
	case len(failures) > 0:
		fmt.Fprintf(out, "%s %d check(s) failed, %d warning(s)\n", red("✗"), len(failures), len(warnings))
		return 1
	case len(warnings) > 0:
		fmt.Fprintf(out, "%s All checks passed with %d warning(s)\n", yellow("⚠"), len(warnings))
	default:
		fmt.Fprintf(out, "%s All checks passed\n", green("✓"))
	}
	return 0
}
