package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/docsync/internal/config"
	"github.com/steveyegge/docsync/internal/progress"
	"github.com/steveyegge/docsync/internal/tracker"
	"github.com/steveyegge/docsync/internal/types"
)

var showFlags trackerFlags

var showCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Resolve one issue the way sync would",
	Long: `Resolve a single issue through the same source selection sync uses and
print it with its expanded dependencies and their summary.

Useful for checking what bd (or the snapshot) reports before running sync.

Examples:
  docsync show hx-4jb
  docsync show hx-4jb --source snapshot --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := context.Background()

		_, cfg, err := loadConfig(ctx, cmd, &showFlags)
		if err == nil {
			err = runShow(ctx, os.Stdout, cfg, args[0], asJSON)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "Print the issue as JSON")
	showFlags.register(showCmd)
	rootCmd.AddCommand(showCmd)
}

// showOutput is the --json shape
type showOutput struct {
	Source  tracker.SourceKind `json:"source"`
	Issue   *types.Issue       `json:"issue"`
	Summary progress.Summary   `json:"summary"`
}

func runShow(ctx context.Context, out io.Writer, cfg *config.Config, id string, asJSON bool) error {
	if !cfg.Source.IsValid() {
		return fmt.Errorf("source must be auto, live or snapshot (got %q)", cfg.Source)
	}

	issue, sel, err := newReader(cfg).Probe(ctx, id)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", id, err)
	}
	if sel.FellBack() {
		fmt.Fprintf(os.Stderr, "Warning: bd unavailable, using snapshot: %v\n", sel.Unavailable)
	}
	summary := progress.Summarize(issue)

	if asJSON {
		data, err := json.MarshalIndent(showOutput{Source: sel.Source, Issue: issue, Summary: summary}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal issue: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(out, "%s: %s\n", cyan(issue.ID), issue.Title)
	fmt.Fprintf(out, "  Status: %s\n", issue.Status.Label())
	fmt.Fprintf(out, "  Priority: %s\n", types.PriorityLabel(issue.Priority))
	fmt.Fprintf(out, "  Source: %s\n", sel)

	if len(issue.Dependencies) == 0 {
		fmt.Fprintf(out, "  %s\n", gray("No dependencies"))
		return nil
	}

	counts := summary.Counts
	fmt.Fprintf(out, "  Dependencies: %d / %d closed (%s)\n", counts.Closed, counts.Total, summary.Completion())
	for _, dep := range issue.Dependencies {
		if dep == nil {
			continue
		}
		fmt.Fprintf(out, "    %s %s [%s, %s]\n",
			cyan(dep.DependsOnID), dep.Title, dep.Status.Label(), types.PriorityLabel(dep.Priority))
	}
	return nil
}
