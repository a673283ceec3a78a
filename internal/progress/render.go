package progress

import (
	"fmt"
	"strings"

	"github.com/steveyegge/docsync/internal/types"
)

// Row is one tracked issue together with the labels it gets in each document
type Row struct {
	Issue         *types.Issue
	ProgressLabel string
	VisionLabel   string
}

// Input is everything the generated sections depend on. Rendering is a pure
// function of Input: identical input always yields byte-identical output.
type Input struct {
	Foundation  Row
	Harness     Row
	ReleaseGate Row
	Summary     Summary

	// Command is the invocation named in the generated header
	Command string

	// GeneratedOn is an optional YYYY-MM-DD stamp. Leave empty to keep the
	// output stable across days.
	GeneratedOn string
}

func (in Input) rows() []Row {
	return []Row{in.Foundation, in.Harness, in.ReleaseGate}
}

func header(in Input) string {
	command := in.Command
	if command == "" {
		command = "docsync sync"
	}
	if in.GeneratedOn != "" {
		return fmt.Sprintf("_Generated from Beads on %s via `%s`._", in.GeneratedOn, command)
	}
	return fmt.Sprintf("_Generated from Beads via `%s`._", command)
}

// RenderProgress builds the progress-tracker section: one status row per
// tracked issue, gate completion, and a table of what is still open.
func RenderProgress(in Input) string {
	counts := in.Summary.Counts
	var lines []string

	lines = append(lines,
		header(in),
		"",
		"| Workstream | Bead | Status |",
		"| --- | --- | --- |",
	)
	for _, row := range in.rows() {
		lines = append(lines, statusRow(row.ProgressLabel, row.Issue))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("- Release-gate dependency completion: **%d / %d closed (%s)**",
			counts.Closed, counts.Total, in.Summary.Completion()),
		fmt.Sprintf("- Remaining release-gate dependencies: **%d**", len(in.Summary.Remaining)),
	)

	if len(in.Summary.Remaining) > 0 {
		lines = append(lines,
			"",
			"| Remaining dependency | Priority | Status |",
			"| --- | --- | --- |",
		)
		for _, dep := range in.Summary.Remaining {
			lines = append(lines, fmt.Sprintf("| `%s` %s | %s | %s |",
				dep.DependsOnID, escapeCell(dep.Title), types.PriorityLabel(dep.Priority), escapeCell(dep.Status.Label())))
		}
	}

	return strings.Join(lines, "\n")
}

// RenderVision builds the vision-vs-implementation section
func RenderVision(in Input) string {
	counts := in.Summary.Counts
	var lines []string

	lines = append(lines,
		header(in),
		"",
		"| Vision checkpoint | Source | Status |",
		"| --- | --- | --- |",
	)
	for _, row := range in.rows() {
		lines = append(lines, statusRow(row.VisionLabel, row.Issue))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("- 1.0 parity dependencies closed: **%d / %d (%s)**",
			counts.Closed, counts.Total, in.Summary.Completion()),
		fmt.Sprintf("- 1.0 parity dependencies still open: **%d**", len(in.Summary.Remaining)),
	)

	return strings.Join(lines, "\n")
}

func statusRow(label string, issue *types.Issue) string {
	if issue == nil {
		return fmt.Sprintf("| %s | n/a | %s |", escapeCell(label), types.StatusUnknown)
	}
	return fmt.Sprintf("| %s | `%s` | %s |", escapeCell(label), issue.ID, escapeCell(issue.Status.Label()))
}

// escapeCell keeps tracker text from breaking the table layout or opening
// an HTML comment, which could smuggle a region marker into the output
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "<!--", "&lt;!--")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
