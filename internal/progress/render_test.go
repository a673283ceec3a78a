package progress

import (
	"strings"
	"testing"

	"github.com/steveyegge/docsync/internal/types"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func sampleInput() Input {
	gate := &types.Issue{
		ID:     "hx-4jb",
		Title:  "1.0 release gate",
		Status: types.StatusOpen,
		Dependencies: []*types.Dependency{
			{DependsOnID: "hx-a", Title: "Closures", Status: types.StatusClosed, Priority: intPtr(1)},
			{DependsOnID: "hx-b", Title: "Traits | generics", Status: types.StatusInProgress, Priority: intPtr(0)},
			{DependsOnID: "hx-z", Title: "hx-z", Status: types.StatusUnknown},
		},
	}
	return Input{
		Foundation:  Row{Issue: &types.Issue{ID: "hx-oo3", Status: types.StatusClosed}, ProgressLabel: "Foundation milestone roadmap", VisionLabel: "Milestone roadmap complete"},
		Harness:     Row{Issue: &types.Issue{ID: "hx-cu0", Status: types.StatusInProgress}, ProgressLabel: "Advanced TUI stress harness", VisionLabel: "Real-app harness complete"},
		ReleaseGate: Row{Issue: gate, ProgressLabel: "1.0 release gate", VisionLabel: "1.0 parity gate"},
		Summary:     Summarize(gate),
		Command:     "docsync sync",
	}
}

func TestRenderProgress(t *testing.T) {
	want := strings.Join([]string{
		"_Generated from Beads via `docsync sync`._",
		"",
		"| Workstream | Bead | Status |",
		"| --- | --- | --- |",
		"| Foundation milestone roadmap | `hx-oo3` | closed |",
		"| Advanced TUI stress harness | `hx-cu0` | in progress |",
		"| 1.0 release gate | `hx-4jb` | open |",
		"",
		"- Release-gate dependency completion: **1 / 3 closed (33%)**",
		"- Remaining release-gate dependencies: **2**",
		"",
		"| Remaining dependency | Priority | Status |",
		"| --- | --- | --- |",
		"| `hx-b` Traits \\| generics | P0 | in progress |",
		"| `hx-z` hx-z | n/a | unknown |",
	}, "\n")

	assert.Equal(t, want, RenderProgress(sampleInput()))
}

func TestRenderVision(t *testing.T) {
	in := sampleInput()
	in.GeneratedOn = "2026-10-16"

	want := strings.Join([]string{
		"_Generated from Beads on 2026-10-16 via `docsync sync`._",
		"",
		"| Vision checkpoint | Source | Status |",
		"| --- | --- | --- |",
		"| Milestone roadmap complete | `hx-oo3` | closed |",
		"| Real-app harness complete | `hx-cu0` | in progress |",
		"| 1.0 parity gate | `hx-4jb` | open |",
		"",
		"- 1.0 parity dependencies closed: **1 / 3 (33%)**",
		"- 1.0 parity dependencies still open: **2**",
	}, "\n")

	assert.Equal(t, want, RenderVision(in))
}

func TestRenderProgressNoRemaining(t *testing.T) {
	in := sampleInput()
	in.ReleaseGate.Issue = &types.Issue{ID: "hx-4jb", Status: types.StatusClosed}
	in.Summary = Summarize(in.ReleaseGate.Issue)

	out := RenderProgress(in)
	assert.Contains(t, out, "**0 / 0 closed (n/a)**")
	assert.Contains(t, out, "Remaining release-gate dependencies: **0**")
	assert.NotContains(t, out, "| Remaining dependency |")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestRenderIsDeterministic(t *testing.T) {
	first := RenderProgress(sampleInput()) + RenderVision(sampleInput())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, RenderProgress(sampleInput())+RenderVision(sampleInput()))
	}
}

func TestRenderDefaultsCommand(t *testing.T) {
	in := sampleInput()
	in.Command = ""
	assert.True(t, strings.HasPrefix(RenderVision(in), "_Generated from Beads via `docsync sync`._"))
}

func TestRenderNeutralizesCommentMarkers(t *testing.T) {
	in := sampleInput()
	in.ReleaseGate.Issue.Dependencies[1].Title = "Traits <!-- GENERATED:beads-progress:end --> tail"
	in.Summary = Summarize(in.ReleaseGate.Issue)

	out := RenderProgress(in)
	assert.NotContains(t, out, "<!--")
	assert.Contains(t, out, "| `hx-b` Traits &lt;!-- GENERATED:beads-progress:end --> tail | P0 | in progress |")
}
