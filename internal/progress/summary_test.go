package progress

import (
	"testing"

	"github.com/steveyegge/docsync/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dep(id string, status types.Status) *types.Dependency {
	return &types.Dependency{DependsOnID: id, Title: "title " + id, Status: status, Type: types.DepBlocks}
}

func TestSummarizeExample(t *testing.T) {
	// B depends on closed A and on Z, which is outside the snapshot
	b := &types.Issue{
		ID:     "B",
		Status: types.StatusOpen,
		Dependencies: []*types.Dependency{
			{DependsOnID: "A", Title: "A", Status: types.StatusClosed},
			{DependsOnID: "Z", Title: "Z", Status: types.StatusUnknown},
		},
	}

	s := Summarize(b)
	assert.Equal(t, 2, s.Counts.Total)
	assert.Equal(t, 1, s.Counts.Closed)
	assert.Equal(t, 0, s.Counts.Other)
	assert.Equal(t, 1, s.Counts.Unknown)
	require.Len(t, s.Remaining, 1)
	assert.Equal(t, "Z", s.Remaining[0].DependsOnID)
	assert.Equal(t, "Z", s.Remaining[0].Title)
	assert.Equal(t, types.StatusUnknown, s.Remaining[0].Status)
}

func TestSummarizeBuckets(t *testing.T) {
	issue := &types.Issue{
		ID: "gate",
		Dependencies: []*types.Dependency{
			dep("1", types.StatusClosed),
			dep("2", types.StatusInProgress),
			dep("3", types.StatusOpen),
			dep("4", types.StatusBlocked),
			dep("5", types.StatusDeferred),
			dep("6", types.Status("tombstone")),
			dep("7", types.Status("")),
			dep("8", types.StatusClosed),
			nil,
		},
	}

	s := Summarize(issue)
	want := StatusCounts{
		Total:      9,
		Closed:     2,
		InProgress: 1,
		Open:       1,
		Blocked:    1,
		Deferred:   1,
		Other:      3,
	}
	assert.Equal(t, want, s.Counts)
	assert.Equal(t, s.Counts.Total, s.Counts.Sum())
}

func TestSummarizePreservesOrder(t *testing.T) {
	issue := &types.Issue{
		ID: "gate",
		Dependencies: []*types.Dependency{
			dep("zeta", types.StatusOpen),
			dep("alpha", types.StatusClosed),
			dep("mid", types.StatusBlocked),
			dep("beta", types.StatusInProgress),
		},
	}

	s := Summarize(issue)
	var ids []string
	for _, d := range s.Remaining {
		ids = append(ids, d.DependsOnID)
	}
	assert.Equal(t, []string{"zeta", "mid", "beta"}, ids)
}

func TestSummarizeTotalsInvariant(t *testing.T) {
	statuses := []types.Status{
		types.StatusClosed, types.StatusOpen, types.StatusUnknown,
		types.StatusDeferred, types.Status("weird"), types.StatusBlocked,
	}
	for n := 0; n <= 30; n++ {
		issue := &types.Issue{ID: "gate"}
		for i := 0; i < n; i++ {
			issue.Dependencies = append(issue.Dependencies, dep("d", statuses[(i*7+n)%len(statuses)]))
		}
		s := Summarize(issue)
		assert.Equal(t, n, s.Counts.Total)
		assert.Equal(t, n, s.Counts.Sum())
		assert.Equal(t, n-s.Counts.Closed, len(s.Remaining))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&types.Issue{ID: "gate"})
	assert.Equal(t, 0, s.Counts.Total)
	assert.NotNil(t, s.Remaining)
	assert.Empty(t, s.Remaining)
	assert.Equal(t, NotApplicable, s.Completion())

	assert.Equal(t, 0, Summarize(nil).Counts.Total)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		value, total int
		want         string
	}{
		{0, 0, "n/a"},
		{3, 0, "n/a"},
		{0, 4, "0%"},
		{1, 3, "33%"},
		{2, 3, "67%"},
		{1, 8, "13%"},
		{5, 5, "100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.value, tt.total), "Percent(%d, %d)", tt.value, tt.total)
	}
}
