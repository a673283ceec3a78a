// Package progress reduces a release gate's dependency list to status counts
// and renders the generated Markdown tables.
package progress

import (
	"fmt"
	"math"

	"github.com/steveyegge/docsync/internal/types"
)

// NotApplicable is reported for ratios over an empty dependency list
const NotApplicable = "n/a"

// StatusCounts buckets dependencies by status. Total always equals the
// number of dependencies and the buckets always sum to Total.
type StatusCounts struct {
	Total      int `json:"total"`
	Closed     int `json:"closed"`
	InProgress int `json:"in_progress"`
	Open       int `json:"open"`
	Blocked    int `json:"blocked"`
	Deferred   int `json:"deferred"`

	// Unknown counts dependencies whose target could not be resolved
	Unknown int `json:"unknown"`

	// Other counts statuses the tracker reported but we do not recognize
	Other int `json:"other"`
}

// Sum adds every bucket
func (c StatusCounts) Sum() int {
	return c.Closed + c.InProgress + c.Open + c.Blocked + c.Deferred + c.Unknown + c.Other
}

// Summary is derived from an issue's dependencies and never persisted
type Summary struct {
	Counts StatusCounts `json:"counts"`

	// Remaining holds every dependency that is not closed, in tracker order
	Remaining []*types.Dependency `json:"remaining"`
}

// Summarize classifies each dependency of issue. It never re-sorts: the
// remaining list keeps the tracker's order so generated output diffs stay
// stable.
func Summarize(issue *types.Issue) Summary {
	summary := Summary{Remaining: []*types.Dependency{}}
	if issue == nil {
		return summary
	}

	for _, dep := range issue.Dependencies {
		summary.Counts.Total++
		if dep == nil {
			summary.Counts.Other++
			continue
		}
		switch dep.Status {
		case types.StatusClosed:
			summary.Counts.Closed++
		case types.StatusInProgress:
			summary.Counts.InProgress++
		case types.StatusOpen:
			summary.Counts.Open++
		case types.StatusBlocked:
			summary.Counts.Blocked++
		case types.StatusDeferred:
			summary.Counts.Deferred++
		case types.StatusUnknown:
			summary.Counts.Unknown++
		default:
			summary.Counts.Other++
		}

		if dep.Status != types.StatusClosed {
			summary.Remaining = append(summary.Remaining, dep)
		}
	}
	return summary
}

// Percent formats value/total as a rounded percentage, or NotApplicable
// when total is zero.
func Percent(value, total int) string {
	if total <= 0 {
		return NotApplicable
	}
	return fmt.Sprintf("%d%%", int(math.Round(float64(value)/float64(total)*100)))
}

// Completion is the closed share of the dependency list
func (s Summary) Completion() string {
	return Percent(s.Counts.Closed, s.Counts.Total)
}
