package types

import (
	"encoding/json"
	"fmt"
)

// Issue represents a trackable work item as read from the tracker.
// The sync engine never mutates an Issue after it has been resolved.
type Issue struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Status       Status        `json:"status"`
	Priority     *int          `json:"priority,omitempty"`
	IssueType    string        `json:"issue_type,omitempty"`
	Dependencies []*Dependency `json:"dependencies,omitempty"`
}

// Validate checks the fields the sync engine relies on
func (i *Issue) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("id is required")
	}
	for idx, dep := range i.Dependencies {
		if dep == nil || dep.DependsOnID == "" {
			return fmt.Errorf("dependency %d of %s has no target id", idx, i.ID)
		}
	}
	return nil
}

// PriorityLabel renders the priority as P0..P4, or "n/a" when the tracker
// did not report one or reported a value outside that range.
func PriorityLabel(p *int) string {
	if p == nil || *p < 0 || *p > 4 {
		return "n/a"
	}
	return fmt.Sprintf("P%d", *p)
}

// Status represents the current state of an issue. Values outside the known
// set are preserved verbatim.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDeferred   Status = "deferred"
	StatusClosed     Status = "closed"

	// StatusUnknown marks a dependency whose target could not be resolved
	StatusUnknown Status = "unknown"
)

// IsValid reports whether the status is one the tracker defines
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusDeferred, StatusClosed:
		return true
	}
	return false
}

// Label returns the human-readable form used in generated tables
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	case "":
		return string(StatusUnknown)
	}
	return string(s)
}

// Dependency represents a relationship between issues.
//
// In the snapshot only DependsOnID and Type are present; Title, Status and
// Priority are filled in when the reference is expanded. The live tracker
// reports them already expanded, keyed by "id" and "dependency_type".
type Dependency struct {
	IssueID     string         `json:"issue_id,omitempty"`
	DependsOnID string         `json:"depends_on_id"`
	Type        DependencyType `json:"type,omitempty"`
	Title       string         `json:"title,omitempty"`
	Status      Status         `json:"status,omitempty"`
	Priority    *int           `json:"priority,omitempty"`
}

// UnmarshalJSON accepts both the snapshot shape (depends_on_id/type) and the
// expanded shape emitted by `bd show --json` (id/dependency_type).
func (d *Dependency) UnmarshalJSON(data []byte) error {
	var raw struct {
		IssueID        string         `json:"issue_id"`
		ID             string         `json:"id"`
		DependsOnID    string         `json:"depends_on_id"`
		Type           DependencyType `json:"type"`
		DependencyType DependencyType `json:"dependency_type"`
		Title          string         `json:"title"`
		Status         Status         `json:"status"`
		Priority       *int           `json:"priority"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Dependency{
		IssueID:     raw.IssueID,
		DependsOnID: raw.DependsOnID,
		Type:        raw.Type,
		Title:       raw.Title,
		Status:      raw.Status,
		Priority:    raw.Priority,
	}
	if d.DependsOnID == "" {
		d.DependsOnID = raw.ID
	}
	if d.Type == "" {
		d.Type = raw.DependencyType
	}
	return nil
}

// Unresolved reports whether the dependency target could not be found
func (d *Dependency) Unresolved() bool {
	return d.Status == StatusUnknown
}

// DependencyType categorizes the relationship between issues
type DependencyType string

const (
	// DepBlocks indicates the issue is blocked by another issue
	DepBlocks DependencyType = "blocks"
	// DepRelated indicates the issue is related to another issue
	DepRelated DependencyType = "related"
	// DepParentChild indicates a parent-child relationship (epic to tasks)
	DepParentChild DependencyType = "parent-child"
	// DepDiscoveredFrom indicates the issue was discovered during work on another issue
	DepDiscoveredFrom DependencyType = "discovered-from"
)

// IsValid checks if the dependency type value is valid
func (d DependencyType) IsValid() bool {
	switch d {
	case DepBlocks, DepRelated, DepParentChild, DepDiscoveredFrom:
		return true
	}
	return false
}
