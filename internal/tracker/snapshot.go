package tracker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/steveyegge/docsync/internal/types"
)

// maxSnapshotLine bounds a single JSONL record. Issues with long descriptions
// exceed bufio's 64KB default.
const maxSnapshotLine = 4 * 1024 * 1024

// SnapshotStore indexes an append-only JSONL export of every issue by id.
//
// The file is parsed on first use and the index is reused for the lifetime
// of the store. After loading the store is read-only, so a single store can
// be shared by every lookup of a run; tests construct a fresh one per case.
type SnapshotStore struct {
	path string

	once   sync.Once
	issues map[string]*types.Issue
	err    error
}

// NewSnapshotStore creates a store for the snapshot at path. Nothing is read
// until the first lookup.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the snapshot file the store reads
func (s *SnapshotStore) Path() string {
	return s.path
}

// load parses the snapshot exactly once. A line that does not parse fails
// the whole load: aggregation must never see a partial graph.
func (s *SnapshotStore) load() error {
	s.once.Do(func() {
		s.issues, s.err = readSnapshot(s.path)
	})
	return s.err
}

func readSnapshot(path string) (map[string]*types.Issue, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from project config
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	issues := make(map[string]*types.Issue)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSnapshotLine)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var issue types.Issue
		if err := json.Unmarshal(line, &issue); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformedData, path, lineNum, err)
		}
		if err := issue.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformedData, path, lineNum, err)
		}

		// Later lines supersede earlier ones in an append-only export
		issues[issue.ID] = &issue
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s after line %d: %v", ErrMalformedData, path, lineNum, err)
	}

	return issues, nil
}

// Len returns the number of distinct issues in the snapshot
func (s *SnapshotStore) Len() (int, error) {
	if err := s.load(); err != nil {
		return 0, err
	}
	return len(s.issues), nil
}

// Get returns the issue with its dependencies expanded against the snapshot.
// Dependencies pointing outside the snapshot degrade to title = raw id and
// status = unknown. The returned issue is a copy; the index is never mutated.
func (s *SnapshotStore) Get(id string) (*types.Issue, error) {
	if err := s.load(); err != nil {
		return nil, err
	}

	raw, ok := s.issues[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s in snapshot %s", ErrNotFound, id, s.path)
	}

	issue := *raw
	issue.Dependencies = make([]*types.Dependency, 0, len(raw.Dependencies))
	for _, ref := range raw.Dependencies {
		issue.Dependencies = append(issue.Dependencies, s.expand(ref))
	}
	return &issue, nil
}

func (s *SnapshotStore) expand(ref *types.Dependency) *types.Dependency {
	dep := &types.Dependency{
		IssueID:     ref.IssueID,
		DependsOnID: ref.DependsOnID,
		Type:        ref.Type,
	}

	target, ok := s.issues[ref.DependsOnID]
	if !ok {
		dep.Title = ref.DependsOnID
		dep.Status = types.StatusUnknown
		return dep
	}

	dep.Title = target.Title
	dep.Status = target.Status
	dep.Priority = target.Priority
	return dep
}

// SnapshotSource serves lookups from a SnapshotStore
type SnapshotSource struct {
	store *SnapshotStore
}

// NewSnapshotSource wraps store as a Source
func NewSnapshotSource(store *SnapshotStore) *SnapshotSource {
	return &SnapshotSource{store: store}
}

// Kind implements Source
func (s *SnapshotSource) Kind() SourceKind {
	return SourceSnapshot
}

// Show implements Source
func (s *SnapshotSource) Show(ctx context.Context, id string) (*types.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Get(id)
}
