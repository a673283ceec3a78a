// Package storage locates the project's beads data on disk and guards a
// sync run with a lock file.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoProject means no project markers were found in the directory
var ErrNoProject = errors.New("no docsync project found")

// BeadsDir is the tracker's data directory under the project root
const BeadsDir = ".beads"

// projectMarkers identify a project root
var projectMarkers = []string{".docsync.yaml", BeadsDir}

// DiscoverProjectRoot returns the project root for dir.
//
// DOCSYNC_ROOT wins when set. Otherwise dir itself must contain .docsync.yaml
// or a .beads/ directory; parents are not searched, so a nested checkout
// never picks up an enclosing project's documents.
func DiscoverProjectRoot(dir string) (string, error) {
	if root := os.Getenv("DOCSYNC_ROOT"); root != "" {
		return filepath.Abs(root)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for _, marker := range projectMarkers {
		if _, err := os.Stat(filepath.Join(absDir, marker)); err == nil {
			return absDir, nil
		}
	}

	return "", fmt.Errorf(
		"%w in %s\n"+
			"  Run from the repository root (the directory holding .beads/ or .docsync.yaml)\n"+
			"  Or use --root to specify it explicitly",
		ErrNoProject, absDir)
}

// stalenessTolerance absorbs filesystem timestamp precision differences
const stalenessTolerance = 1 * time.Second

// CheckSnapshotFreshness compares the snapshot with the beads database next
// to it. It returns a descriptive error when a .beads/*.db (or its WAL) was
// modified after the snapshot, meaning the export may lag the tracker. A
// missing database is not an error: the snapshot is then the only record.
func CheckSnapshotFreshness(snapshotPath string) error {
	snapInfo, err := os.Stat(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to stat snapshot: %w", err)
	}

	beadsDir := filepath.Dir(snapshotPath)
	entries, err := os.ReadDir(beadsDir)
	if err != nil {
		return nil
	}

	var newestDB string
	var newest time.Time
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".db") || strings.HasSuffix(name, ".db-wal")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
			newestDB = filepath.Join(beadsDir, name)
		}
	}
	if newestDB == "" {
		return nil
	}

	staleness := newest.Sub(snapInfo.ModTime())
	if staleness > stalenessTolerance {
		return fmt.Errorf(
			"snapshot %s is older than %s by %v\n"+
				"  Run 'bd export -o %s' to refresh it",
			snapshotPath, newestDB, staleness.Round(time.Second), snapshotPath)
	}
	return nil
}
