package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDiscoverProjectRoot_CurrentDirOnly verifies that discovery only checks
// the given directory and does NOT walk up to an enclosing project.
func TestDiscoverProjectRoot_CurrentDirOnly(t *testing.T) {
	t.Setenv("DOCSYNC_ROOT", "")

	// tmpRoot/
	//   parent/
	//     .beads/
	//     child/
	tmpRoot := t.TempDir()
	parentDir := filepath.Join(tmpRoot, "parent")
	childDir := filepath.Join(parentDir, "child")
	if err := os.MkdirAll(filepath.Join(parentDir, ".beads"), 0755); err != nil {
		t.Fatalf("failed to create parent .beads dir: %v", err)
	}
	if err := os.MkdirAll(childDir, 0755); err != nil {
		t.Fatalf("failed to create child dir: %v", err)
	}

	_, err := DiscoverProjectRoot(childDir)
	if !errors.Is(err, ErrNoProject) {
		t.Errorf("Expected ErrNoProject from child dir, got: %v", err)
	}

	root, err := DiscoverProjectRoot(parentDir)
	if err != nil {
		t.Fatalf("Expected to find project in parent dir, got error: %v", err)
	}
	if root != parentDir {
		t.Errorf("Expected root %s, got %s", parentDir, root)
	}
}

func TestDiscoverProjectRoot_ConfigFileMarker(t *testing.T) {
	t.Setenv("DOCSYNC_ROOT", "")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".docsync.yaml"), []byte("source: auto\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	root, err := DiscoverProjectRoot(dir)
	if err != nil {
		t.Fatalf("DiscoverProjectRoot failed: %v", err)
	}
	if root != dir {
		t.Errorf("Expected root %s, got %s", dir, root)
	}
}

func TestDiscoverProjectRoot_EnvOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv("DOCSYNC_ROOT", override)

	root, err := DiscoverProjectRoot(t.TempDir())
	if err != nil {
		t.Fatalf("DiscoverProjectRoot failed: %v", err)
	}
	if root != override {
		t.Errorf("Expected DOCSYNC_ROOT %s, got %s", override, root)
	}
}

func TestCheckSnapshotFreshness(t *testing.T) {
	setup := func(t *testing.T) (snapshot, db string) {
		dir := filepath.Join(t.TempDir(), ".beads")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create .beads: %v", err)
		}
		snapshot = filepath.Join(dir, "issues.jsonl")
		db = filepath.Join(dir, "beads.db")
		if err := os.WriteFile(snapshot, []byte("{}\n"), 0644); err != nil {
			t.Fatalf("failed to write snapshot: %v", err)
		}
		return snapshot, db
	}

	t.Run("no database", func(t *testing.T) {
		snapshot, _ := setup(t)
		if err := CheckSnapshotFreshness(snapshot); err != nil {
			t.Errorf("Expected no error without a database, got: %v", err)
		}
	})

	t.Run("database older than snapshot", func(t *testing.T) {
		snapshot, db := setup(t)
		if err := os.WriteFile(db, nil, 0644); err != nil {
			t.Fatalf("failed to write db: %v", err)
		}
		old := time.Now().Add(-time.Hour)
		if err := os.Chtimes(db, old, old); err != nil {
			t.Fatalf("failed to backdate db: %v", err)
		}
		if err := CheckSnapshotFreshness(snapshot); err != nil {
			t.Errorf("Expected fresh snapshot, got: %v", err)
		}
	})

	t.Run("database newer than snapshot", func(t *testing.T) {
		snapshot, db := setup(t)
		if err := os.WriteFile(db, nil, 0644); err != nil {
			t.Fatalf("failed to write db: %v", err)
		}
		old := time.Now().Add(-time.Hour)
		if err := os.Chtimes(snapshot, old, old); err != nil {
			t.Fatalf("failed to backdate snapshot: %v", err)
		}
		err := CheckSnapshotFreshness(snapshot)
		if err == nil {
			t.Fatal("Expected staleness error")
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		if err := CheckSnapshotFreshness(filepath.Join(t.TempDir(), "issues.jsonl")); err == nil {
			t.Error("Expected error for missing snapshot")
		}
	})
}
