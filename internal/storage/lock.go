package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrLocked means another docsync run holds the project lock
var ErrLocked = errors.New("another docsync run is in progress")

// LockFileName is created in the project root for the duration of a run
const LockFileName = ".docsync.lock"

// RunLock is the lock file format. RunID lets a run release only its own lock.
type RunLock struct {
	RunID     string    `json:"run_id"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
	Version   string    `json:"version"`
}

// AcquireLock creates the run lock in projectRoot and returns its path.
// A lock left by a dead process on this host is replaced.
func AcquireLock(projectRoot, runID, version string) (string, error) {
	lockPath := filepath.Join(projectRoot, LockFileName)

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}
	data, err := json.MarshalIndent(RunLock{
		RunID:     runID,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		Version:   version,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(lockPath)
				return "", fmt.Errorf("failed to write lock %s: %w", lockPath, errors.Join(werr, cerr))
			}
			return lockPath, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to create lock %s: %w", lockPath, err)
		}

		existing, readErr := readLock(lockPath)
		if readErr == nil && isProcessAlive(existing.PID, existing.Hostname) {
			return "", fmt.Errorf("%w (PID %d on %s, started %s); remove %s if it is stale",
				ErrLocked, existing.PID, existing.Hostname,
				existing.StartedAt.Format(time.RFC3339), lockPath)
		}

		// Stale or unreadable lock - remove and retry once
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to remove stale lock %s: %w", lockPath, err)
		}
	}

	return "", fmt.Errorf("%w: lock %s was re-created concurrently", ErrLocked, lockPath)
}

// ReleaseLock removes the lock file if it still belongs to runID.
// Should be called when the run ends (use defer).
func ReleaseLock(lockPath, runID string) error {
	if lockPath == "" {
		return nil
	}

	existing, err := readLock(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lock %s: %w", lockPath, err)
	}
	if existing.RunID != runID {
		return fmt.Errorf("lock %s is held by run %s, not %s", lockPath, existing.RunID, runID)
	}

	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock: %w", err)
	}
	return nil
}

func readLock(lockPath string) (*RunLock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}
	var lock RunLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("invalid lock file: %w", err)
	}
	return &lock, nil
}

// isProcessAlive checks if a process with the given PID exists on the given hostname.
// Processes on other hosts cannot be checked and are assumed alive.
func isProcessAlive(pid int, hostname string) bool {
	currentHost, err := os.Hostname()
	if err != nil {
		return true
	}
	if !strings.EqualFold(hostname, currentHost) {
		return true
	}
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 probes for existence without delivering anything
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM: the process exists but belongs to someone else
	return errors.Is(err, syscall.EPERM)
}
