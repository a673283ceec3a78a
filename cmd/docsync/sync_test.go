package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/docsync/internal/config"
	"github.com/steveyegge/docsync/internal/storage"
	"github.com/steveyegge/docsync/internal/syncer"
	"github.com/steveyegge/docsync/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSnapshot = `{"id":"ms-1","title":"Milestones","status":"closed"}
{"id":"hn-1","title":"Harness","status":"open","priority":2}
{"id":"dep-1","title":"Parser","status":"closed","priority":1}
{"id":"dep-2","title":"Renderer","status":"in_progress","priority":0}
{"id":"gate-1","title":"Gate","status":"open","dependencies":[{"issue_id":"gate-1","depends_on_id":"dep-1","type":"blocks"},{"issue_id":"gate-1","depends_on_id":"dep-2","type":"blocks"}]}
`

const testConfig = `source: auto
bd_path: docsync-test-no-such-bd-binary
bd_timeout: 2s
issues:
  foundation:
    id: ms-1
  harness:
    id: hn-1
  release_gate:
    id: gate-1
`

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// setupProject creates a project with a snapshot, a config file and both
// target documents carrying the default markers
func setupProject(t *testing.T) (string, *config.Config) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".beads"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".beads", "issues.jsonl"), []byte(testSnapshot), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(testConfig), 0644))

	cfg, err := config.Load(root)
	require.NoError(t, err)

	for _, doc := range []config.Document{cfg.Documents.Progress, cfg.Documents.Vision} {
		content := "# Title\n\n" + doc.Region.Start + "\n" + doc.Region.End + "\n"
		require.NoError(t, os.WriteFile(doc.Path, []byte(content), 0644))
	}
	return root, cfg
}

func TestRunSync(t *testing.T) {
	root, cfg := setupProject(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runSync(ctx, &out, root, cfg, false))
	assert.Regexp(t, `Run [0-9a-f-]{36}, data source: snapshot`, out.String())
	assert.Contains(t, out.String(), "Release gate gate-1: 1 / 2 closed (50%), 1 remaining")
	assert.Contains(t, out.String(), "Updated docs/progress-tracker.md")
	assert.Contains(t, out.String(), "Updated docs/vision-vs-implementation.md")

	progressDoc, err := os.ReadFile(cfg.Documents.Progress.Path)
	require.NoError(t, err)
	assert.Contains(t, string(progressDoc), "| `dep-2` Renderer | P0 | in progress |")

	_, err = os.Stat(filepath.Join(root, storage.LockFileName))
	assert.True(t, os.IsNotExist(err), "lock must be released after the run")

	out.Reset()
	require.NoError(t, runSync(ctx, &out, root, cfg, false))
	assert.Contains(t, out.String(), "docs/progress-tracker.md is up to date")
	assert.NotContains(t, out.String(), "Updated")
}

func TestRunSyncCheck(t *testing.T) {
	root, cfg := setupProject(t)
	ctx := context.Background()

	var out bytes.Buffer
	err := runSync(ctx, &out, root, cfg, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, syncer.ErrDrift))
	assert.Contains(t, out.String(), "docs/progress-tracker.md is out of date")
	assert.Contains(t, out.String(), "+| `dep-2` Renderer | P0 | in progress |")
	assert.Contains(t, out.String(), "Run 'docsync sync' to update")

	require.NoError(t, runSync(ctx, &bytes.Buffer{}, root, cfg, false))

	out.Reset()
	require.NoError(t, runSync(ctx, &out, root, cfg, true))
	assert.NotContains(t, out.String(), "out of date")
}

func TestRunSyncLocked(t *testing.T) {
	root, cfg := setupProject(t)

	lockPath, err := storage.AcquireLock(root, "other-run", "test")
	require.NoError(t, err)
	defer func() { _ = storage.ReleaseLock(lockPath, "other-run") }()

	err = runSync(context.Background(), &bytes.Buffer{}, root, cfg, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrLocked))

	// Check mode never writes and does not need the lock
	err = runSync(context.Background(), &bytes.Buffer{}, root, cfg, true)
	assert.True(t, errors.Is(err, syncer.ErrDrift))
}

func TestRunSyncInvalidConfig(t *testing.T) {
	root, cfg := setupProject(t)
	cfg.Issues.Foundation.ID = ""

	err := runSync(context.Background(), &bytes.Buffer{}, root, cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issues.foundation.id is required")
}

func TestTrackerFlagsApply(t *testing.T) {
	var flags trackerFlags
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{
		"--source", "snapshot",
		"--gate", "gate-2",
		"--snapshot", "export.jsonl",
		"--bd-timeout", "0",
	}))

	cfg := config.DefaultConfig()
	cfg.BdPath = "/opt/bd"
	cfg.Issues.Harness.ID = "hn-1"
	flags.apply(cmd, cfg)

	assert.Equal(t, tracker.ModeSnapshot, cfg.Source)
	assert.Equal(t, "gate-2", cfg.Issues.ReleaseGate.ID)
	assert.Equal(t, "export.jsonl", cfg.SnapshotPath)
	assert.Zero(t, cfg.BdTimeout)
	assert.Equal(t, "/opt/bd", cfg.BdPath, "unset flags must not override config")
	assert.Equal(t, "hn-1", cfg.Issues.Harness.ID)
}

func TestResolveProjectRootExplicit(t *testing.T) {
	dir := t.TempDir()
	original := rootDir
	defer func() { rootDir = original }()

	rootDir = dir
	root, err := resolveProjectRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, root)

	rootDir = filepath.Join(dir, "missing")
	_, err = resolveProjectRoot(context.Background())
	assert.Error(t, err)
}

func TestNewReaderSkipsUnusedSources(t *testing.T) {
	_, cfg := setupProject(t)

	cfg.Source = tracker.ModeSnapshot
	issue, sel, err := newReader(cfg).Probe(context.Background(), "gate-1")
	require.NoError(t, err)
	assert.Equal(t, "gate-1", issue.ID)
	assert.Equal(t, tracker.SourceSnapshot, sel.Source)
	assert.False(t, sel.FellBack())

	cfg.Source = tracker.ModeLive
	_, sel, err = newReader(cfg).Probe(context.Background(), "gate-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, tracker.ErrToolUnavailable))
	assert.Equal(t, tracker.SourceLive, sel.Source)
}

func TestRelPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "repo")
	assert.Equal(t, filepath.Join("docs", "a.md"), relPath(root, filepath.Join(root, "docs", "a.md")))

	outside := filepath.Join(string(filepath.Separator), "elsewhere", "a.md")
	assert.Equal(t, outside, relPath(root, outside))
}
