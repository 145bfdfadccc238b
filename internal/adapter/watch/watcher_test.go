package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) Run(context.Context) (*pipeline.Result, error) {
	r.runs.Add(1)
	return nil, nil
}

func newTestWatcher(t *testing.T, dir string, runner Runner) *Watcher {
	t.Helper()
	w := New(dir, runner, slog.Default())
	w.debounce = 20 * time.Millisecond
	t.Cleanup(func() {
		_ = w.Close()
	})
	return w
}

func waitForRuns(t *testing.T, runner *countingRunner, want int32) {
	t.Helper()
	require.Eventually(t, func() bool {
		return runner.runs.Load() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStart_RerunsOnCSVWrite(t *testing.T) {
	dir := t.TempDir()
	runner := &countingRunner{}
	w := newTestWatcher(t, dir, runner)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A602_RIO_2023.csv"), []byte("data"), 0o644))

	waitForRuns(t, runner, 1)
}

func TestStart_DebouncesBurstsIntoOneRun(t *testing.T) {
	dir := t.TempDir()
	runner := &countingRunner{}
	w := newTestWatcher(t, dir, runner)

	require.NoError(t, w.Start(context.Background()))
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "A602_RIO_2023.csv")
		require.NoError(t, os.WriteFile(name, []byte("data"), 0o644))
	}

	waitForRuns(t, runner, 1)
	// A quiet period must not produce a second run.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestStart_IgnoresNonCSVFiles(t *testing.T) {
	dir := t.TempDir()
	runner := &countingRunner{}
	w := newTestWatcher(t, dir, runner)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, runner.runs.Load())
}

func TestStart_PicksUpNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	runner := &countingRunner{}
	w := newTestWatcher(t, dir, runner)

	require.NoError(t, w.Start(context.Background()))

	sub := filepath.Join(dir, "2024")
	require.NoError(t, os.Mkdir(sub, 0o750))
	// Give the loop a beat to register the new directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "A627_MACAE_2024.csv"), []byte("data"), 0o644))

	waitForRuns(t, runner, 1)
}

func TestStart_MissingDirectory(t *testing.T) {
	runner := &countingRunner{}
	w := newTestWatcher(t, filepath.Join(t.TempDir(), "absent"), runner)

	assert.Error(t, w.Start(context.Background()))
}

func TestClose_BeforeStart(t *testing.T) {
	w := New(t.TempDir(), &countingRunner{}, slog.Default())
	assert.NoError(t, w.Close())
}
