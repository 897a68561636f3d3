package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitForUpdate(t *testing.T, w *Watcher) string {
	t.Helper()
	select {
	case src := <-w.Updates():
		return src
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered")
		return ""
	}
}

func TestWatcherDeliversWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.frag")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w, err := New(path, 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	assert.Equal(t, "v2", waitForUpdate(t, w))
}

func TestWatcherDebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.frag")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	w, err := New(path, 200*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(path, []byte(v), 0o644))
	}
	assert.Equal(t, "c", waitForUpdate(t, w))

	_, ok := w.Drain()
	assert.False(t, ok, "a burst yields a single update")
}

func TestWatcherFollowsReplacement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.frag")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	w, err := New(path, 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	tmp := filepath.Join(dir, "hero.frag.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	assert.Equal(t, "new", waitForUpdate(t, w))
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.frag")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w, err := New(path, 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.frag"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	_, ok := w.Drain()
	assert.False(t, ok)
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hero.frag")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w, err := New(path, 0, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case <-w.doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not exit")
	}
	w.Stop()
}

func TestStartMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "hero.frag"), 0, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}
