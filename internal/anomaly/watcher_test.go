package anomaly

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeCatalog(t, validCatalog)
	c, err := LoadCatalog(path, nil)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	w, err := NewWatcher(c, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() {
		require.NoError(t, w.Stop())
	}()

	// Drop one anomaly from the file and wait out the debounce window.
	trimmed := validCatalog[:strings.Index(validCatalog, "  - id: hollow-corridor")]
	require.NoError(t, os.WriteFile(path, []byte(trimmed), 0o644))

	require.Eventually(t, func() bool {
		return c.Len() == 1
	}, 5*time.Second, 50*time.Millisecond, "watcher should reload the trimmed catalog")
}

func TestWatcherStopAfterFailedStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Parent directory of the catalog path does not exist, so the watch
	// itself cannot be established.
	c := &Catalog{path: filepath.Join(t.TempDir(), "missing", "anomalies.yaml")}
	w, err := NewWatcher(c, nil)
	require.NoError(t, err)
	require.Error(t, w.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}

func TestWatcherStartRetryAfterFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "deferred", "anomalies.yaml")
	c, err := LoadCatalog(writeCatalog(t, validCatalog), nil)
	require.NoError(t, err)
	c.path = path

	w, err := NewWatcher(c, nil)
	require.NoError(t, err)
	require.Error(t, w.Start(context.Background()), "watch dir absent")

	// Once the directory exists, a retried Start succeeds.
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := LoadCatalog(writeCatalog(t, validCatalog), nil)
	require.NoError(t, err)

	w, err := NewWatcher(c, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
