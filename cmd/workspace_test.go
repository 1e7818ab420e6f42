package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/uml-go/internal/storage"
)

func TestCheckCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("ReportsInvalidFiles", func(t *testing.T) {
		t.Parallel()
		c := newTestCLI(t, storage.KindMemory)
		c.mustRun(t, "class", "add", "A")
		require.NoError(t, os.WriteFile(filepath.Join(c.dir, "bad.json"), []byte("not json"), 0o644))

		out, err := c.run("check", c.dir)
		assert.ErrorContains(t, err, "1 of 2 diagram files are invalid")
		assert.Contains(t, out, "✓ diagram.json (1 classes, 0 relationships)")
		assert.Contains(t, out, "✗ bad.json")
	})

	t.Run("AllValid", func(t *testing.T) {
		t.Parallel()
		c := newTestCLI(t, storage.KindMemory)
		c.mustRun(t, "class", "add", "A")

		out := c.mustRun(t, "check", c.dir)
		assert.Contains(t, out, "1 diagram files are valid")
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		c := newTestCLI(t, storage.KindMemory)

		assert.Contains(t, c.mustRun(t, "check", c.dir), "No diagram files found")
	})
}

func TestSyncCmd_Run(t *testing.T) {
	t.Parallel()
	c := newTestCLI(t, storage.KindBadger)
	c.mustRun(t, "class", "add", "Order")
	require.NoError(t, os.MkdirAll(filepath.Join(c.dir, "models"), 0o755))
	c.mustRun(t, "export", filepath.Join(c.dir, "models", "shop.yaml"))
	require.NoError(t, os.WriteFile(filepath.Join(c.dir, "broken.json"), []byte("{"), 0o644))

	out := c.mustRun(t, "sync", c.dir)
	assert.Contains(t, out, "stored  diagram")
	assert.Contains(t, out, "stored  models.shop")
	assert.Contains(t, out, "skipped broken.json")

	out = c.mustRun(t, "saves", "list")
	assert.Contains(t, out, "models.shop")
	assert.Contains(t, out, "diagram")
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCmd_Run(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saves := storage.NewMemoryBackend()
	require.NoError(t, saves.Initialize("", false))

	var out syncBuffer
	env := &Env{
		Ctx:     ctx,
		Out:     &out,
		Logger:  newLogger(false, true),
		backend: storage.KindMemory,
		saves:   saves,
	}

	done := make(chan error, 1)
	go func() {
		cmd := &WatchCmd{Dir: dir, Sync: true, Debounce: 50 * time.Millisecond}
		done <- cmd.Run(env)
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Watching"))
	}, 5*time.Second, 20*time.Millisecond)

	// Rewrite until seen; the watcher may still be registering directories.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "late.json"), []byte(`{"classes":[],"relationships":[]}`), 0o644)
		infos, err := saves.List(ctx)
		return err == nil && len(infos) == 1 && infos[0].Name == "late"
	}, 5*time.Second, 200*time.Millisecond)
	assert.Contains(t, out.String(), "✓ late.json")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
