package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "registrations.h")
	require.NoError(t, os.WriteFile(file, []byte("// a\n"), 0o644))

	w, err := New([]string{file}, nil)
	require.NoError(t, err)
	defer w.Close()
	w.Debounce = 50 * time.Millisecond

	fired := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	// Give the watcher a moment to register before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("// b\n"), 0o644))

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("callback never fired")
	}
}

func TestRunFiresOnWriteUnderWatchedDir(t *testing.T) {
	include := t.TempDir()
	nested := filepath.Join(include, "cgal")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	header := filepath.Join(nested, "mesh.h")
	require.NoError(t, os.WriteFile(header, []byte("class Mesh {};\n"), 0o644))

	w, err := New(nil, []string{include})
	require.NoError(t, err)
	defer w.Close()
	w.Debounce = 50 * time.Millisecond

	fired := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go w.Run(ctx, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(header, []byte("class Mesh { int v; };\n"), 0o644))

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("callback never fired for a file under a watched dir")
	}
}

func TestRunIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "registrations.h")
	other := filepath.Join(dir, "unrelated.txt")
	require.NoError(t, os.WriteFile(file, []byte("// a\n"), 0o644))

	w, err := New([]string{file}, nil)
	require.NoError(t, err)
	defer w.Close()
	w.Debounce = 50 * time.Millisecond

	fired := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	go w.Run(ctx, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("x\n"), 0o644))

	select {
	case <-fired:
		t.Fatal("callback fired for an unwatched file")
	case <-ctx.Done():
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "registrations.h")
	require.NoError(t, os.WriteFile(file, []byte("// a\n"), 0o644))

	w, err := New([]string{file}, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func() {}) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
