package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReportsRemovedAsset(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "gone.mp3",
		strings.NewReader("x"), 1, "audio/mpeg"))

	var mu sync.Mutex
	var reported []string
	watcher, err := WatchAssets(dir, func(key string) {
		mu.Lock()
		reported = append(reported, key)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.Remove(filepath.Join(dir, "gone.mp3")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1 && reported[0] == "gone.mp3"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresUploadTempFiles(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var reported []string
	watcher, err := WatchAssets(dir, func(key string) {
		mu.Lock()
		reported = append(reported, key)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer watcher.Close()

	tmp := filepath.Join(dir, ".upload-123")
	require.NoError(t, os.WriteFile(tmp, []byte("partial"), 0644))
	require.NoError(t, os.Remove(tmp))

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Empty(t, reported, "in-flight upload temp files are not assets")
}
