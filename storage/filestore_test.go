package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreSaveOpenRemove(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := "some audio bytes"
	require.NoError(t, store.Save(ctx, "track.mp3", strings.NewReader(content), int64(len(content)), "audio/mpeg"))

	src, size, err := store.Open(ctx, "track.mp3")
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, int64(len(content)), size)

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	// Open 返回的读取器可以随机寻址
	_, err = src.Seek(5, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, content[5:], string(rest))

	require.NoError(t, store.Remove(ctx, "track.mp3"))
	_, _, err = store.Open(ctx, "track.mp3")
	assert.Error(t, err)
}

func TestFileStoreIndependentReaders(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := "0123456789"
	require.NoError(t, store.Save(ctx, "k", strings.NewReader(content), int64(len(content)), "audio/mpeg"))

	a, _, err := store.Open(ctx, "k")
	require.NoError(t, err)
	defer a.Close()
	b, _, err := store.Open(ctx, "k")
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Seek(5, io.SeekStart)
	require.NoError(t, err)

	// 一个读取器的寻址不影响另一个
	first := make([]byte, 3)
	_, err = io.ReadFull(b, first)
	require.NoError(t, err)
	assert.Equal(t, "012", string(first))
}

func TestFileStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../escape.mp3", "a/b.mp3", ""} {
		err := store.Save(ctx, key, strings.NewReader("x"), 1, "audio/mpeg")
		assert.Error(t, err, "key %q must be rejected", key)
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "k.mp3", strings.NewReader("x"), 1, "audio/mpeg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.mp3", entries[0].Name())
}

func TestNewObjectKey(t *testing.T) {
	key := NewObjectKey("mi canción.mp3")
	assert.True(t, strings.HasSuffix(key, ".mp3"))
	assert.Equal(t, key, filepath.Base(key), "keys never contain path separators")

	// 无扩展名时退回 .mp3
	assert.True(t, strings.HasSuffix(NewObjectKey("noext"), ".mp3"))

	assert.NotEqual(t, NewObjectKey("a.wav"), NewObjectKey("a.wav"), "keys are unique per upload")
}
