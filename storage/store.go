package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AudioStore persists the raw bytes of uploaded tracks. Implementations must
// return independent, seekable readers from Open so that any number of
// simultaneous listeners can stream the same asset at their own offsets.
type AudioStore interface {
	// Save writes the asset under key. On error nothing may remain under key.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open returns a fresh seekable reader over the asset and its total size.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, int64, error)

	// Remove deletes the asset bytes. Removing an absent key is an error.
	Remove(ctx context.Context, key string) error
}

// NewObjectKey generates a collision-free storage key for an uploaded file:
// unix timestamp plus a random suffix, keeping the original extension so
// players and storage browsers can still tell the format.
func NewObjectKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".mp3"
	}
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), suffix, ext)
}
