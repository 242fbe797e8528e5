package storage

import (
	"path/filepath"
	"strings"

	"PellinesFM/logger"

	"github.com/fsnotify/fsnotify"
)

// AssetWatcher watches the file-backed audio directory for assets removed
// out-of-band (a shell rm, a cleanup cron) and reports the affected storage
// key so the coordinator can clear dangling references instead of serving
// 404s until restart.
type AssetWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchAssets starts watching dir; onMissing is called with the storage key
// of every asset file that disappears. Only meaningful for the file backend.
func WatchAssets(dir string, onMissing func(key string)) (*AssetWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &AssetWatcher{watcher: watcher, done: make(chan struct{})}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				key := filepath.Base(event.Name)
				// Temp files from in-flight uploads are not assets.
				if strings.HasPrefix(key, ".upload-") {
					continue
				}
				logger.Warn("audio asset removed outside the coordinator",
					logger.String("key", key))
				onMissing(key)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("asset watcher error", logger.ErrorField(err))

			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *AssetWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
