package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval backs up the watcher: deep directory trees can materialize
// under an ancestor faster than watches follow them.
const pollInterval = 500 * time.Millisecond

// WaitForPath blocks until path exists, watching the nearest existing
// ancestor directory and polling as a fallback. A timeout of zero waits
// until ctx is done.
func (f *Fetcher) WaitForPath(ctx context.Context, path string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	f.log.Infof("Waiting for %s", path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.log.WithError(err).Warn("Failed to create watcher; polling instead")
		return f.pollForPath(ctx, path)
	}
	defer watcher.Close()

	if err := watcher.Add(nearestExistingDir(path)); err != nil {
		f.log.WithError(err).Warn("Failed to watch; polling instead")
		return f.pollForPath(ctx, path)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for %s: %w", path, ctx.Err())
		case event, ok := <-watcher.Events:
			if !ok {
				return f.pollForPath(ctx, path)
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if _, err := os.Stat(path); err == nil {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return f.pollForPath(ctx, path)
			}
			f.log.WithError(err).Debug("Watcher error")
		case <-ticker.C:
			if _, err := os.Stat(path); err == nil {
				return nil
			}
		}
	}
}

func (f *Fetcher) pollForPath(ctx context.Context, path string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for %s: %w", path, ctx.Err())
		case <-ticker.C:
			if _, err := os.Stat(path); err == nil {
				return nil
			}
		}
	}
}

// nearestExistingDir walks up from path until it finds a directory that
// exists. It never walks past the filesystem root.
func nearestExistingDir(path string) string {
	dir := filepath.Dir(path)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
