package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

// reloadDelay coalesces the burst of events editors produce for one save.
const reloadDelay = 100 * time.Millisecond

// Watch reloads store whenever its file changes on disk and then calls
// onChange with the result of the reload. It blocks until ctx is done.
//
// The directory is watched rather than the file so that editors which
// replace the file on save are still observed.
func Watch(ctx context.Context, store *ConfigStore, onChange func(err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(store.Path())
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(reloadDelay)

		case <-pending:
			pending = nil
			err := store.Load()
			if err != nil {
				logger.Warn("config reload failed: %v", err)
			} else {
				logger.Debug("config reloaded from %s", target)
			}
			if onChange != nil {
				onChange(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher: %v", err)
		}
	}
}
