package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is invoked after the watched catalog file settles.
type ReloadFunc func(ctx context.Context)

const watchDebounce = 200 * time.Millisecond

// Watch observes the directory holding catalogPath and calls reload once
// writes to the catalog file have been quiet for a short debounce window.
// Editors that replace the file via rename are handled because the parent
// directory is watched rather than the file itself. Watch blocks until
// ctx is cancelled.
func Watch(ctx context.Context, catalogPath string, logger *slog.Logger, reload ReloadFunc) error {
	abs, err := filepath.Abs(catalogPath)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("path", abs))

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			fire = nil
			logger.Debug("watcher: catalog changed", slog.String("path", abs))
			reload(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Stop()
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
