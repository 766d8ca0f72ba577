package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"lesnouvelles-feed/internal/observability/logging"
)

// DefaultDebounce groups the bursts of events editors produce on save.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads the catalog whenever its file is written, created or
// renamed into place, until ctx is done. The parent directory is watched
// so atomic replaces are seen. A file that fails to parse is logged and
// the previous sources stay active.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(c.path)); err != nil {
		return err
	}

	logger := logging.FromContext(ctx).With(slog.String("catalog", c.path))
	target := filepath.Clean(c.path)
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher error", logging.Err(err))

		case <-timer.C:
			if err := c.Reload(); err != nil {
				logger.Error("catalog reload failed, keeping previous sources", logging.Err(err))
				continue
			}
			logger.Info("catalog reloaded", slog.Int("sources", len(c.Sources())))
		}
	}
}
