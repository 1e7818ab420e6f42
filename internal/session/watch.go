package session

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Benny93/uml-go/internal/workspace"
)

// Watch reloads the backing file whenever it changes on disk, until ctx
// is cancelled. Invalid contents are logged and the session is kept as
// is. onReload, if set, is called after each successful reload.
func (e *Editor) Watch(ctx context.Context, debounce time.Duration, onReload func()) error {
	path := e.Path()
	if path == "" {
		return ErrNoPath
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	opts := workspace.WatchOptions{
		Debounce: debounce,
		Flat:     true,
		Include:  func(relPath string) bool { return relPath == base },
		Logger:   e.logger,
	}
	return workspace.Watch(ctx, dir, opts, func(ctx context.Context, batch []workspace.Entry) {
		for _, entry := range batch {
			switch {
			case entry.Removed:
				e.logger.Warn("diagram file removed", "path", path)
			case !entry.Valid():
				e.logger.Warn("ignoring invalid diagram file", "path", path, "error", entry.Err)
			default:
				if err := e.Reload(); err != nil {
					e.logger.Warn("reloading diagram", "path", path, "error", err)
					continue
				}
				if onReload != nil {
					onReload()
				}
			}
		}
	})
}
