package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle
// before handling a batch.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives each batch of changed diagram files, ordered by RelPath.
type Handler func(ctx context.Context, batch []Entry)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// Include, when set, replaces the default diagram-file and ignore
	// checks for files.
	Include func(relPath string) bool

	// Flat watches only the root directory.
	Flat bool

	// Logger receives watch errors; nil discards them.
	Logger *slog.Logger
}

// Watch monitors root for diagram file changes and calls handle with
// batches of re-read entries. Blocks until the context is cancelled.
func Watch(ctx context.Context, root string, opts WatchOptions, handle Handler) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	matcher, err := NewMatcher(root)
	if err != nil {
		return fmt.Errorf("loading ignore patterns: %w", err)
	}
	include := opts.Include
	if include == nil {
		include = func(relPath string) bool {
			return IsDiagramFile(relPath) && !matcher.Ignored(relPath, false)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirs(watcher, root, root, matcher, opts.Flat); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	// Batch changed files so a burst of writes is handled once.
	changed := make(map[string]bool)
	batchTimer := time.NewTimer(debounce)
	batchTimer.Stop()

	logger.Debug("watching for diagram changes", "root", root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			relPath, err := filepath.Rel(root, event.Name)
			if err != nil {
				continue
			}

			if !opts.Flat && event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addDirs(watcher, root, event.Name, matcher, false); err != nil {
						logger.Warn("watching new directory", "path", relPath, "error", err)
					}
					continue
				}
			}

			if !include(relPath) {
				continue
			}
			changed[relPath] = true
			batchTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-batchTimer.C:
			if len(changed) == 0 {
				continue
			}
			batch := make([]Entry, 0, len(changed))
			for relPath := range changed {
				entry, err := readEntry(root, relPath)
				if err != nil {
					logger.Warn("reading changed file", "path", relPath, "error", err)
					continue
				}
				batch = append(batch, entry)
			}
			sort.Slice(batch, func(i, j int) bool { return batch[i].RelPath < batch[j].RelPath })
			changed = make(map[string]bool)

			if len(batch) > 0 {
				handle(ctx, batch)
			}
		}
	}
}

// addDirs adds dir and, unless flat, every non-ignored directory below it.
func addDirs(w *fsnotify.Watcher, root, dir string, matcher *Matcher, flat bool) error {
	if flat {
		return w.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.Ignored(relPath, true) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
