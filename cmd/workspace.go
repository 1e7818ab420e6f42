package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Benny93/uml-go/internal/storage"
	"github.com/Benny93/uml-go/internal/workspace"
)

// CheckCmd validates the diagram files under a directory.
type CheckCmd struct {
	Dir string `arg:"" optional:"" default:"." type:"existingdir" help:"Directory to scan"`
}

// Run executes the check command.
func (c *CheckCmd) Run(env *Env) error {
	entries, err := workspace.Scan(c.Dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(env.Out, "No diagram files found in %s\n", c.Dir)
		return nil
	}

	invalid := reportEntries(env, entries)
	if invalid > 0 {
		return fmt.Errorf("%d of %d diagram files are invalid", invalid, len(entries))
	}
	env.success("✓ %d diagram files are valid", len(entries))
	return nil
}

// reportEntries prints one line per entry and returns the number of
// invalid ones.
func reportEntries(env *Env, entries []workspace.Entry) int {
	invalid := 0
	for _, e := range entries {
		switch {
		case e.Removed:
			env.warn("- %s (removed)", e.RelPath)
		case e.Valid():
			stats := e.Store.Stats()
			fmt.Fprintf(env.Out, "✓ %s (%d classes, %d relationships)\n",
				e.RelPath, stats["classes"], stats["relationships"])
		default:
			invalid++
			env.failure("✗ %s: %v", e.RelPath, e.Err)
		}
	}
	return invalid
}

// SyncCmd stores every valid diagram file under a directory in the save
// library, named after its path.
type SyncCmd struct {
	Dir string `arg:"" optional:"" default:"." type:"existingdir" help:"Directory to scan"`
}

// Run executes the sync command.
func (c *SyncCmd) Run(env *Env) error {
	entries, err := workspace.Scan(c.Dir)
	if err != nil {
		return err
	}
	saves, err := env.Saves()
	if err != nil {
		return err
	}
	report, err := workspace.Sync(env.Ctx, saves, entries)
	if err != nil {
		return err
	}
	printSyncReport(env, report)
	return nil
}

func printSyncReport(env *Env, report workspace.SyncReport) {
	for _, name := range report.Stored {
		fmt.Fprintf(env.Out, "stored  %s\n", name)
	}
	for _, name := range report.Deleted {
		fmt.Fprintf(env.Out, "deleted %s\n", name)
	}
	skipped := make([]string, 0, len(report.Skipped))
	for path := range report.Skipped {
		skipped = append(skipped, path)
	}
	sort.Strings(skipped)
	for _, path := range skipped {
		env.warn("skipped %s: %v", path, report.Skipped[path])
	}
}

// WatchCmd watches a directory and revalidates diagram files as they
// change.
type WatchCmd struct {
	Dir      string        `arg:"" optional:"" default:"." type:"existingdir" help:"Directory to watch"`
	Sync     bool          `help:"Mirror changed files into the save library"`
	Debounce time.Duration `default:"500ms" help:"Delay before handling a burst of changes"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(env *Env) error {
	var saves storage.Backend
	if c.Sync {
		var err error
		if saves, err = env.Saves(); err != nil {
			return err
		}
	}

	entries, err := workspace.Scan(c.Dir)
	if err != nil {
		return err
	}
	c.handle(env, saves, entries)

	env.success("Watching %s for changes (Ctrl+C to stop)", c.Dir)

	opts := workspace.WatchOptions{Debounce: c.Debounce, Logger: env.Logger}
	err = workspace.Watch(env.Ctx, c.Dir, opts, func(ctx context.Context, batch []workspace.Entry) {
		c.handle(env, saves, batch)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *WatchCmd) handle(env *Env, saves storage.Backend, entries []workspace.Entry) {
	reportEntries(env, entries)
	if saves == nil {
		return
	}
	report, err := workspace.Sync(env.Ctx, saves, entries)
	if err != nil {
		env.Logger.Warn("syncing changed files", "error", err)
	}
	printSyncReport(env, report)
}
