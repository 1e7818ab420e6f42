package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/Benny93/uml-go/internal/storage"
)

// SyncReport summarizes a Sync run.
type SyncReport struct {
	Stored  []string
	Deleted []string
	Skipped map[string]error
}

// Sync mirrors workspace entries into the save library. Valid diagrams
// are stored under SaveName(RelPath), removed files delete their save,
// invalid files are skipped and reported.
func Sync(ctx context.Context, b storage.Backend, entries []Entry) (SyncReport, error) {
	report := SyncReport{Skipped: make(map[string]error)}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := SaveName(e.RelPath)

		switch {
		case e.Removed:
			err := b.Delete(ctx, name)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return report, fmt.Errorf("deleting save %q: %w", name, err)
			}
			report.Deleted = append(report.Deleted, name)
		case !e.Valid():
			report.Skipped[e.RelPath] = e.Err
		default:
			if err := storage.ValidateSaveName(name); err != nil {
				report.Skipped[e.RelPath] = err
				continue
			}
			if _, err := b.Put(ctx, name, e.Store); err != nil {
				return report, fmt.Errorf("storing save %q: %w", name, err)
			}
			report.Stored = append(report.Stored, name)
		}
	}
	return report, nil
}
