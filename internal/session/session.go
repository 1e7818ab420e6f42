// Package session binds a diagram to its undo history, its backing file
// and a logger. Front ends (the CLI, the shell and the MCP server) edit
// diagrams only through an Editor.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/Benny93/uml-go/internal/codec"
	"github.com/Benny93/uml-go/internal/diagram"
	"github.com/Benny93/uml-go/internal/history"
	"github.com/Benny93/uml-go/internal/storage"
)

// ErrNoPath is returned by Write when the editor has no backing file.
var ErrNoPath = errors.New("session: no file to write")

// Editor is a diagram editing session. It is safe for concurrent use.
type Editor struct {
	mu      sync.Mutex
	store   *diagram.Store
	history *history.Manager
	path    string
	dirty   bool
	logger  *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPath sets the backing file without reading it.
func WithPath(path string) Option {
	return func(e *Editor) {
		e.path = path
	}
}

// New starts a session on an empty diagram.
func New(opts ...Option) (*Editor, error) {
	return newEditor(diagram.NewStore(), opts...)
}

// Open starts a session on the diagram stored at path. A missing file is
// an empty diagram that will be created on the first Write.
func Open(path string, opts ...Option) (*Editor, error) {
	s, err := codec.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s = diagram.NewStore()
	} else if err != nil {
		return nil, err
	}
	return newEditor(s, append(opts, WithPath(path))...)
}

func newEditor(s *diagram.Store, opts ...Option) (*Editor, error) {
	e := &Editor{
		store:  s,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	h, err := history.New(s)
	if err != nil {
		return nil, err
	}
	e.history = h
	e.logger.Debug("session started", "path", e.path, "classes", s.ClassCount())
	return e, nil
}

// Apply runs fn against the diagram and records the result in the undo
// history. If fn fails, every change it made is rolled back.
func (e *Editor) Apply(op string, fn func(*diagram.Store) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	before, err := e.store.Snapshot()
	if err != nil {
		return err
	}

	if err := fn(e.store); err != nil {
		e.rollback(op, before)
		e.logger.Debug("operation rejected", "op", op, "error", err)
		return err
	}

	changed, err := e.history.Save()
	if err != nil {
		return fmt.Errorf("recording %s: %w", op, err)
	}
	if changed {
		e.dirty = true
	}
	e.logger.Debug("operation applied", "op", op, "changed", changed, "undo", e.history.UndoLen())
	return nil
}

// rollback restores before when a failed operation left partial changes.
// An unchanged store is left alone so attribute handles stay valid.
func (e *Editor) rollback(op string, before diagram.Snapshot) {
	after, err := e.store.Snapshot()
	if err == nil && after.Equal(before) {
		return
	}
	if err := e.store.Restore(before); err != nil {
		e.logger.Error("rolling back failed operation", "op", op, "error", err)
	}
}

// View runs fn with read access to the diagram. fn must not mutate it.
func (e *Editor) View(fn func(*diagram.Store) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.store)
}

// Undo reverts the last recorded change. It returns false when there is
// nothing to undo.
func (e *Editor) Undo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.history.Undo()
	if ok {
		e.dirty = true
		e.logger.Debug("undo", "undo", e.history.UndoLen(), "redo", e.history.RedoLen())
	}
	return ok, err
}

// Redo reapplies the last undone change. It returns false when there is
// nothing to redo.
func (e *Editor) Redo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ok, err := e.history.Redo()
	if ok {
		e.dirty = true
		e.logger.Debug("redo", "undo", e.history.UndoLen(), "redo", e.history.RedoLen())
	}
	return ok, err
}

// HistoryDepth returns the undo and redo stack sizes.
func (e *Editor) HistoryDepth() (undo, redo int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.UndoLen(), e.history.RedoLen()
}

// Path returns the backing file, if any.
func (e *Editor) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Dirty reports whether there are changes not yet written.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Write stores the diagram in its backing file.
func (e *Editor) Write() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.path == "" {
		return ErrNoPath
	}
	if err := codec.WriteFile(e.path, e.store); err != nil {
		return err
	}
	e.dirty = false
	e.logger.Debug("diagram written", "path", e.path)
	return nil
}

// Export writes the diagram to path without changing the backing file.
func (e *Editor) Export(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := codec.WriteFile(path, e.store); err != nil {
		return err
	}
	e.logger.Debug("diagram exported", "path", path)
	return nil
}

// Import replaces the diagram with the one stored at path. The
// replacement can be undone.
func (e *Editor) Import(path string) error {
	s, err := codec.ReadFile(path)
	if err != nil {
		return err
	}
	return e.replace("import "+path, s)
}

// Reload re-reads the backing file, discarding the undo history. Used when
// the file changes outside the session. A file matching the session's
// diagram, such as one the session just wrote, leaves the history intact.
func (e *Editor) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.path == "" {
		return ErrNoPath
	}
	s, err := codec.ReadFile(e.path)
	if err != nil {
		return err
	}
	if e.store.Equal(s) {
		e.dirty = false
		return nil
	}
	if err := e.restoreFrom(s); err != nil {
		return err
	}
	if err := e.history.Clear(); err != nil {
		return err
	}
	e.dirty = false
	e.logger.Info("diagram reloaded", "path", e.path, "classes", e.store.ClassCount())
	return nil
}

// SaveTo stores the diagram in the save library under name.
func (e *Editor) SaveTo(ctx context.Context, b storage.Backend, name string) (storage.SaveInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	info, err := b.Put(ctx, name, e.store)
	if err != nil {
		return storage.SaveInfo{}, err
	}
	e.logger.Debug("diagram saved", "name", name, "classes", info.Classes)
	return info, nil
}

// LoadFrom replaces the diagram with the named save. The replacement can
// be undone.
func (e *Editor) LoadFrom(ctx context.Context, b storage.Backend, name string) error {
	s, err := b.Get(ctx, name)
	if err != nil {
		return err
	}
	return e.replace("load "+name, s)
}

func (e *Editor) replace(op string, s *diagram.Store) error {
	return e.Apply(op, func(*diagram.Store) error {
		return e.restoreFrom(s)
	})
}

// restoreFrom copies s into the session store, keeping the store identity
// the history manager refers to.
func (e *Editor) restoreFrom(s *diagram.Store) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	return e.store.Restore(snap)
}
