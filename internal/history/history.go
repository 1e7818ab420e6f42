// Package history keeps undo and redo stacks of diagram snapshots.
//
// The Manager holds a checkpoint of the last recorded state. Save pushes
// that checkpoint onto the undo stack when the originator has changed
// since, so N saves followed by N undos return to the state the Manager
// was created with, and N redos return to the state after the Nth save.
package history

import (
	"fmt"

	"github.com/Benny93/uml-go/internal/diagram"
)

// Originator is the object whose state is captured and restored.
type Originator interface {
	Snapshot() (diagram.Snapshot, error)
	Restore(diagram.Snapshot) error
}

// Manager is the caretaker of an Originator's snapshots.
type Manager struct {
	origin  Originator
	current diagram.Snapshot
	undo    []diagram.Snapshot
	redo    []diagram.Snapshot
}

// New creates a Manager whose checkpoint is the originator's current state.
func New(origin Originator) (*Manager, error) {
	snap, err := origin.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("capturing initial state: %w", err)
	}
	return &Manager{origin: origin, current: snap}, nil
}

// Save records the originator's state. It returns false when nothing
// changed since the last checkpoint. Recording a change clears the redo
// stack.
func (m *Manager) Save() (bool, error) {
	snap, err := m.origin.Snapshot()
	if err != nil {
		return false, fmt.Errorf("capturing state: %w", err)
	}
	if snap.Equal(m.current) {
		return false, nil
	}
	m.undo = append(m.undo, m.current)
	m.current = snap
	m.redo = nil
	return true, nil
}

// Undo restores the most recent checkpoint. It returns false when there
// is nothing to undo.
func (m *Manager) Undo() (bool, error) {
	return m.step(&m.undo, &m.redo)
}

// Redo reapplies the most recently undone state. It returns false when
// there is nothing to redo.
func (m *Manager) Redo() (bool, error) {
	return m.step(&m.redo, &m.undo)
}

// step pops from one stack, restores it and pushes the replaced state onto
// the other. The stacks are untouched when the restore fails.
func (m *Manager) step(from, to *[]diagram.Snapshot) (bool, error) {
	if len(*from) == 0 {
		return false, nil
	}
	now, err := m.origin.Snapshot()
	if err != nil {
		return false, fmt.Errorf("capturing state: %w", err)
	}

	target := (*from)[len(*from)-1]
	if err := m.origin.Restore(target); err != nil {
		return false, fmt.Errorf("restoring state: %w", err)
	}
	*from = (*from)[:len(*from)-1]
	*to = append(*to, now)
	m.current = target
	return true, nil
}

// CanUndo reports whether Undo would change anything.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo would change anything.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// UndoLen returns the depth of the undo stack.
func (m *Manager) UndoLen() int { return len(m.undo) }

// RedoLen returns the depth of the redo stack.
func (m *Manager) RedoLen() int { return len(m.redo) }

// Clear drops both stacks and takes the originator's current state as the
// new checkpoint. Used after loading a different diagram.
func (m *Manager) Clear() error {
	snap, err := m.origin.Snapshot()
	if err != nil {
		return fmt.Errorf("capturing state: %w", err)
	}
	m.undo = nil
	m.redo = nil
	m.current = snap
	return nil
}
