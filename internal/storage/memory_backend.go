package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Benny93/uml-go/internal/diagram"
)

// MemoryBackend is an in-memory save library for tests and throwaway
// sessions. Saves are held in encoded form so loaded diagrams never alias
// stored ones.
type MemoryBackend struct {
	mu       sync.RWMutex
	saves    map[string][]byte
	infos    map[string]SaveInfo
	readOnly bool
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		saves: make(map[string][]byte),
		infos: make(map[string]SaveInfo),
	}
}

// Initialize implements Backend. The path is ignored.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saves == nil {
		m.saves = make(map[string][]byte)
		m.infos = make(map[string]SaveInfo)
	}
	m.readOnly = readOnly
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = nil
	m.infos = nil
	return nil
}

// Put implements Backend.
func (m *MemoryBackend) Put(ctx context.Context, name string, s *diagram.Store) (SaveInfo, error) {
	if err := ValidateSaveName(name); err != nil {
		return SaveInfo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return SaveInfo{}, ErrReadOnly
	}
	if m.saves == nil {
		return SaveInfo{}, fmt.Errorf("memory backend closed")
	}

	rec := newRecord(name, s, time.Now())
	data, err := encodeRecord(rec)
	if err != nil {
		return SaveInfo{}, err
	}
	m.saves[name] = data
	m.infos[name] = rec.SaveInfo
	return rec.SaveInfo, nil
}

// Get implements Backend.
func (m *MemoryBackend) Get(ctx context.Context, name string) (*diagram.Store, error) {
	m.mu.RLock()
	data, ok := m.saves[name]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return rec.store()
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	if _, ok := m.saves[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(m.saves, name)
	delete(m.infos, name)
	return nil
}

// List implements Backend.
func (m *MemoryBackend) List(ctx context.Context) ([]SaveInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SaveInfo, 0, len(m.infos))
	for _, info := range m.infos {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
