// Package storage provides the named-save library for diagrams.
//
// A save is a diagram stored under a name together with a small header
// (size and save time) so listings never decode full documents. Several
// backends satisfy the same Backend interface.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Benny93/uml-go/internal/diagram"
)

// ErrNotFound is returned when a named save does not exist.
var ErrNotFound = errors.New("storage: save not found")

// ErrInvalidSaveName is returned for names that cannot be stored.
var ErrInvalidSaveName = errors.New("storage: invalid save name")

// ErrReadOnly is returned when writing to a backend opened read-only.
var ErrReadOnly = errors.New("storage: backend is read-only")

// maxSaveNameLen bounds save names.
const maxSaveNameLen = 128

// SaveInfo describes one entry of the save library.
type SaveInfo struct {
	// Name is the key the diagram was saved under.
	Name string `json:"name"`

	// SavedAt is when the save was last written (UTC).
	SavedAt time.Time `json:"saved_at"`

	// Classes is the number of classes in the diagram.
	Classes int `json:"classes"`

	// Relationships is the number of relationships in the diagram.
	Relationships int `json:"relationships"`
}

// Backend defines the interface for save library implementations.
//
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Initialize opens or creates the backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// Put stores the diagram under name, replacing any existing save.
	Put(ctx context.Context, name string, s *diagram.Store) (SaveInfo, error)

	// Get loads the named diagram. Returns ErrNotFound when absent.
	Get(ctx context.Context, name string) (*diagram.Store, error)

	// Delete removes the named save. Returns ErrNotFound when absent.
	Delete(ctx context.Context, name string) error

	// List returns every save ordered by name.
	List(ctx context.Context) ([]SaveInfo, error)
}

// Kinds of backend accepted by Open.
const (
	KindBadger = "badger"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Kinds lists the accepted backend kinds.
func Kinds() []string {
	return []string{KindBadger, KindSQLite, KindMemory}
}

// New returns an uninitialized backend of the given kind.
func New(kind string) (Backend, error) {
	switch strings.ToLower(kind) {
	case KindBadger:
		return NewBadgerBackend(), nil
	case KindSQLite:
		return NewSQLiteBackend(), nil
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want one of %s)", kind, strings.Join(Kinds(), ", "))
	}
}

// Open creates and initializes a backend of the given kind at path.
func Open(kind, path string, readOnly bool) (Backend, error) {
	b, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := b.Initialize(path, readOnly); err != nil {
		return nil, err
	}
	return b, nil
}

// ValidateSaveName checks that name is usable as a save key.
func ValidateSaveName(name string) error {
	if name == "" || len(name) > maxSaveNameLen {
		return fmt.Errorf("%w: %q", ErrInvalidSaveName, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == '/' || r == '\\' {
			return fmt.Errorf("%w: %q", ErrInvalidSaveName, name)
		}
	}
	return nil
}

// record is the stored form of a save.
type record struct {
	SaveInfo
	Document diagram.Document `json:"document"`
}

func newRecord(name string, s *diagram.Store, now time.Time) record {
	doc := s.Document()
	return record{
		SaveInfo: SaveInfo{
			Name:          name,
			SavedAt:       now.UTC(),
			Classes:       len(doc.Classes),
			Relationships: len(doc.Relationships),
		},
		Document: doc,
	}
}

func encodeRecord(r record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshaling save: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return record{}, fmt.Errorf("unmarshaling save: %w", err)
	}
	return r, nil
}

func (r record) store() (*diagram.Store, error) {
	s, err := diagram.FromDocument(r.Document)
	if err != nil {
		return nil, fmt.Errorf("loading save %q: %w", r.Name, err)
	}
	return s, nil
}
