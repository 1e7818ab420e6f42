package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/uml-go/internal/diagram"
)

// Key prefixes for different data types
const (
	prefixSave = "s:" // full save record
	prefixInfo = "i:" // save header only, for listings
)

// BadgerBackend is a BadgerDB-backed save library.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	readOnly    bool
	mu          sync.RWMutex
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	b.readOnly = readOnly
	return nil
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// Put implements Backend. The record and its header are written in one
// transaction.
func (b *BadgerBackend) Put(ctx context.Context, name string, s *diagram.Store) (SaveInfo, error) {
	if err := ValidateSaveName(name); err != nil {
		return SaveInfo{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return SaveInfo{}, err
	}
	if b.readOnly {
		return SaveInfo{}, ErrReadOnly
	}

	rec := newRecord(name, s, time.Now())
	data, err := encodeRecord(rec)
	if err != nil {
		return SaveInfo{}, err
	}
	header, err := encodeRecord(record{SaveInfo: rec.SaveInfo})
	if err != nil {
		return SaveInfo{}, err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(saveKey(name), data); err != nil {
			return fmt.Errorf("setting save: %w", err)
		}
		if err := txn.Set(infoKey(name), header); err != nil {
			return fmt.Errorf("setting save header: %w", err)
		}
		return nil
	})
	if err != nil {
		return SaveInfo{}, err
	}
	return rec.SaveInfo, nil
}

// Get implements Backend.
func (b *BadgerBackend) Get(ctx context.Context, name string) (*diagram.Store, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	var rec record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(saveKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = decodeRecord(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("getting save: %w", err)
	}
	return rec.store()
}

// Delete implements Backend.
func (b *BadgerBackend) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ready(); err != nil {
		return err
	}
	if b.readOnly {
		return ErrReadOnly
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(saveKey(name)); err != nil {
			return err
		}
		if err := txn.Delete(saveKey(name)); err != nil {
			return err
		}
		return txn.Delete(infoKey(name))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	return nil
}

// List implements Backend. Only the header keys are read.
func (b *BadgerBackend) List(ctx context.Context) ([]SaveInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.ready(); err != nil {
		return nil, err
	}

	var infos []SaveInfo
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixInfo)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec record
			if err := it.Item().Value(func(val []byte) error {
				var err error
				rec, err = decodeRecord(val)
				return err
			}); err != nil {
				return err
			}
			infos = append(infos, rec.SaveInfo)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (b *BadgerBackend) ready() error {
	if !b.initialized || b.db == nil {
		return errors.New("badger backend not initialized")
	}
	return nil
}

func saveKey(name string) []byte {
	return []byte(prefixSave + name)
}

func infoKey(name string) []byte {
	return []byte(prefixInfo + name)
}
