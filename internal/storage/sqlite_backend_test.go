package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/uml-go/internal/diagram"
)

func TestSQLiteBackend_InMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := NewSQLiteBackend()
	require.NoError(t, backend.Initialize(":memory:", false))
	t.Cleanup(func() { backend.Close() })

	_, err := backend.Put(ctx, "a", sampleDiagram(t))
	require.NoError(t, err)

	infos, err := backend.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].Classes)
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves.db")
	s := sampleDiagram(t)

	backend := NewSQLiteBackend()
	require.NoError(t, backend.Initialize(path, false))
	first, err := backend.Put(ctx, "shop", s)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	reopened := NewSQLiteBackend()
	require.NoError(t, reopened.Initialize(path, true))
	defer reopened.Close()

	infos, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.True(t, first.SavedAt.Equal(infos[0].SavedAt))

	loaded, err := reopened.Get(ctx, "shop")
	require.NoError(t, err)
	assert.True(t, s.Equal(loaded))

	_, err = reopened.Put(ctx, "other", diagram.NewStore())
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestSQLiteBackend_NotInitialized(t *testing.T) {
	t.Parallel()
	backend := NewSQLiteBackend()

	_, err := backend.Get(context.Background(), "x")
	assert.Error(t, err)
	assert.NoError(t, backend.Close())
}
