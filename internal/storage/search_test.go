package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/uml-go/internal/diagram"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected []string
	}{
		{"UserService", []string{"service", "user", "userservice"}},
		{"find_user", []string{"find", "find_user", "user"}},
		{"HTTP2", []string{"2", "http", "http2"}},
		{"List<String>", []string{"list", "list<string>", "string"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tokenize(tt.input), tt.input)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := NewMemoryBackend()

	_, err := backend.Put(ctx, "shop", sampleDiagram(t))
	require.NoError(t, err)

	other := diagram.NewStore()
	require.NoError(t, other.AddClass("User"))
	_, err = backend.Put(ctx, "accounts", other)
	require.NoError(t, err)

	t.Run("RanksExactMatchFirst", func(t *testing.T) {
		t.Parallel()
		results, err := Search(ctx, backend, "user", 0)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, SearchResult{Save: "accounts", Class: "User", Score: 3}, results[0])
		assert.Equal(t, "shop", results[1].Save)
		assert.Equal(t, "UserService", results[1].Class)
		assert.Empty(t, results[1].Member)
		assert.Equal(t, "findUser", results[2].Member)
	})

	t.Run("Limit", func(t *testing.T) {
		t.Parallel()
		results, err := Search(ctx, backend, "user", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		t.Parallel()
		results, err := Search(ctx, backend, "  ", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("NoMatch", func(t *testing.T) {
		t.Parallel()
		results, err := Search(ctx, backend, "invoice", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
