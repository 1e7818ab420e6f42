package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddRelationship(t *testing.T) {
	t.Parallel()

	t.Run("InvalidType", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a", "b")

		assert.ErrorIs(t, s.AddRelationship("a", "b", 4), ErrInvalidType)
		assert.ErrorIs(t, s.AddRelationship("a", "b", -1), ErrInvalidType)
		assert.Empty(t, s.Relationships())
	})

	t.Run("SelfRelationships", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a")

		assert.ErrorIs(t, s.AddRelationship("a", "a", 2), ErrSelfRelationshipForbidden)
		assert.ErrorIs(t, s.AddRelationship("a", "a", 3), ErrSelfRelationshipForbidden)
		assert.NoError(t, s.AddRelationship("a", "a", 0))
	})

	t.Run("SelfComposition", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a")

		assert.NoError(t, s.AddRelationship("a", "a", Composition))
	})

	t.Run("CompositionConflict", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a", "b", "c")

		require.NoError(t, s.AddRelationship("a", "b", 1))
		assert.ErrorIs(t, s.AddRelationship("c", "b", 1), ErrCompositionConflict)

		assert.Equal(t, []Relationship{{Source: "a", Destination: "b", Type: Composition}}, s.Relationships())
	})

	t.Run("CompositionAllowedAlongsideOtherTypes", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a", "b", "c")

		require.NoError(t, s.AddRelationship("a", "b", Aggregation))
		assert.NoError(t, s.AddRelationship("c", "b", Composition))
	})

	t.Run("DuplicatePair", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a", "b")

		require.NoError(t, s.AddRelationship("a", "b", Aggregation))
		assert.ErrorIs(t, s.AddRelationship("a", "b", Realization), ErrDuplicateRelationship)
		assert.NoError(t, s.AddRelationship("b", "a", Realization))
	})

	t.Run("MissingClass", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a")

		assert.ErrorIs(t, s.AddRelationship("a", "ghost", Aggregation), ErrNotFound)
		assert.ErrorIs(t, s.AddRelationship("ghost", "a", Aggregation), ErrNotFound)
	})
}

func TestStore_DeleteRelationship(t *testing.T) {
	t.Parallel()
	s := newStoreWithClasses(t, "a", "b")
	require.NoError(t, s.AddRelationship("a", "b", Aggregation))

	assert.ErrorIs(t, s.DeleteRelationship("b", "a"), ErrNotFound)
	require.NoError(t, s.DeleteRelationship("a", "b"))
	assert.Empty(t, s.Relationships())
	assert.ErrorIs(t, s.DeleteRelationship("a", "b"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteRelationship("a", "zzz"), ErrNotFound)
}

func TestStore_ChangeRelationshipType(t *testing.T) {
	t.Parallel()

	t.Run("Changes", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a", "b")
		require.NoError(t, s.AddRelationship("a", "b", Aggregation))

		require.NoError(t, s.ChangeRelationshipType("a", "b", Generalization))

		typ, err := s.RelationshipType("a", "b")
		require.NoError(t, err)
		assert.Equal(t, Generalization, typ)
	})

	t.Run("InvalidType", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a", "b")
		require.NoError(t, s.AddRelationship("a", "b", Aggregation))

		assert.ErrorIs(t, s.ChangeRelationshipType("a", "b", 7), ErrInvalidType)
	})

	t.Run("SelfForbidden", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a")
		require.NoError(t, s.AddRelationship("a", "a", Aggregation))

		assert.ErrorIs(t, s.ChangeRelationshipType("a", "a", Realization), ErrSelfRelationshipForbidden)
		typ, err := s.RelationshipType("a", "a")
		require.NoError(t, err)
		assert.Equal(t, Aggregation, typ)
	})

	t.Run("CompositionConflict", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a", "b", "c")
		require.NoError(t, s.AddRelationship("a", "b", Composition))
		require.NoError(t, s.AddRelationship("c", "b", Aggregation))

		assert.ErrorIs(t, s.ChangeRelationshipType("c", "b", Composition), ErrCompositionConflict)
		assert.NoError(t, s.ChangeRelationshipType("a", "b", Composition))
	})

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()
		s := newStoreWithClasses(t, "a", "b")

		assert.ErrorIs(t, s.ChangeRelationshipType("a", "b", Aggregation), ErrNotFound)
	})
}

func TestStore_RelationshipsByClass(t *testing.T) {
	t.Parallel()
	s := newStoreWithClasses(t, "a", "b", "c")
	require.NoError(t, s.AddRelationship("a", "b", Aggregation))
	require.NoError(t, s.AddRelationship("c", "a", Realization))
	require.NoError(t, s.AddRelationship("b", "c", Aggregation))

	rels, err := s.RelationshipsByClass("a")
	require.NoError(t, err)
	assert.Equal(t, []Relationship{
		{Source: "a", Destination: "b", Type: Aggregation},
		{Source: "c", Destination: "a", Type: Realization},
	}, rels)

	_, err = s.RelationshipsByClass("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseRelationshipType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want RelationshipType
	}{
		{"aggregation", Aggregation},
		{"Composition", Composition},
		{" generalization ", Generalization},
		{"3", Realization},
		{"0", Aggregation},
	}
	for _, tt := range tests {
		got, err := ParseRelationshipType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "4", "-1", "inheritance"} {
		_, err := ParseRelationshipType(bad)
		assert.ErrorIs(t, err, ErrInvalidType, bad)
	}

	assert.Equal(t, "realization", Realization.String())
	assert.Equal(t, "none", RelationshipType(9).String())
}
