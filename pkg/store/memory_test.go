package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/pkg/store"
)

func entry(id string, v ...float32) models.IndexEntry {
	return models.IndexEntry{
		ID:       id,
		Vector:   v,
		Document: "doc " + id,
		Metadata: models.Metadata{models.FieldTitle: "Recette " + id},
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	_, err := s.Query(ctx, []float32{1, 0}, 3)
	assert.ErrorIs(t, err, store.ErrNotInitialized)

	require.NoError(t, s.Reset(ctx, 2))
	require.NoError(t, s.Add(ctx, []models.IndexEntry{
		entry("a", 1, 0),
		entry("b", 0, 1),
		entry("c", 0.6, 0.8),
		entry("d", 0.8, 0.6),
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	results, err := s.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "d", results[1].ID)
	assert.Equal(t, "c", results[2].ID)
	assert.Equal(t, "Recette a", results[0].Metadata.Title())
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestMemoryStoreFewerThanK(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Reset(ctx, 2))

	results, err := s.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, s.Add(ctx, []models.IndexEntry{entry("a", 1, 0), entry("b", 0, 1)}))
	results, err = s.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryStoreTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Reset(ctx, 2))

	var entries []models.IndexEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, entry(fmt.Sprint(i), 0.5, 0.5))
	}
	require.NoError(t, s.Add(ctx, entries))

	results, err := s.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"0", "1", "2"}, []string{results[0].ID, results[1].ID, results[2].ID})
}

func TestMemoryStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	assert.ErrorIs(t, s.Reset(ctx, 0), store.ErrInvalidDimension)
	assert.ErrorIs(t, s.Add(ctx, []models.IndexEntry{entry("a", 1)}), store.ErrNotInitialized)

	require.NoError(t, s.Reset(ctx, 2))
	assert.ErrorIs(t, s.Add(ctx, []models.IndexEntry{entry("a", 1, 0, 0)}), store.ErrDimensionMismatch)

	require.NoError(t, s.Add(ctx, []models.IndexEntry{entry("a", 1, 0)}))
	assert.Error(t, s.Add(ctx, []models.IndexEntry{entry("a", 0, 1)}))

	_, err := s.Query(ctx, []float32{1}, 3)
	assert.ErrorIs(t, err, store.ErrDimensionMismatch)
	_, err = s.Query(ctx, []float32{1, 0}, 0)
	assert.Error(t, err)

	// Reset empties the index.
	require.NoError(t, s.Reset(ctx, 3))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNew(t *testing.T) {
	idx, err := store.New(context.Background(), store.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, idx)

	_, err = store.New(context.Background(), store.StoreConfig{Backend: "chroma"})
	assert.Error(t, err)

	_, err = store.New(context.Background(), store.StoreConfig{Backend: "pgvector"})
	assert.Error(t, err)
}
