package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/xhad/muffin/internal/models"
)

// MemoryStore is an in-process vector index using brute-force inner product.
// Vectors are expected to be L2-normalised, so the score is cosine similarity.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	entries   []models.IndexEntry
	ids       map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

// Reset empties the index and fixes the vector dimension for later adds.
func (s *MemoryStore) Reset(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return ErrInvalidDimension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.entries = nil
	s.ids = make(map[string]struct{})
	return nil
}

func (s *MemoryStore) Add(_ context.Context, entries []models.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return ErrNotInitialized
	}
	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return errors.Wrapf(ErrDimensionMismatch, "entry %s has %d values, index expects %d", e.ID, len(e.Vector), s.dimension)
		}
		if _, dup := s.ids[e.ID]; dup {
			return errors.Errorf("duplicate entry id %s", e.ID)
		}
	}
	for _, e := range entries {
		s.ids[e.ID] = struct{}{}
		e.Vector = append([]float32(nil), e.Vector...)
		s.entries = append(s.entries, e)
	}
	return nil
}

// Query returns the k entries with the highest inner product, best first.
// Equal scores keep insertion order.
func (s *MemoryStore) Query(_ context.Context, vector []float32, k int) ([]models.QueryResult, error) {
	if k <= 0 {
		return nil, errors.New("k must be positive")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return nil, ErrNotInitialized
	}
	if len(vector) != s.dimension {
		return nil, errors.Wrapf(ErrDimensionMismatch, "query has %d values, index expects %d", len(vector), s.dimension)
	}

	scores := make([]float32, len(s.entries))
	idxs := make([]int, len(s.entries))
	for i := range s.entries {
		scores[i] = dot(s.entries[i].Vector, vector)
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return scores[idxs[a]] > scores[idxs[b]]
	})
	if k > len(idxs) {
		k = len(idxs)
	}

	results := make([]models.QueryResult, 0, k)
	for _, j := range idxs[:k] {
		e := s.entries[j]
		results = append(results, models.QueryResult{
			ID:       e.ID,
			Document: e.Document,
			Metadata: e.Metadata,
			Score:    scores[j],
		})
	}
	return results, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Close() {}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
