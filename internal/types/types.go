package types

import (
	"context"

	"github.com/xhad/muffin/internal/models"
)

// Embedder maps text to fixed-length vectors. Documents and queries must go
// through the same model and normalisation.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CorpusPreparer is implemented by embedders that must see the corpus first.
type CorpusPreparer interface {
	Prepare(corpus []string) error
}

// VectorIndex stores entries for the process lifetime and answers k-nearest queries.
type VectorIndex interface {
	Reset(ctx context.Context, dimension int) error
	Add(ctx context.Context, entries []models.IndexEntry) error
	Query(ctx context.Context, vector []float32, k int) ([]models.QueryResult, error)
	Count(ctx context.Context) (int, error)
	Close()
}

// Generator sends one prompt to a hosted model and returns its completion.
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
	HasCredential(apiKey string) bool
}
