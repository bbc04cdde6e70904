package rag

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/internal/types"
)

// TopK is the number of recipes retrieved for every question.
const TopK = 3

var (
	ErrEmptyQuery  = errors.New("empty query")
	ErrNoRecords   = errors.New("no records to index")
	ErrEmptyVector = errors.New("embedder returned an empty vector")
)

// ProgressFunc is called after each embedded batch with the running total.
type ProgressFunc func(done, total int)

type BuildConfig struct {
	Records    []models.RecipeRecord
	Embedder   types.Embedder
	Store      types.VectorIndex
	BatchSize  int
	OnProgress ProgressFunc
}

// Index is the recipe collection built once at startup. It is read-only
// after Build returns and may be shared by concurrent readers.
type Index struct {
	embedder types.Embedder
	store    types.VectorIndex
	size     int
}

// Build embeds every record's text_for_embedding and loads the store.
func Build(ctx context.Context, config BuildConfig) (*Index, error) {
	if len(config.Records) == 0 {
		return nil, ErrNoRecords
	}
	if config.Embedder == nil || config.Store == nil {
		return nil, errors.New("index build needs an embedder and a store")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	log := logrus.WithField("component", "index")

	texts := make([]string, len(config.Records))
	for i, r := range config.Records {
		texts[i] = r.TextForEmbedding
	}

	if p, ok := config.Embedder.(types.CorpusPreparer); ok {
		if err := p.Prepare(texts); err != nil {
			return nil, errors.Wrap(err, "failed to prepare embedder")
		}
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += config.BatchSize {
		end := start + config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := config.Embedder.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to embed records %d-%d", start, end-1)
		}
		if len(batch) != end-start {
			return nil, errors.Errorf("embedder returned %d vectors for %d records", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
		if config.OnProgress != nil {
			config.OnProgress(end, len(texts))
		}
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, ErrEmptyVector
	}
	if err := config.Store.Reset(ctx, dim); err != nil {
		return nil, errors.Wrap(err, "failed to reset vector index")
	}

	entries := make([]models.IndexEntry, len(config.Records))
	for i, r := range config.Records {
		entries[i] = models.IndexEntry{
			ID:       uuid.NewString(),
			Vector:   vectors[i],
			Document: r.TextForEmbedding,
			Metadata: r.Metadata(),
		}
	}
	if err := config.Store.Add(ctx, entries); err != nil {
		return nil, errors.Wrap(err, "failed to add entries")
	}

	log.WithFields(logrus.Fields{
		"records":   len(entries),
		"dimension": dim,
	}).Info("index built")

	return &Index{
		embedder: config.Embedder,
		store:    config.Store,
		size:     len(entries),
	}, nil
}

// Retrieve returns up to TopK recipes nearest to query, best first.
func (idx *Index) Retrieve(ctx context.Context, query string) ([]models.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	vector, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}
	results, err := idx.store.Query(ctx, vector, TopK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query index")
	}
	return results, nil
}

// Size is the number of indexed recipes.
func (idx *Index) Size() int {
	return idx.size
}

func (idx *Index) Close() {
	idx.store.Close()
}
