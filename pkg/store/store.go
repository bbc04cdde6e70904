package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/xhad/muffin/internal/types"
)

var (
	ErrInvalidDimension  = errors.New("vector dimension must be positive")
	ErrNotInitialized    = errors.New("index not initialized, call Reset first")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// StoreConfig selects and configures a vector index backend.
type StoreConfig struct {
	Backend     string // memory or pgvector
	Collection  string
	DatabaseURL string
	VectorDim   int
}

// New opens the configured backend.
func New(ctx context.Context, config StoreConfig) (types.VectorIndex, error) {
	switch config.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "pgvector":
		vs, err := NewWithConfig(ctx, VectorStoreConfig{
			ConnString: config.DatabaseURL,
			TableName:  config.Collection,
			VectorDim:  config.VectorDim,
		})
		if err != nil {
			return nil, err
		}
		return vs, nil
	default:
		return nil, errors.Errorf("unknown index backend %q", config.Backend)
	}
}
