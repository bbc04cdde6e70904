package store

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xhad/muffin/internal/models"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int // expected dimension, only checked against what Reset receives
}

// VectorStore keeps the index in a PostgreSQL table with the pgvector
// extension. The table is dropped and rebuilt by Reset.
type VectorStore struct {
	config    VectorStoreConfig
	pool      *pgxpool.Pool
	table     string
	dimension int
	log       *logrus.Entry
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "ma_collection_muffins"
	}
	if config.ConnString == "" {
		return nil, errors.New("pgvector backend needs a database url")
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
		table:  pgx.Identifier{config.TableName}.Sanitize(),
		log:    logrus.WithField("component", "pgvector").WithField("table", config.TableName),
	}

	// Enable pgvector extension
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to create vector extension")
	}

	return vs, nil
}

// Reset drops the collection and recreates it for vectors of the given size.
func (vs *VectorStore) Reset(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return ErrInvalidDimension
	}
	if vs.config.VectorDim > 0 && vs.config.VectorDim != dimension {
		vs.log.WithFields(logrus.Fields{
			"configured": vs.config.VectorDim,
			"actual":     dimension,
		}).Warn("embedding dimension differs from configuration, using actual")
	}

	if _, err := vs.pool.Exec(ctx, "DROP TABLE IF EXISTS "+vs.table); err != nil {
		return errors.Wrap(err, "failed to drop table")
	}

	// Exact scan, no ANN index.
	createTable := fmt.Sprintf(`
		CREATE TABLE %s (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB
		)`, vs.table, dimension)
	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return errors.Wrap(err, "failed to create table")
	}

	vs.dimension = dimension
	vs.log.WithField("dimension", dimension).Info("collection recreated")
	return nil
}

func (vs *VectorStore) Add(ctx context.Context, entries []models.IndexEntry) error {
	if vs.dimension == 0 {
		return ErrNotInitialized
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document, embedding, metadata)
		VALUES ($1, $2, $3, $4::jsonb)`, vs.table)

	for _, e := range entries {
		if len(e.Vector) != vs.dimension {
			return errors.Wrapf(ErrDimensionMismatch, "entry %s has %d values, index expects %d", e.ID, len(e.Vector), vs.dimension)
		}
		meta := make(models.Metadata, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = sanitizeUTF8(v)
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return errors.Wrap(err, "failed to encode metadata")
		}
		if _, err := tx.Exec(ctx, stmt,
			e.ID,
			sanitizeUTF8(e.Document),
			pgvector.NewVector(e.Vector),
			string(raw),
		); err != nil {
			return errors.Wrapf(err, "failed to insert entry %s", e.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Query orders by negative inner product (<#>) so the best match comes first.
// Insertion order breaks ties.
func (vs *VectorStore) Query(ctx context.Context, vector []float32, k int) ([]models.QueryResult, error) {
	if k <= 0 {
		return nil, errors.New("k must be positive")
	}
	if vs.dimension == 0 {
		return nil, ErrNotInitialized
	}
	if len(vector) != vs.dimension {
		return nil, errors.Wrapf(ErrDimensionMismatch, "query has %d values, index expects %d", len(vector), vs.dimension)
	}

	query := fmt.Sprintf(`
		SELECT id, document, metadata::text, -(embedding <#> $1) AS score
		FROM %s
		ORDER BY embedding <#> $1, seq
		LIMIT $2`, vs.table)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query entries")
	}
	defer rows.Close()

	var results []models.QueryResult
	for rows.Next() {
		var (
			r     models.QueryResult
			meta  string
			score float64
		)
		if err := rows.Scan(&r.ID, &r.Document, &meta, &score); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
			return nil, errors.Wrapf(err, "bad metadata for entry %s", r.ID)
		}
		r.Score = float32(score)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read rows")
	}
	return results, nil
}

func (vs *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := vs.pool.QueryRow(ctx, "SELECT count(*) FROM "+vs.table).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count entries")
	}
	return n, nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

// sanitizeUTF8 drops invalid bytes, which PostgreSQL rejects in TEXT columns.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
