package llm

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// EmbedderConfig represents the configuration for an embedding encoder.
type EmbedderConfig struct {
	Provider  string // ollama, openai, mistral or tfidf
	Model     string
	BaseURL   string
	APIKey    string
	Normalize bool
	BatchSize int
}

// Embedder encodes recipes and questions with one model and one normalisation.
type Embedder struct {
	Config EmbedderConfig
	embed  embeddings.Embedder
	log    *logrus.Entry
}

// NewEmbedderWithConfig builds the encoder for the configured provider.
func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}

	var embed embeddings.Embedder
	switch config.Provider {
	case "tfidf":
		embed = NewTFIDF()
	case "ollama", "":
		if config.Model == "" {
			config.Model = "nomic-embed-text"
		}
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
		client, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize ollama embedder")
		}
		if embed, err = wrapClient(client, config.BatchSize); err != nil {
			return nil, err
		}
	case "openai", "mistral":
		if config.APIKey == "" {
			return nil, errors.Wrapf(ErrMissingAPIKey, "%s embedder", config.Provider)
		}
		if config.Provider == "mistral" {
			if config.Model == "" {
				config.Model = "mistral-embed"
			}
			if config.BaseURL == "" {
				config.BaseURL = "https://api.mistral.ai/v1"
			}
		}
		opts := []openai.Option{openai.WithToken(config.APIKey), openai.WithEmbeddingModel(config.Model)}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to initialize %s embedder", config.Provider)
		}
		if embed, err = wrapClient(client, config.BatchSize); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unknown embedder provider %q", config.Provider)
	}

	return NewEmbedder(config, embed), nil
}

// NewEmbedder wraps an already built langchaingo embedder.
func NewEmbedder(config EmbedderConfig, embed embeddings.Embedder) *Embedder {
	return &Embedder{
		Config: config,
		embed:  embed,
		log:    logrus.WithField("component", "embedder").WithField("provider", config.Provider),
	}
}

func wrapClient(client embeddings.EmbedderClient, batchSize int) (embeddings.Embedder, error) {
	embed, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(batchSize),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to wrap embedding client")
	}
	return embed, nil
}

// Prepare hands the corpus to embedders that build a vocabulary from it.
func (e *Embedder) Prepare(corpus []string) error {
	if p, ok := e.embed.(interface{ Prepare([]string) error }); ok {
		return p.Prepare(corpus)
	}
	return nil
}

// EmbedDocuments encodes texts in order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.log.WithField("count", len(texts)).Debug("embedding documents")

	vectors, err := e.embed.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embeddings")
	}
	if len(vectors) != len(texts) {
		return nil, errors.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	if e.Config.Normalize {
		for i := range vectors {
			vectors[i] = Normalize(vectors[i])
		}
	}
	return vectors, nil
}

// EmbedQuery encodes a question exactly like a document.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embed.EmbedQuery(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create query embedding")
	}
	if e.Config.Normalize {
		vector = Normalize(vector)
	}
	return vector, nil
}

// Normalize scales v to unit L2 norm in place. Zero vectors are returned as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
