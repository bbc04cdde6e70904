package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	cfgPkg "github.com/xhad/muffin/pkg/config"
	"github.com/xhad/muffin/pkg/dataset"
	"github.com/xhad/muffin/pkg/llm"
	"github.com/xhad/muffin/pkg/metrics"
	"github.com/xhad/muffin/pkg/prompt"
	"github.com/xhad/muffin/pkg/rag"
	"github.com/xhad/muffin/pkg/store"
)

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*cfgPkg.Config, error) {
	cfg, err := cfgPkg.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("dataset") {
		cfg.Dataset.Path = c.String("dataset")
	}
	if c.IsSet("embedder") {
		cfg.Embedder.Provider = c.String("embedder")
		cfg.Embedder.Model = ""
		cfg.Embedder.BaseURL = ""
	}
	if c.IsSet("index-backend") {
		cfg.Index.Backend = c.String("index-backend")
	}
	if c.IsSet("llm-provider") {
		cfg.LLM.Provider = c.String("llm-provider")
		cfg.LLM.Model = ""
		cfg.LLM.BaseURL = ""
		cfg.LLM.APIKey = ""
	}
	cfg.Refresh()
	if c.IsSet("api-key") {
		cfg.LLM.APIKey = c.String("api-key")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, errors.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return cfg, nil
}

// newChef loads the dataset, builds the index and wires the generation client.
// The returned index is the only copy and lives until the process exits.
func newChef(ctx context.Context, cfg *cfgPkg.Config, m metrics.Metrics, onProgress func(records int) rag.ProgressFunc) (*rag.Chef, error) {
	records, err := dataset.Load(cfg.Dataset.Path)
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, cli.Exit(fmt.Sprintf("Fichier '%s' introuvable !", cfg.Dataset.Path), 1)
	}
	if err != nil {
		return nil, err
	}
	logrus.WithField("records", len(records)).Info("dataset loaded")

	embedKey := cfg.Embedder.APIKey
	if embedKey == "" && cfg.Embedder.Provider == "mistral" {
		embedKey = cfg.LLM.APIKey
	}
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider:  cfg.Embedder.Provider,
		Model:     cfg.Embedder.Model,
		BaseURL:   cfg.Embedder.BaseURL,
		APIKey:    embedKey,
		Normalize: cfg.Embedder.NormalizeEnabled(),
		BatchSize: cfg.Embedder.BatchSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize embedder")
	}

	vectorStore, err := store.New(ctx, store.StoreConfig{
		Backend:     cfg.Index.Backend,
		Collection:  cfg.Index.Collection,
		DatabaseURL: cfg.Index.DatabaseURL,
		VectorDim:   cfg.Index.VectorDim,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize vector store")
	}

	build := rag.BuildConfig{
		Records:   records,
		Embedder:  embedder,
		Store:     vectorStore,
		BatchSize: cfg.Embedder.BatchSize,
	}
	if onProgress != nil {
		build.OnProgress = onProgress(len(records))
	}
	index, err := rag.Build(ctx, build)
	if err != nil {
		vectorStore.Close()
		return nil, err
	}
	m.SetIndexedDocuments(index.Size())

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		index.Close()
		return nil, errors.Wrap(err, "failed to initialize chat engine")
	}

	builder, err := prompt.NewWithConfig(prompt.PromptConfig{PersonaFile: cfg.LLM.PersonaFile})
	if err != nil {
		index.Close()
		return nil, err
	}

	return &rag.Chef{
		Index:     index,
		Generator: chatEngine,
		Prompt:    builder,
		Metrics:   m,
		Provider:  cfg.LLM.Provider,
	}, nil
}
