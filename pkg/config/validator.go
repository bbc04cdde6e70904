package config

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	embedderProviders = []string{"ollama", "openai", "mistral", "tfidf"}
	llmProviders      = []string{"mistral", "openai", "ollama"}
	indexBackends     = []string{"memory", "pgvector"}
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Dataset.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "dataset.path",
			Message: "dataset path is required",
		})
	}

	// Validate embedder config
	if !oneOf(c.Embedder.Provider, embedderProviders) {
		errors = append(errors, ValidationError{
			Field:   "embedder.provider",
			Message: fmt.Sprintf("unknown provider %q (want one of %s)", c.Embedder.Provider, strings.Join(embedderProviders, ", ")),
		})
	}
	if c.Embedder.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedder.batch_size",
			Message: "batch_size must be positive",
		})
	}
	if c.Embedder.BaseURL != "" && !validURL(c.Embedder.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "embedder.base_url",
			Message: "invalid embedder base URL",
		})
	}

	// Validate index config
	if !oneOf(c.Index.Backend, indexBackends) {
		errors = append(errors, ValidationError{
			Field:   "index.backend",
			Message: fmt.Sprintf("unknown backend %q (want one of %s)", c.Index.Backend, strings.Join(indexBackends, ", ")),
		})
	}
	if c.Index.Backend == "pgvector" && c.Index.DatabaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "index.database_url",
			Message: "database URL is required for the pgvector backend",
		})
	}
	if c.Index.DatabaseURL != "" {
		if _, err := url.Parse(c.Index.DatabaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "index.database_url",
				Message: "invalid database URL",
			})
		}
	}
	if c.Index.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate LLM config
	if !oneOf(c.LLM.Provider, llmProviders) {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q (want one of %s)", c.LLM.Provider, strings.Join(llmProviders, ", ")),
		})
	}
	if c.LLM.MaxTokens < 0 || c.LLM.MaxTokens > 32768 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 0 and 32768",
		})
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}
	if c.LLM.BaseURL != "" && !validURL(c.LLM.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid LLM base URL",
		})
	}

	// Validate Scraper config
	if c.Scraper.MaxDepth < 1 {
		errors = append(errors, ValidationError{
			Field:   "scraper.max_depth",
			Message: "max_depth must be positive",
		})
	}
	if c.Scraper.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.rate_limit",
			Message: "rate_limit must be positive",
		})
	}
	for _, ext := range c.Scraper.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") && ext != "" && ext != "/" {
			errors = append(errors, ValidationError{
				Field:   "scraper.allowed_extensions",
				Message: fmt.Sprintf("invalid extension format: %s", ext),
			})
		}
	}

	return errors
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
