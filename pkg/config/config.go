package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Dataset struct {
		Path string `yaml:"path"`
	} `yaml:"dataset"`

	Embedder EmbedderConfig `yaml:"embedder"`

	Index IndexConfig `yaml:"index"`

	LLM LLMConfig `yaml:"llm"`

	Server struct {
		Addr    string `yaml:"addr"`
		Metrics bool   `yaml:"metrics"`
	} `yaml:"server"`

	Scraper struct {
		MaxDepth          int      `yaml:"max_depth"`
		RateLimit         float64  `yaml:"rate_limit"`
		IgnorePatterns    []string `yaml:"ignore_patterns"`
		AllowedExtensions []string `yaml:"allowed_extensions"`
		Keyword           string   `yaml:"keyword"`
	} `yaml:"scraper"`

	UI struct {
		Title       string `yaml:"title"`
		ShowSources bool   `yaml:"show_sources"`
	} `yaml:"ui"`
}

type EmbedderConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Normalize *bool  `yaml:"normalize"`
	BatchSize int    `yaml:"batch_size"`
}

// NormalizeEnabled reports whether vectors are L2-normalised; unset means yes.
func (c EmbedderConfig) NormalizeEnabled() bool {
	return c.Normalize == nil || *c.Normalize
}

type IndexConfig struct {
	Backend     string `yaml:"backend"`
	Collection  string `yaml:"collection"`
	DatabaseURL string `yaml:"database_url"`
	VectorDim   int    `yaml:"vector_dim"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	PersonaFile string        `yaml:"persona_file"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/cheffe-muffin/config.yaml"),
			"/etc/cheffe-muffin/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	config := newConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}

	mergeWithEnv(config)
	applyDefaults(config)

	return config, nil
}

// Refresh re-applies environment overrides and defaults after fields were
// changed in code, e.g. from command-line flags.
func (c *Config) Refresh() {
	mergeWithEnv(c)
	applyDefaults(c)
}

// newConfig presets the boolean options that default to on, so that a YAML
// file can still switch them off.
func newConfig() *Config {
	config := &Config{}
	config.Server.Metrics = true
	config.UI.ShowSources = true
	return config
}

func getDefaultConfig() (*Config, error) {
	config := newConfig()
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Dataset.Path == "" {
		config.Dataset.Path = "base_de_donnees.json"
	}

	if config.Embedder.Provider == "" {
		config.Embedder.Provider = "ollama"
	}
	if config.Embedder.Model == "" {
		switch config.Embedder.Provider {
		case "openai":
			config.Embedder.Model = "text-embedding-3-small"
		case "mistral":
			config.Embedder.Model = "mistral-embed"
		case "ollama":
			config.Embedder.Model = "nomic-embed-text"
		}
	}
	if config.Embedder.BaseURL == "" {
		switch config.Embedder.Provider {
		case "ollama":
			config.Embedder.BaseURL = "http://localhost:11434"
		case "mistral":
			config.Embedder.BaseURL = "https://api.mistral.ai/v1"
		}
	}
	if config.Embedder.BatchSize == 0 {
		config.Embedder.BatchSize = 32
	}

	if config.Index.Backend == "" {
		config.Index.Backend = "memory"
	}
	if config.Index.Collection == "" {
		config.Index.Collection = "ma_collection_muffins"
	}
	if config.Index.VectorDim == 0 {
		config.Index.VectorDim = 768
	}

	if config.LLM.Provider == "" {
		config.LLM.Provider = "mistral"
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case "mistral":
			config.LLM.Model = "mistral-small-latest"
		case "openai":
			config.LLM.Model = "gpt-4o-mini"
		case "ollama":
			config.LLM.Model = "mistral"
		}
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Timeout == 0 {
		config.LLM.Timeout = 60 * time.Second
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.Scraper.MaxDepth == 0 {
		config.Scraper.MaxDepth = 2
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 1.0
	}
	if len(config.Scraper.AllowedExtensions) == 0 {
		config.Scraper.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	if config.UI.Title == "" {
		config.UI.Title = "Rag à muffins 👩🏼‍🍳"
	}
}

func mergeWithEnv(config *Config) {
	switch config.LLM.Provider {
	case "", "mistral":
		if key := os.Getenv("MISTRAL_API_KEY"); key != "" {
			config.LLM.APIKey = key
		}
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			config.LLM.APIKey = key
		}
	}
	if key := os.Getenv("EMBEDDING_API_KEY"); key != "" {
		config.Embedder.APIKey = key
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		if config.Embedder.Provider == "" || config.Embedder.Provider == "ollama" {
			config.Embedder.BaseURL = baseURL
		}
		if config.LLM.Provider == "ollama" {
			config.LLM.BaseURL = baseURL
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Index.DatabaseURL = dbURL
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
}
