package llm

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrMissingAPIKey is returned when a hosted provider has no credential.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrEmptyCompletion is returned when the model answers with no text.
	ErrEmptyCompletion = errors.New("model returned an empty completion")
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider    string // mistral, openai or ollama
	Model       string
	BaseURL     string
	APIKey      string // deployment-time key, used when the user gives none
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ModelFactory builds a model client for one request.
type ModelFactory func(config ChatConfig, apiKey string) (llms.Model, error)

// ChatEngine sends a single-turn prompt to a hosted language model.
type ChatEngine struct {
	config  ChatConfig
	factory ModelFactory
	log     *logrus.Entry
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Provider == "" {
		config.Provider = "mistral"
	}
	switch config.Provider {
	case "mistral":
		if config.Model == "" {
			config.Model = "mistral-small-latest"
		}
	case "openai":
		if config.Model == "" {
			config.Model = "gpt-4o-mini"
		}
	case "ollama":
		if config.Model == "" {
			config.Model = "mistral"
		}
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
	default:
		return nil, errors.Errorf("unknown llm provider %q", config.Provider)
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, errors.New("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, errors.New("max tokens cannot be negative")
	}

	return &ChatEngine{
		config:  config,
		factory: DefaultModelFactory,
		log:     logrus.WithField("component", "chat").WithField("provider", config.Provider),
	}, nil
}

// WithModelFactory replaces how model clients are built.
func (ce *ChatEngine) WithModelFactory(factory ModelFactory) *ChatEngine {
	ce.factory = factory
	return ce
}

// Config returns the effective configuration.
func (ce *ChatEngine) Config() ChatConfig {
	return ce.config
}

// HasCredential reports whether a request carrying apiKey can be sent.
func (ce *ChatEngine) HasCredential(apiKey string) bool {
	if ce.config.Provider == "ollama" {
		return true
	}
	return ce.effectiveKey(apiKey) != ""
}

func (ce *ChatEngine) effectiveKey(apiKey string) string {
	if k := strings.TrimSpace(apiKey); k != "" {
		return k
	}
	return ce.config.APIKey
}

// Generate sends prompt as one human message and returns the single completion.
func (ce *ChatEngine) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if !ce.HasCredential(apiKey) {
		return "", ErrMissingAPIKey
	}

	model, err := ce.factory(ce.config, ce.effectiveKey(apiKey))
	if err != nil {
		return "", errors.Wrap(err, "failed to initialize LLM")
	}

	if ce.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ce.config.Timeout)
		defer cancel()
	}

	var opts []llms.CallOption
	if ce.config.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(ce.config.Temperature))
	}
	if ce.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(ce.config.MaxTokens))
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	start := time.Now()
	response, err := model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", errors.Wrap(err, "chat error")
	}
	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", ErrEmptyCompletion
	}
	text := response.Choices[0].Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}

	ce.log.WithFields(logrus.Fields{
		"model":      ce.config.Model,
		"prompt_len": len(prompt),
		"elapsed":    time.Since(start).String(),
	}).Info("completion received")

	return text, nil
}

// DefaultModelFactory builds langchaingo clients for the supported providers.
func DefaultModelFactory(config ChatConfig, apiKey string) (llms.Model, error) {
	switch config.Provider {
	case "mistral":
		return mistral.New(mistral.WithAPIKey(apiKey), mistral.WithModel(config.Model))
	case "openai":
		opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(config.Model)}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		return openai.New(opts...)
	case "ollama":
		return ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	default:
		return nil, errors.Errorf("unknown llm provider %q", config.Provider)
	}
}
