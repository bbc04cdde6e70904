package llm_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/xhad/muffin/pkg/llm"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
	calls    int
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	m.messages = messages
	for _, o := range options {
		o(&m.opts)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newEngine(t *testing.T, config llm.ChatConfig, model *fakeModel, keys *[]string) *llm.ChatEngine {
	t.Helper()
	engine, err := llm.NewWithConfig(config)
	require.NoError(t, err)
	return engine.WithModelFactory(func(_ llm.ChatConfig, apiKey string) (llms.Model, error) {
		if keys != nil {
			*keys = append(*keys, apiKey)
		}
		return model, nil
	})
}

func TestNewWithConfig(t *testing.T) {
	engine, err := llm.NewWithConfig(llm.ChatConfig{})
	require.NoError(t, err)
	assert.Equal(t, "mistral", engine.Config().Provider)
	assert.Equal(t, "mistral-small-latest", engine.Config().Model)

	engine, err = llm.NewWithConfig(llm.ChatConfig{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", engine.Config().BaseURL)

	_, err = llm.NewWithConfig(llm.ChatConfig{Provider: "cohere"})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{Temperature: 3})
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	model := &fakeModel{reply: "📍 LE PLAT : Muffins au fromage"}
	var keys []string
	engine := newEngine(t, llm.ChatConfig{Temperature: 0.3, MaxTokens: 512, Timeout: time.Second}, model, &keys)

	text, err := engine.Generate(context.Background(), "user-key", "Tu es la Cheffe Muffin.")
	require.NoError(t, err)
	assert.Equal(t, "📍 LE PLAT : Muffins au fromage", text)

	// One human message carrying the whole prompt.
	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
	require.Len(t, model.messages[0].Parts, 1)
	assert.Equal(t, llms.TextContent{Text: "Tu es la Cheffe Muffin."}, model.messages[0].Parts[0])

	assert.InDelta(t, 0.3, model.opts.Temperature, 1e-9)
	assert.Equal(t, 512, model.opts.MaxTokens)
	assert.Equal(t, []string{"user-key"}, keys)
}

func TestChatKeyFallback(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	var keys []string
	engine := newEngine(t, llm.ChatConfig{APIKey: "deploy-key"}, model, &keys)

	assert.True(t, engine.HasCredential(""))
	_, err := engine.Generate(context.Background(), "   ", "prompt")
	require.NoError(t, err)
	assert.Equal(t, []string{"deploy-key"}, keys)
}

func TestChatMissingKey(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	engine := newEngine(t, llm.ChatConfig{}, model, nil)

	assert.False(t, engine.HasCredential(""))
	_, err := engine.Generate(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
	assert.Zero(t, model.calls)

	ollamaEngine := newEngine(t, llm.ChatConfig{Provider: "ollama"}, model, nil)
	assert.True(t, ollamaEngine.HasCredential(""))
}

func TestChatErrors(t *testing.T) {
	engine := newEngine(t, llm.ChatConfig{}, &fakeModel{reply: "  \n"}, nil)
	_, err := engine.Generate(context.Background(), "k", "prompt")
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)

	boom := errors.New("401 unauthorized")
	engine = newEngine(t, llm.ChatConfig{}, &fakeModel{err: boom}, nil)
	_, err = engine.Generate(context.Background(), "k", "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "chat error")
}

func TestDefaultModelFactory(t *testing.T) {
	model, err := llm.DefaultModelFactory(llm.ChatConfig{Provider: "mistral", Model: "mistral-small-latest"}, "key")
	require.NoError(t, err)
	assert.NotNil(t, model)

	model, err = llm.DefaultModelFactory(llm.ChatConfig{Provider: "openai", Model: "gpt-4o-mini"}, "key")
	require.NoError(t, err)
	assert.NotNil(t, model)

	_, err = llm.DefaultModelFactory(llm.ChatConfig{Provider: "nope"}, "key")
	assert.Error(t, err)
}
