package rag_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/pkg/llm"
	"github.com/xhad/muffin/pkg/prompt"
	"github.com/xhad/muffin/pkg/rag"
	"github.com/xhad/muffin/pkg/store"
)

var recipes = []models.RecipeRecord{
	{Title: "Muffins au chocolat", Ingredients: "farine, chocolat noir, beurre", TextForEmbedding: "Muffins au chocolat. Ingrédients : farine, chocolat noir, beurre"},
	{Title: "Muffins au fromage", Ingredients: "farine, comté, œufs", TextForEmbedding: "Muffins au fromage. Ingrédients : farine, comté, œufs"},
	{Title: "Muffins aux myrtilles", Ingredients: "myrtilles, sucre", TextForEmbedding: "Muffins aux myrtilles. Ingrédients : myrtilles, sucre"},
	{Title: "Muffins courgette feta", Ingredients: "courgette, feta, menthe", TextForEmbedding: "Muffins courgette feta. Ingrédients : courgette, feta, menthe"},
	{Title: "Muffins banane noix", Ingredients: "banane, noix, cannelle", TextForEmbedding: "Muffins banane noix. Ingrédients : banane, noix, cannelle"},
}

type fakeGenerator struct {
	key     string
	calls   int
	prompts []string
	err     error
}

func (g *fakeGenerator) HasCredential(apiKey string) bool {
	return apiKey != "" || g.key != ""
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, p string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, p)
	if g.err != nil {
		return "", g.err
	}
	return "📍 **Muffins au fromage**", nil
}

// countingEmbedder records how often the question path is hit.
type countingEmbedder struct {
	*llm.Embedder
	queries int
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	c.queries++
	return c.Embedder.EmbedQuery(ctx, text)
}

func newEmbedder(t *testing.T) *countingEmbedder {
	t.Helper()
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{Provider: "tfidf", Normalize: true})
	require.NoError(t, err)
	return &countingEmbedder{Embedder: emb}
}

func buildIndex(t *testing.T, records []models.RecipeRecord) (*rag.Index, *countingEmbedder) {
	t.Helper()
	emb := newEmbedder(t)
	idx, err := rag.Build(context.Background(), rag.BuildConfig{
		Records:   records,
		Embedder:  emb,
		Store:     store.NewMemoryStore(),
		BatchSize: 2,
	})
	require.NoError(t, err)
	return idx, emb
}

func TestBuild(t *testing.T) {
	var progress [][2]int
	emb := newEmbedder(t)
	s := store.NewMemoryStore()
	idx, err := rag.Build(context.Background(), rag.BuildConfig{
		Records:   recipes,
		Embedder:  emb,
		Store:     s,
		BatchSize: 2,
		OnProgress: func(done, total int) {
			progress = append(progress, [2]int{done, total})
		},
	})
	require.NoError(t, err)

	assert.Equal(t, len(recipes), idx.Size())
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(recipes), n)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, progress)

	_, err = rag.Build(context.Background(), rag.BuildConfig{Embedder: emb, Store: s})
	assert.ErrorIs(t, err, rag.ErrNoRecords)
}

func TestRetrieveExactTextComesFirst(t *testing.T) {
	idx, _ := buildIndex(t, recipes)

	for _, r := range recipes {
		results, err := idx.Retrieve(context.Background(), r.TextForEmbedding)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, r.Title, results[0].Metadata.Title())
		assert.Equal(t, r.TextForEmbedding, results[0].Document)
	}
}

func TestRetrieveAtMostTopK(t *testing.T) {
	idx, _ := buildIndex(t, recipes)
	results, err := idx.Retrieve(context.Background(), "muffins farine")
	require.NoError(t, err)
	assert.Len(t, results, rag.TopK)

	small, _ := buildIndex(t, recipes[:2])
	results, err = small.Retrieve(context.Background(), "muffins farine")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrieveIsStable(t *testing.T) {
	idx, _ := buildIndex(t, recipes)
	first, err := idx.Retrieve(context.Background(), "j'ai envie de fromage")
	require.NoError(t, err)
	second, err := idx.Retrieve(context.Background(), "j'ai envie de fromage")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	idx, emb := buildIndex(t, recipes)
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := idx.Retrieve(context.Background(), q)
		assert.ErrorIs(t, err, rag.ErrEmptyQuery)
	}
	assert.Zero(t, emb.queries)
}

func TestChefAsk(t *testing.T) {
	idx, _ := buildIndex(t, recipes)
	gen := &fakeGenerator{}
	chef := &rag.Chef{Index: idx, Generator: gen, Prompt: prompt.New(), Provider: "mistral"}

	answer, err := chef.Ask(context.Background(), "  muffins au fromage comté ", "user-key")
	require.NoError(t, err)
	assert.True(t, answer.Generated)
	assert.Equal(t, "📍 **Muffins au fromage**", answer.Text)
	assert.Equal(t, "muffins au fromage comté", answer.Query)
	require.Len(t, answer.Sources, rag.TopK)
	assert.Equal(t, "Muffins au fromage", answer.SourceTitles()[0])

	require.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.prompts[0], "RECETTE : Muffins au fromage")
	assert.Contains(t, gen.prompts[0], "[QUESTION]\nmuffins au fromage comté")
}

func TestChefAskWithoutKey(t *testing.T) {
	idx, _ := buildIndex(t, recipes)
	gen := &fakeGenerator{}
	chef := &rag.Chef{Index: idx, Generator: gen, Prompt: prompt.New()}

	for i := 0; i < 3; i++ {
		answer, err := chef.Ask(context.Background(), fmt.Sprintf("muffin %d", i), "")
		require.NoError(t, err)
		assert.Equal(t, rag.FallbackMessage, answer.Text)
		assert.False(t, answer.Generated)
	}
	assert.Zero(t, gen.calls)

	// A deployment key satisfies the check.
	gen.key = "deploy"
	answer, err := chef.Ask(context.Background(), "muffin", "")
	require.NoError(t, err)
	assert.True(t, answer.Generated)
}

func TestChefAskEmptyQuery(t *testing.T) {
	idx, emb := buildIndex(t, recipes)
	gen := &fakeGenerator{}
	chef := &rag.Chef{Index: idx, Generator: gen, Prompt: prompt.New()}

	_, err := chef.Ask(context.Background(), "  ", "user-key")
	assert.ErrorIs(t, err, rag.ErrEmptyQuery)
	assert.Zero(t, emb.queries)
	assert.Zero(t, gen.calls)
}

func TestChefAskGenerationError(t *testing.T) {
	idx, _ := buildIndex(t, recipes)
	boom := errors.New("503 service unavailable")
	chef := &rag.Chef{Index: idx, Generator: &fakeGenerator{err: boom}, Prompt: prompt.New()}

	_, err := chef.Ask(context.Background(), "muffin", "k")
	assert.ErrorIs(t, err, boom)
}
