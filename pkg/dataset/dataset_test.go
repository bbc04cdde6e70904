package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/pkg/prompt"
)

const sample = `[
  {"titre": "Muffins myrtilles", "ingredients": ["farine", "myrtilles"], "instructions": "Cuire 20 min.", "description": "Moelleux", "text_for_embedding": "muffins myrtilles fruits"},
  {"titre": "Muffins feta courgette", "ingredients": ["feta", "courgette"], "instructions": "Cuire 25 min.", "description": "Salé", "text_for_embedding": "muffins feta courgette salé"},
  {"titre": "Muffins chocolat", "ingredients": ["chocolat"], "instructions": "Cuire 18 min.", "description": "Gourmand", "text_for_embedding": "muffins chocolat"}
]`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base_de_donnees.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for _, r := range records {
		assert.NotEmpty(t, r.TextForEmbedding)
	}
	assert.Equal(t, "farine, myrtilles", records[0].Ingredients)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "absent.json")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		empty bool
	}{
		{name: "not json", input: `{{`},
		{name: "object instead of array", input: `{"titre": "x"}`},
		{name: "trailing garbage", input: `[{"titre": "x"}] garbage`},
		{name: "second array", input: `[{"titre": "x"}] [{"titre": "y"}]`},
		{name: "empty array", input: `[]`, empty: true},
		{name: "only blank records", input: `[{"titre": ""}]`, empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.empty, errors.Is(err, ErrEmpty))
		})
	}
}

func TestParseTrailingWhitespace(t *testing.T) {
	records, err := Parse([]byte("[{\"titre\": \"x\"}]\n\n"))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestParseKeepsRecipeText(t *testing.T) {
	raw := `[{"titre": "Muffins  vanille", "ingredients": ["farine", "vanille"], "instructions": "1. Préchauffer le four.\n2. Mélanger.\n3. Cuire 20 min."}]`

	records, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Muffins  vanille", records[0].Title)
	assert.Equal(t, "1. Préchauffer le four.\n2. Mélanger.\n3. Cuire 20 min.", records[0].Instructions)

	p := prompt.Build([]models.QueryResult{{Metadata: records[0].Metadata()}}, "vanille")
	assert.Contains(t, p, "RECETTE : Muffins  vanille\n")
	assert.Contains(t, p, "INSTRUCTIONS : 1. Préchauffer le four.\n2. Mélanger.\n3. Cuire 20 min.\n")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	in := []models.RecipeRecord{
		{
			Title:            "Muffins banane",
			Ingredients:      "banane, farine",
			Instructions:     "Écraser, mélanger, cuire.",
			TextForEmbedding: "muffins banane",
			Extra:            map[string]string{"url": "https://example.com/banane"},
		},
	}
	require.NoError(t, Save(path, in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"banane",`)

	out, err := Load(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].Ingredients, out[0].Ingredients)
	assert.Equal(t, "https://example.com/banane", out[0].Extra["url"])
}
