package prompt_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/pkg/prompt"
)

var results = []models.QueryResult{
	{
		ID: "1",
		Metadata: models.Metadata{
			"titre":        "Muffins au fromage",
			"ingredients":  "farine, comté, œufs",
			"instructions": "Mélanger puis cuire 20 min.",
			"description":  "Parfait pour l'apéro.",
		},
	},
	{
		ID:       "2",
		Metadata: models.Metadata{"titre": "Muffins mystère"},
	},
}

func TestBuild(t *testing.T) {
	p := prompt.Build(results, "J'ai très envie de fromage ce soir")

	assert.True(t, strings.HasPrefix(p, "TU ES UNE CHEFFE MUFFIN"))
	assert.True(t, strings.HasSuffix(p, "[QUESTION]\nJ'ai très envie de fromage ce soir"))
	assert.Contains(t, p, "pas mécanicien")
	assert.Contains(t, p, "Ne finis juste pas par une question.")

	ctx := strings.Index(p, "[CONTEXTE]")
	q := strings.Index(p, "[QUESTION]")
	require.True(t, ctx > 0 && q > ctx)

	assert.Contains(t, p, "---\nRECETTE : Muffins au fromage\nINGRÉDIENTS : farine, comté, œufs\nINSTRUCTIONS : Mélanger puis cuire 20 min.\nDESCRIPTION : Parfait pour l'apéro.\n")
	// Absent columns get their defaults.
	assert.Contains(t, p, "RECETTE : Muffins mystère\nINGRÉDIENTS : Non listés\nINSTRUCTIONS : Non précisées\nDESCRIPTION : \n")
	assert.Less(t, strings.Index(p, "Muffins au fromage"), strings.Index(p, "Muffins mystère"))

	assert.Equal(t, p, prompt.Build(results, "J'ai très envie de fromage ce soir"))
}

func TestContextEmptyColumnIsNotDefaulted(t *testing.T) {
	c := prompt.Context([]models.QueryResult{{Metadata: models.Metadata{"titre": "X", "ingredients": ""}}})
	assert.Contains(t, c, "INGRÉDIENTS : \n")
}

func TestBuilderPersonaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.txt")
	require.NoError(t, os.WriteFile(path, []byte("Tu es un boulanger.\n"), 0o644))

	b, err := prompt.NewWithConfig(prompt.PromptConfig{PersonaFile: path})
	require.NoError(t, err)
	p := b.Build(results[:1], "pain ?")
	assert.True(t, strings.HasPrefix(p, "Tu es un boulanger.\n\n[CONTEXTE]\n"))

	_, err = prompt.NewWithConfig(prompt.PromptConfig{PersonaFile: filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err)

	b, err = prompt.NewWithConfig(prompt.PromptConfig{})
	require.NoError(t, err)
	assert.Equal(t, prompt.Build(results, "q"), b.Build(results, "q"))
}
