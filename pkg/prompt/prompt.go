package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/xhad/muffin/internal/models"
)

// Defaults used when a retrieved record has no such column at all.
const (
	MissingIngredients  = "Non listés"
	MissingInstructions = "Non précisées"
)

const recipeTemplate = `
---
RECETTE : %s
INGRÉDIENTS : %s
INSTRUCTIONS : %s
DESCRIPTION : %s
`

type PromptConfig struct {
	Persona     string
	PersonaFile string
}

// Builder renders the single user message sent to the model.
type Builder struct {
	persona string
}

func NewWithConfig(config PromptConfig) (*Builder, error) {
	persona := config.Persona
	if config.PersonaFile != "" {
		data, err := os.ReadFile(config.PersonaFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read persona file")
		}
		persona = string(data)
	}
	persona = strings.TrimSpace(persona)
	if persona == "" {
		persona = DefaultPersona
	}
	return &Builder{persona: persona}, nil
}

// New returns a builder using DefaultPersona.
func New() *Builder {
	return &Builder{persona: DefaultPersona}
}

// Build is deterministic: same results and query give the same prompt.
func (b *Builder) Build(results []models.QueryResult, query string) string {
	var sb strings.Builder
	sb.WriteString(b.persona)
	sb.WriteString("\n\n[CONTEXTE]\n")
	sb.WriteString(Context(results))
	sb.WriteString("\n[QUESTION]\n")
	sb.WriteString(query)
	return sb.String()
}

// Context renders one block per retrieved recipe, in retrieval order.
func Context(results []models.QueryResult) string {
	var sb strings.Builder
	for _, r := range results {
		m := r.Metadata
		fmt.Fprintf(&sb, recipeTemplate,
			m.Title(),
			m.GetOr(models.FieldIngredients, MissingIngredients),
			m.GetOr(models.FieldInstructions, MissingInstructions),
			m.GetOr(models.FieldDescription, ""),
		)
	}
	return sb.String()
}

// Build renders a prompt with the default persona.
func Build(results []models.QueryResult, query string) string {
	return New().Build(results, query)
}
