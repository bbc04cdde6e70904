package models

// Dataset column names as they appear in the JSON file.
const (
	FieldTitle            = "titre"
	FieldIngredients      = "ingredients"
	FieldInstructions     = "instructions"
	FieldDescription      = "description"
	FieldTextForEmbedding = "text_for_embedding"
)

// Metadata is the flattened column set of one recipe, every value a string.
type Metadata map[string]string

// Title returns the recipe title stored in the metadata.
func (m Metadata) Title() string {
	return m[FieldTitle]
}

// GetOr returns the value stored under key, or def when the column is absent.
// A present but empty column yields "".
func (m Metadata) GetOr(key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

// RecipeRecord is one normalised dataset row. List-valued columns are already
// joined with ", " and missing columns are "".
type RecipeRecord struct {
	Title            string
	Ingredients      string
	Instructions     string
	Description      string
	TextForEmbedding string
	Extra            map[string]string
}

// Metadata returns every column of the record, known and extra.
func (r RecipeRecord) Metadata() Metadata {
	m := make(Metadata, len(r.Extra)+5)
	for k, v := range r.Extra {
		m[k] = v
	}
	m[FieldTitle] = r.Title
	m[FieldIngredients] = r.Ingredients
	m[FieldInstructions] = r.Instructions
	m[FieldDescription] = r.Description
	m[FieldTextForEmbedding] = r.TextForEmbedding
	return m
}

// RecipeFromMetadata rebuilds a record from its flattened columns.
func RecipeFromMetadata(m Metadata) RecipeRecord {
	r := RecipeRecord{
		Title:            m[FieldTitle],
		Ingredients:      m[FieldIngredients],
		Instructions:     m[FieldInstructions],
		Description:      m[FieldDescription],
		TextForEmbedding: m[FieldTextForEmbedding],
	}
	for k, v := range m {
		switch k {
		case FieldTitle, FieldIngredients, FieldInstructions, FieldDescription, FieldTextForEmbedding:
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[k] = v
	}
	return r
}

// IndexEntry is one row handed to a vector index.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Document string
	Metadata Metadata
}

// QueryResult is a retrieved entry with its similarity score (higher is closer).
type QueryResult struct {
	ID       string
	Document string
	Metadata Metadata
	Score    float32
}

// Answer is what the chef returns for one question.
type Answer struct {
	Query     string
	Text      string
	Sources   []QueryResult
	Generated bool
}

// SourceTitles lists the titles of the retrieved recipes, nearest first.
func (a *Answer) SourceTitles() []string {
	titles := make([]string, 0, len(a.Sources))
	for _, s := range a.Sources {
		titles = append(titles, s.Metadata.Title())
	}
	return titles
}
