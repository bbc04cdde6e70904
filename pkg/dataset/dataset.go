package dataset

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/pkg/processor"
)

var (
	// ErrNotFound is returned when the dataset file does not exist.
	ErrNotFound = errors.New("dataset file not found")
	// ErrEmpty is returned when the dataset holds no usable record.
	ErrEmpty = errors.New("dataset is empty")
)

// Load reads a JSON array of recipe objects and returns normalised records.
func Load(path string) ([]models.RecipeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "failed to read dataset %s", path)
	}
	return Parse(data)
}

// Parse decodes dataset bytes. See Load.
func Parse(data []byte) ([]models.RecipeRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, errors.Wrap(err, "dataset must be a JSON array of objects")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("dataset has trailing data after the JSON array")
	}

	p := processor.New()
	records, err := p.Process(rows)
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalise dataset")
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

// Save writes records as a JSON array in the format Load reads. Ingredients
// are written back as a list.
func Save(path string, records []models.RecipeRecord) error {
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		row := make(map[string]any, len(r.Extra)+5)
		for k, v := range r.Extra {
			row[k] = v
		}
		row[models.FieldTitle] = r.Title
		row[models.FieldIngredients] = splitList(r.Ingredients)
		row[models.FieldInstructions] = r.Instructions
		row[models.FieldDescription] = r.Description
		row[models.FieldTextForEmbedding] = r.TextForEmbedding
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return errors.Wrap(err, "failed to encode dataset")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write dataset %s", path)
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Split(s, processor.ListSeparator)
}
