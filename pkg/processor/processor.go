package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/xhad/muffin/internal/models"
)

// ListSeparator joins list-valued columns.
const ListSeparator = ", "

type ProcessorConfig struct {
	// CollapseWhitespace squeezes runs of whitespace in every field. Off by
	// default: recipe text reaches the prompt as decoded.
	CollapseWhitespace bool
	// DeriveEmbeddingText fills a blank text_for_embedding from the other columns.
	DeriveEmbeddingText bool
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	return Processor{
		config: config,
	}
}

// New returns a processor with the defaults used by the loader.
func New() Processor {
	return NewWithConfig(ProcessorConfig{DeriveEmbeddingText: true})
}

// Process flattens decoded JSON rows into recipe records. The column set is
// the union over all rows; a row missing a column gets "" for it. Rows whose
// every column is blank are dropped. Only a derived text_for_embedding is
// cleaned; the other fields keep their line breaks.
func (p *Processor) Process(rows []map[string]any) ([]models.RecipeRecord, error) {
	columns := columnUnion(rows)

	records := make([]models.RecipeRecord, 0, len(rows))
	for i, row := range rows {
		flat := make(models.Metadata, len(columns))
		blank := true
		for _, col := range columns {
			v, err := flatten(row[col])
			if err != nil {
				return nil, errors.Wrapf(err, "record %d, column %q", i, col)
			}
			if p.config.CollapseWhitespace {
				v = cleanText(v)
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			flat[col] = v
		}
		if blank {
			continue
		}

		record := models.RecipeFromMetadata(flat)
		if p.config.DeriveEmbeddingText && strings.TrimSpace(record.TextForEmbedding) == "" {
			record.TextForEmbedding = DeriveEmbeddingText(record)
		}
		records = append(records, record)
	}

	return records, nil
}

// DeriveEmbeddingText builds the text embedded for a record that has none.
func DeriveEmbeddingText(r models.RecipeRecord) string {
	title := cleanText(r.Title)
	ingredients := cleanText(r.Ingredients)
	description := cleanText(r.Description)

	var parts []string
	if title != "" {
		parts = append(parts, title)
	}
	if ingredients != "" {
		parts = append(parts, "Ingrédients : "+ingredients)
	}
	if description != "" {
		parts = append(parts, description)
	}
	if len(parts) == 0 {
		if instructions := cleanText(r.Instructions); instructions != "" {
			parts = append(parts, instructions)
		}
	}
	return strings.Join(parts, ". ")
}

func cleanText(text string) string {
	// Replace runs of whitespace with a single space
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

func columnUnion(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			columns = append(columns, k)
		}
	}
	sort.Strings(columns)
	return columns
}

func flatten(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, err := flatten(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ListSeparator), nil
	case map[string]any:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return "", err
		}
		return strings.TrimSpace(buf.String()), nil
	case json.Number:
		return val.String(), nil
	default:
		return fmt.Sprint(val), nil
	}
}
