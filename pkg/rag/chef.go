package rag

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xhad/muffin/internal/models"
	"github.com/xhad/muffin/internal/types"
	"github.com/xhad/muffin/pkg/metrics"
)

// FallbackMessage replaces the answer when no API key is available.
const FallbackMessage = "Oups ! Il me manque ta clé API dans la barre latérale pour pouvoir cuisiner... 🧁"

// PromptBuilder renders the model input from retrieved recipes.
type PromptBuilder interface {
	Build(results []models.QueryResult, query string) string
}

// Chef answers one question: retrieve, build the prompt, generate.
type Chef struct {
	Index     *Index
	Generator types.Generator
	Prompt    PromptBuilder
	Metrics   metrics.Metrics
	Provider  string
}

// Ask never calls the generator for an empty query or without a usable key.
// A missing key is not an error: the answer carries FallbackMessage.
func (c *Chef) Ask(ctx context.Context, query, apiKey string) (*models.Answer, error) {
	m := c.Metrics
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	log := logrus.WithField("component", "chef")

	query = strings.TrimSpace(query)
	if query == "" {
		m.ObserveQuestion(metrics.OutcomeEmptyQuery)
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	results, err := c.Index.Retrieve(ctx, query)
	if err != nil {
		m.ObserveQuestion(metrics.OutcomeError)
		return nil, err
	}
	m.ObserveRetrievalDuration(time.Since(start).Seconds())

	answer := &models.Answer{Query: query, Sources: results}
	if !c.Generator.HasCredential(apiKey) {
		m.ObserveQuestion(metrics.OutcomeNoAPIKey)
		answer.Text = FallbackMessage
		return answer, nil
	}

	p := c.Prompt.Build(results, query)

	start = time.Now()
	text, err := c.Generator.Generate(ctx, apiKey, p)
	m.ObserveGenerationDuration(c.Provider, time.Since(start).Seconds())
	if err != nil {
		m.ObserveQuestion(metrics.OutcomeError)
		return nil, errors.Wrap(err, "la Cheffe n'a pas pu répondre")
	}

	log.WithFields(logrus.Fields{
		"sources": len(results),
		"answer":  len(text),
	}).Debug("question answered")
	m.ObserveQuestion(metrics.OutcomeAnswered)

	answer.Text = text
	answer.Generated = true
	return answer, nil
}
