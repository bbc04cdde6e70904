package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NoopMetrics is a no-operation implementation of the Metrics interface for testing.
type NoopMetrics struct{}

func NewNoopMetrics() Metrics {
	return &NoopMetrics{}
}

// GetRegistry returns a new empty registry.
func (m *NoopMetrics) GetRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func (m *NoopMetrics) ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64) {}

func (m *NoopMetrics) ObserveQuestion(outcome string) {}

func (m *NoopMetrics) ObserveRetrievalDuration(elapsed float64) {}

func (m *NoopMetrics) ObserveGenerationDuration(provider string, elapsed float64) {}

func (m *NoopMetrics) SetIndexedDocuments(count int) {}
