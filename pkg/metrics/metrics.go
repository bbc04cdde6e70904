package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	MetricsNamespace       = "cheffe_muffin"
	MetricsSubsystemSystem = "system"
	MetricsSubsystemAPI    = "api"
	MetricsSubsystemIndex  = "index"
	MetricsSubsystemLLM    = "llm"

	OutcomeAnswered   = "answered"
	OutcomeEmptyQuery = "empty_query"
	OutcomeNoAPIKey   = "no_api_key"
	OutcomeError      = "error"
)

type Metrics interface {
	GetRegistry() *prometheus.Registry

	ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64)

	ObserveQuestion(outcome string)
	ObserveRetrievalDuration(elapsed float64)
	ObserveGenerationDuration(provider string, elapsed float64)
	SetIndexedDocuments(count int)
}

type metrics struct {
	registry *prometheus.Registry

	startTime prometheus.Gauge

	apiTime *prometheus.HistogramVec

	questionsTotal   *prometheus.CounterVec
	retrievalTime    prometheus.Histogram
	generationTime   *prometheus.HistogramVec
	indexedDocuments prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: MetricsNamespace,
	}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSystem,
		Name:      "start_timestamp_seconds",
		Help:      "The time the process started.",
	})
	m.startTime.SetToCurrentTime()
	m.registry.MustRegister(m.startTime)

	m.apiTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystemAPI,
			Name:      "time_seconds",
			Help:      "Time to execute the api handler",
		},
		[]string{"handler", "method", "status_code"},
	)
	m.registry.MustRegister(m.apiTime)

	m.questionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemAPI,
		Name:      "questions_total",
		Help:      "The total number of questions asked, by outcome.",
	}, []string{"outcome"})
	m.registry.MustRegister(m.questionsTotal)

	m.retrievalTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemIndex,
		Name:      "retrieval_seconds",
		Help:      "Time to embed a question and query the index.",
	})
	m.registry.MustRegister(m.retrievalTime)

	m.generationTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemLLM,
		Name:      "generation_seconds",
		Help:      "Time spent waiting for the language model.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"provider"})
	m.registry.MustRegister(m.generationTime)

	m.indexedDocuments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemIndex,
		Name:      "documents",
		Help:      "Number of recipes in the vector index.",
	})
	m.registry.MustRegister(m.indexedDocuments)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metrics) ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64) {
	if m != nil {
		m.apiTime.With(prometheus.Labels{"handler": handler, "method": method, "status_code": statusCode}).Observe(elapsed)
	}
}

func (m *metrics) ObserveQuestion(outcome string) {
	if m != nil {
		m.questionsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
	}
}

func (m *metrics) ObserveRetrievalDuration(elapsed float64) {
	if m != nil {
		m.retrievalTime.Observe(elapsed)
	}
}

func (m *metrics) ObserveGenerationDuration(provider string, elapsed float64) {
	if m != nil {
		m.generationTime.With(prometheus.Labels{"provider": provider}).Observe(elapsed)
	}
}

func (m *metrics) SetIndexedDocuments(count int) {
	if m != nil {
		m.indexedDocuments.Set(float64(count))
	}
}
