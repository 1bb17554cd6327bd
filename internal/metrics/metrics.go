// Package metrics exposes Prometheus instrumentation for the pipeline and
// the HTTP server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facturae"

// Metrics holds the collectors. Each instance owns its registry so several
// can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Documents processed by input format and outcome
	Documents *prometheus.CounterVec

	// Extraction warnings by kind: extractor, certificate
	Warnings *prometheus.CounterVec

	ExtractLatency prometheus.Histogram
	RenderLatency  prometheus.Histogram

	// Rendered page count per document
	RenderedPages prometheus.Histogram

	// HTTP requests by route, method and status
	Requests *prometheus.CounterVec
}

// New creates a Metrics instance with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by format and outcome",
		}, []string{"format", "outcome"}),

		Warnings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Non-fatal extraction warnings by source",
		}, []string{"source"}),

		ExtractLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extract_duration_seconds",
			Help:      "Duration of load and extraction",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		RenderLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of PDF rendering",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		RenderedPages: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rendered_pages",
			Help:      "Pages per rendered document",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),

		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveDocument records one processed document
func (m *Metrics) ObserveDocument(format, outcome string, d time.Duration) {
	if m != nil {
		m.Documents.WithLabelValues(format, outcome).Inc()
		m.ExtractLatency.Observe(d.Seconds())
	}
}

// AddWarnings counts n warnings from source
func (m *Metrics) AddWarnings(source string, n int) {
	if m != nil && n > 0 {
		m.Warnings.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveRender records a finished rendering
func (m *Metrics) ObserveRender(pages int, d time.Duration) {
	if m != nil {
		m.RenderLatency.Observe(d.Seconds())
		if pages > 0 {
			m.RenderedPages.Observe(float64(pages))
		}
	}
}

// IncrementRequest records a served HTTP request
func (m *Metrics) IncrementRequest(route, method, status string) {
	if m != nil {
		m.Requests.WithLabelValues(route, method, status).Inc()
	}
}

// Registry returns the registry backing this instance
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
