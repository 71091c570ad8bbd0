package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the comparator.
type Metrics struct {
	Registry         *prometheus.Registry
	FetchRequests    *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	OffersExtracted  *prometheus.CounterVec
	SourceErrors     *prometheus.CounterVec
	ComparisonsTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	fetchRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricecompare_fetch_requests_total",
			Help: "Source fetches by outcome.",
		},
		[]string{"source", "outcome"},
	)
	fetchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricecompare_fetch_duration_seconds",
			Help:    "Latency of source fetches.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	offers := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricecompare_offers_extracted_total",
			Help: "Offers extracted per source and locator mode.",
		},
		[]string{"source", "mode"},
	)
	sourceErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricecompare_source_errors_total",
			Help: "Source-local faults by error type.",
		},
		[]string{"source", "error_type"},
	)
	comparisons := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricecompare_comparisons_total",
			Help: "Comparison requests by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(fetchRequests, fetchDuration, offers, sourceErrors, comparisons)

	return &Metrics{
		Registry:         registry,
		FetchRequests:    fetchRequests,
		FetchDuration:    fetchDuration,
		OffersExtracted:  offers,
		SourceErrors:     sourceErrors,
		ComparisonsTotal: comparisons,
	}
}

// IncFetch increments the fetch counter for a source and outcome.
func (m *Metrics) IncFetch(source, outcome string) {
	if m == nil {
		return
	}
	m.FetchRequests.WithLabelValues(source, outcome).Inc()
}

// ObserveFetch records a fetch duration.
func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// AddOffers adds n extracted offers for a source and mode.
func (m *Metrics) AddOffers(source string, mode Mode, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OffersExtracted.WithLabelValues(source, mode.String()).Add(float64(n))
}

// IncSourceError increments the errors counter for a type label.
func (m *Metrics) IncSourceError(source, errorType string) {
	if m == nil {
		return
	}
	m.SourceErrors.WithLabelValues(source, errorType).Inc()
}

// IncComparison increments the comparisons counter.
func (m *Metrics) IncComparison(outcome string) {
	if m == nil {
		return
	}
	m.ComparisonsTotal.WithLabelValues(outcome).Inc()
}
