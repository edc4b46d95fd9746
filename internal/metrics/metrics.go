// Package metrics holds the Prometheus collectors for the aggregation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "freegames"

// Fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeChallenge = "challenge"
	OutcomeStatus    = "status"
	OutcomeError     = "error"
	OutcomeOpen      = "circuit_open"
)

// Adapter failure stages.
const (
	StageSearch = "search"
	StageDetail = "detail"
	StageLatest = "latest"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing,
// so tests and the CLI can skip registration.
type Metrics struct {
	FetchRequests   *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	StreamItems     *prometheus.CounterVec
	StreamsActive   prometheus.Gauge
	AdapterFailures *prometheus.CounterVec
	Correlations    *prometheus.CounterVec
	BreakerOpen     *prometheus.GaugeVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initFetchMetrics(factory)
	m.initStreamMetrics(factory)

	return m
}

func (m *Metrics) initFetchMetrics(factory promauto.Factory) {
	m.FetchRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream page fetches by host and outcome",
		},
		[]string{"host", "outcome"},
	)

	m.FetchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream page fetch latency including retries",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12, 20, 30},
		},
		[]string{"host"},
	)

	m.CacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Page cache lookups by result",
		},
		[]string{"result"},
	)

	m.BreakerOpen = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker for a host is open",
		},
		[]string{"host"},
	)
}

func (m *Metrics) initStreamMetrics(factory promauto.Factory) {
	m.StreamItems = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stream_items_total",
			Help:      "Records delivered to stream consumers by source",
		},
		[]string{"source"},
	)

	m.StreamsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "streams_active",
			Help:      "Streams currently producing events",
		},
	)

	m.AdapterFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "adapter_failures_total",
			Help:      "Adapter failures by source and stage",
		},
		[]string{"source", "stage"},
	)

	m.Correlations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "correlations_total",
			Help:      "Records tagged by the correlation index, by match kind",
		},
		[]string{"kind"},
	)
}

// ObserveFetch records one finished fetch.
func (m *Metrics) ObserveFetch(host, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FetchRequests.WithLabelValues(host, outcome).Inc()
	m.FetchDuration.WithLabelValues(host).Observe(elapsed.Seconds())
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// BreakerState sets the open gauge for host.
func (m *Metrics) BreakerState(host string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.WithLabelValues(host).Set(v)
}

// StreamItem counts a delivered record.
func (m *Metrics) StreamItem(source string) {
	if m == nil {
		return
	}
	m.StreamItems.WithLabelValues(source).Inc()
}

// StreamStarted and StreamFinished track active streams.
func (m *Metrics) StreamStarted() {
	if m == nil {
		return
	}
	m.StreamsActive.Inc()
}

func (m *Metrics) StreamFinished() {
	if m == nil {
		return
	}
	m.StreamsActive.Dec()
}

// AdapterFailure counts an adapter error at stage.
func (m *Metrics) AdapterFailure(source, stage string) {
	if m == nil {
		return
	}
	m.AdapterFailures.WithLabelValues(source, stage).Inc()
}

// Correlated counts a correlation match of kind.
func (m *Metrics) Correlated(kind string) {
	if m == nil {
		return
	}
	m.Correlations.WithLabelValues(kind).Inc()
}
