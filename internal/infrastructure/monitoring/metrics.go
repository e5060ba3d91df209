package monitoring

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/resilience"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Upload pipeline metrics
	UploadsTotal *prometheus.CounterVec
	UploadBytes  prometheus.Histogram

	// Scoring metrics
	ScoreRequests *prometheus.CounterVec
	ScoreDuration prometheus.Histogram

	// Resilience metrics
	BreakerState *prometheus.GaugeVec
}

// NewMetrics creates a metrics collector registered on reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ats_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ats_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ats_resume_uploads_total",
				Help: "Resume uploads by outcome",
			},
			[]string{"outcome"},
		),
		UploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ats_resume_upload_bytes",
				Help:    "Uploaded resume size in bytes",
				Buckets: []float64{10_000, 100_000, 500_000, 1_000_000, 5_000_000, 10_000_000},
			},
		),
		ScoreRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ats_score_requests_total",
				Help: "Scoring API calls by outcome",
			},
			[]string{"outcome"},
		),
		ScoreDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ats_score_request_duration_seconds",
				Help:    "Scoring API call duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ats_circuit_breaker_open",
				Help: "1 while the named circuit breaker is open, 0 otherwise",
			},
			[]string{"breaker"},
		),
	}
}

// RegisterPoolStats exposes live connection pool usage. The gauges read
// stats on every scrape, so they never go stale.
func RegisterPoolStats(reg prometheus.Registerer, stats func() sql.DBStats) {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ats_db_pool_connections_in_use",
			Help: "Connections currently checked out of the pool",
		},
		func() float64 { return float64(stats().InUse) },
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ats_db_pool_connections_idle",
			Help: "Idle connections held by the pool",
		},
		func() float64 { return float64(stats().Idle) },
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ats_db_pool_wait_count_total",
			Help: "Cumulative number of times a session waited for a connection",
		},
		func() float64 { return float64(stats().WaitCount) },
	)
}

// ObserveBreaker returns a resilience state-change hook that mirrors
// breaker transitions into the gauge.
func (m *Metrics) ObserveBreaker() func(name string, from, to resilience.State) {
	return func(name string, from, to resilience.State) {
		if to == resilience.StateOpen {
			m.BreakerState.WithLabelValues(name).Set(1)
		} else {
			m.BreakerState.WithLabelValues(name).Set(0)
		}
	}
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
