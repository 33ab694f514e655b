package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// weather update pipeline.
type Metrics struct {
	FetchRequests *prometheus.CounterVec // labels: outcome={success,error,degraded_aqi}
	FetchDuration prometheus.Histogram

	AlertsEmitted     *prometheus.CounterVec // labels: severity
	NotificationsSent *prometheus.CounterVec // labels: sink={kafka,log}

	// Scheduler sweep metrics.
	SweepDuration    prometheus.Histogram
	SweepFailures    prometheus.Counter
	SchedulerRunning prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: kind={forward,reverse,region}, outcome={success,error,empty}

	// Rate limiter wait time per upstream family.
	RateLimitWait *prometheus.HistogramVec // labels: api
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.AlertsEmitted,
		m.NotificationsSent,
		m.SweepDuration,
		m.SweepFailures,
		m.SchedulerRunning,
		m.GeocodeRequests,
		m.RateLimitWait,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "fetch_requests_total",
			Help:      "Weather snapshot fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skycast",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a complete per-location snapshot fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "alerts_emitted_total",
			Help:      "Severe-weather alerts produced by the classifier, by severity.",
		}, []string{"severity"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "notifications_sent_total",
			Help:      "Alert notifications dispatched, by sink.",
		}, []string{"sink"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "skycast",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a full scheduler sweep over all locations.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "sweep_failures_total",
			Help:      "Scheduler sweeps that exhausted their retry budget.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "skycast",
			Name:      "scheduler_running",
			Help:      "1 when the periodic update scheduler is active, 0 when stopped.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "geocode_requests_total",
			Help:      "Geocoding lookups by kind and outcome.",
		}, []string{"kind", "outcome"}),
		RateLimitWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skycast",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for a rate limiter grant, per upstream API.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"api"}),
	}
}
