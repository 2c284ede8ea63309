package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "commute_weather"

// Metrics holds the Prometheus collectors for fetching, scoring and notifying.
type Metrics struct {
	FetchRequests      *prometheus.CounterVec // labels: outcome={success,error,empty}
	FetchDuration      prometheus.Histogram
	ObservationsParsed prometheus.Counter

	Predictions *prometheus.CounterVec // labels: period, outcome={success,error}
	LastScore   *prometheus.GaugeVec   // labels: period

	Notifications *prometheus.CounterVec // labels: sink, outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kma_fetch_requests_total",
			Help:      "KMA report fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kma_fetch_duration_seconds",
			Help:      "Duration of a KMA report fetch including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ObservationsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_parsed_total",
			Help:      "Observations extracted from KMA reports.",
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Commute predictions by period and outcome.",
		}, []string{"period", "outcome"}),
		LastScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_comfort_score",
			Help:      "Most recent comfort score per commute period.",
		}, []string{"period"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Prediction notifications by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.ObservationsParsed,
		m.Predictions,
		m.LastScore,
		m.Notifications,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// multiple tests can build their own without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
