// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Ratings         *prometheus.CounterVec
	Scores          prometheus.Histogram
	Ingested        *prometheus.CounterVec
	Depleted        prometheus.Counter
	SyncDuration    *prometheus.HistogramVec
	SyncErrors      *prometheus.CounterVec
	ActiveResources prometheus.Gauge
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ratings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assay",
			Name:      "ratings_total",
			Help:      "Resource ratings computed, by outcome.",
		}, []string{"outcome"}),
		Scores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "assay",
			Name:      "rating_score",
			Help:      "Distribution of eligible rating scores.",
			Buckets:   prometheus.LinearBuckets(0, 100, 11),
		}),
		Ingested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assay",
			Name:      "resources_ingested_total",
			Help:      "Resource reports ingested, by source.",
		}, []string{"source"}),
		Depleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "assay",
			Name:      "resources_depleted_total",
			Help:      "Resources marked depleted.",
		}),
		SyncDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assay",
			Name:      "sync_duration_seconds",
			Help:      "Duration of spawn list syncs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"galaxy"}),
		SyncErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assay",
			Name:      "sync_errors_total",
			Help:      "Failed spawn list syncs.",
		}, []string{"galaxy"}),
		ActiveResources: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "assay",
			Name:      "active_resources",
			Help:      "Resources currently in spawn.",
		}),
	}
}

// ObserveRating records one rating. Ineligible ratings are counted but
// not added to the score histogram.
func (m *Metrics) ObserveRating(score float64, eligible bool) {
	if m == nil {
		return
	}
	if !eligible {
		m.Ratings.WithLabelValues("ineligible").Inc()
		return
	}
	m.Ratings.WithLabelValues("eligible").Inc()
	m.Scores.Observe(score)
}

func (m *Metrics) ObserveIngest(source string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "unknown"
	}
	m.Ingested.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveDepleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.Depleted.Add(float64(n))
}

func (m *Metrics) ObserveSync(galaxy string, d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SyncErrors.WithLabelValues(galaxy).Inc()
		return
	}
	m.SyncDuration.WithLabelValues(galaxy).Observe(d.Seconds())
}

func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.ActiveResources.Set(float64(n))
}
