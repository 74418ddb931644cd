package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	resultFailure = "failure"
	resultSkipped = "skipped"
	resultSuccess = "success"
)

var (
	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regskin",
			Subsystem: "catalog",
			Name:      "refresh_total",
			Help:      "Catalog refreshes by result.",
		},
		[]string{"result"},
	)

	refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "regskin",
			Subsystem: "catalog",
			Name:      "refresh_duration_seconds",
			Help:      "Time taken to fetch the catalog and build a snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	repositoriesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "regskin",
			Subsystem: "catalog",
			Name:      "repositories",
			Help:      "Repositories in the current snapshot.",
		},
	)

	lastSuccessGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "regskin",
			Subsystem: "catalog",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		},
	)
)

func init() {
	prometheus.MustRegister(refreshTotal, refreshDuration, repositoriesGauge, lastSuccessGauge)
}
