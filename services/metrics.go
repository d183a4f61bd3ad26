package services

import "github.com/prometheus/client_golang/prometheus"

var (
	syncRunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_runs_total",
			Help: "Catalog sync runs by outcome (success, failed, skipped)",
		},
		[]string{"outcome"},
	)

	syncDurationHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_sync_duration_seconds",
			Help:    "Duration of successful catalog syncs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	cachedProductsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_cached_products",
			Help: "Products stored by the last successful sync",
		},
	)

	droppedProductsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_dropped_products_total",
			Help: "Remote products dropped because they failed to format",
		},
	)

	gamificationEventsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamification_events_total",
			Help: "Gamification recalculations by event and outcome",
		},
		[]string{"event", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		syncRunsCounter,
		syncDurationHistogram,
		cachedProductsGauge,
		droppedProductsCounter,
		gamificationEventsCounter,
	)
}
