package metrics

import "github.com/prometheus/client_golang/prometheus"

// Hotspot Prometheus metrics.
var (
	HotspotRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "hotspot_refresh_total",
			Help:      "Hotspot generation refreshes by outcome",
		},
		[]string{"status"}, // "ok" / "error" / "superseded"
	)

	HotspotRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "hotspot_refresh_duration_seconds",
			Help:      "Time to load recommendations and build a hotspot generation",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	HotspotClusters = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "hotspot_clusters",
			Help:      "Neighborhood clusters in the current generation",
		},
		[]string{"category"},
	)

	HotspotGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "hotspot_generation",
			Help:      "Sequence number of the current hotspot generation",
		},
	)

	HotspotLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "hotspot_lookups_total",
			Help:      "Reverse lookups by outcome",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	HotspotPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "hotspot_publish_total",
			Help:      "Generation publications to the message broker by outcome",
		},
		[]string{"status"}, // "ok" / "error" / "rejected"
	)

	RecommendationMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recommendation_mutations_total",
			Help:      "Recommendation writes by operation",
		},
		[]string{"operation"}, // "create" / "delete" / "seed" / "clear"
	)
)

var hotspotMetricsRegistered bool

// RegisterHotspotMetrics registers Prometheus hotspot metrics. Must be called once from main.
func RegisterHotspotMetrics() {
	if hotspotMetricsRegistered {
		return
	}
	prometheus.MustRegister(HotspotRefreshTotal)
	prometheus.MustRegister(HotspotRefreshDuration)
	prometheus.MustRegister(HotspotClusters)
	prometheus.MustRegister(HotspotGeneration)
	prometheus.MustRegister(HotspotLookupsTotal)
	prometheus.MustRegister(HotspotPublishTotal)
	prometheus.MustRegister(RecommendationMutationsTotal)
	hotspotMetricsRegistered = true
}
