package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recommendation outcome labels.
const (
	RecommendationOK         = "ok"
	RecommendationNotFound   = "not_found"
	RecommendationNoStrategy = "no_strategy"
	RecommendationError      = "error"
)

// Sync result labels.
const (
	SyncIngested = "ingested"
	SyncSkipped  = "skipped"
	SyncRejected = "rejected"
)

var (
	patternsObservedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recovery_engine",
			Name:      "patterns_observed_total",
			Help:      "Total error patterns ingested, partitioned by cluster category.",
		},
		[]string{"category"},
	)

	clustersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recovery_engine",
			Name:      "clusters_created_total",
			Help:      "Total clusters seeded by observations that matched nothing.",
		},
	)

	activeClusters = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "recovery_engine",
			Name:      "active_clusters",
			Help:      "Clusters currently held in the learning state.",
		},
	)

	recommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recovery_engine",
			Name:      "recommendations_total",
			Help:      "Total recommendation requests, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	outcomesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recovery_engine",
			Name:      "outcomes_recorded_total",
			Help:      "Total strategy outcomes folded into the statistics, partitioned by outcome label.",
		},
		[]string{"outcome"},
	)

	syncEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recovery_engine",
			Name:      "sync_events_total",
			Help:      "Platform feed events processed, partitioned by result.",
		},
		[]string{"result"},
	)

	sweepRemovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recovery_engine",
			Name:      "sweep_removed_total",
			Help:      "Records removed by retention sweeps, partitioned by kind.",
		},
		[]string{"kind"},
	)

	operationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recovery_engine",
			Name:      "operation_seconds",
			Help:      "Service operation latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation"},
	)
)

// Register attaches the engine's collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		patternsObservedTotal,
		clustersCreatedTotal,
		activeClusters,
		recommendationsTotal,
		outcomesRecordedTotal,
		syncEventsTotal,
		sweepRemovedTotal,
		operationDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePattern counts one ingested pattern and whether it created a
// cluster, then refreshes the active cluster gauge.
func ObservePattern(category string, createdCluster bool, clusterCount int) {
	patternsObservedTotal.WithLabelValues(category).Inc()
	if createdCluster {
		clustersCreatedTotal.Inc()
	}
	activeClusters.Set(float64(clusterCount))
}

// ObserveRecommendation counts one recommendation request by outcome label.
func ObserveRecommendation(outcome string) {
	recommendationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveOutcome counts one recorded strategy outcome.
func ObserveOutcome(outcome string) {
	outcomesRecordedTotal.WithLabelValues(outcome).Inc()
}

// ObserveSync adds the totals from one platform feed pull.
func ObserveSync(ingested, skipped, rejected int) {
	syncEventsTotal.WithLabelValues(SyncIngested).Add(float64(ingested))
	syncEventsTotal.WithLabelValues(SyncSkipped).Add(float64(skipped))
	syncEventsTotal.WithLabelValues(SyncRejected).Add(float64(rejected))
}

// ObserveSweep records what a retention sweep removed and refreshes the
// active cluster gauge.
func ObserveSweep(removedPatterns, removedClusters, clusterCount int) {
	sweepRemovedTotal.WithLabelValues("patterns").Add(float64(removedPatterns))
	sweepRemovedTotal.WithLabelValues("clusters").Add(float64(removedClusters))
	activeClusters.Set(float64(clusterCount))
}

// ObserveDuration records one operation's latency.
func ObserveDuration(operation string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	operationDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}
