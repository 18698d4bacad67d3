package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "emptyleg", Name: "match_cycles_total", Help: "Match cycles by outcome"},
		[]string{"outcome"},
	)
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "emptyleg",
		Name:      "match_cycle_duration_seconds",
		Help:      "Match cycle duration seconds",
		Buckets:   prometheus.DefBuckets,
	})
	ProposalsLastCycle = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "emptyleg", Name: "match_proposals", Help: "Proposals computed in the last cycle"})

	MatchOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "emptyleg", Name: "match_operations_total", Help: "Persisted match operations by type"},
		[]string{"type"},
	)
	MatchWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "emptyleg", Name: "match_write_failures_total", Help: "Failed match bulk write operations"})
)

func observeReconcile(result ReconcileResult) {
	MatchOperationsTotal.WithLabelValues(string(OperationInsert)).Add(float64(result.Inserted))
	MatchOperationsTotal.WithLabelValues(string(OperationRefresh)).Add(float64(result.Refreshed))
	MatchOperationsTotal.WithLabelValues(string(OperationOutdate)).Add(float64(result.Outdated))
	MatchWriteFailuresTotal.Add(float64(result.Bulk.FailedCount))
}
