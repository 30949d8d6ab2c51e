package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels of OperationsTotal.
const (
	OperationOwnershipCreated     = "ownership_created"
	OperationOwnershipTransferred = "ownership_transferred"
	OperationSummaryCreated       = "summary_created"
	OperationSummaryUpserted      = "summary_upserted"
	OperationSummaryRemoved       = "summary_removed"
	OperationEventPublished       = "event_published"
)

// Result labels of DomainsTotal.
const (
	ResultProcessed = "processed"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

var (
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dmarc_summaries_operations_total",
		Help: "Mutations applied to the graph store by operation",
	}, []string{"operation"})

	DomainsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dmarc_summaries_domains_total",
		Help: "Domains seen by reconciliation runs by result",
	}, []string{"result"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dmarc_summaries_run_duration_seconds",
		Help:    "Duration of a full reconciliation run in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1h
	})
)

func CountOperation(operation string, count int) {
	if count > 0 {
		OperationsTotal.WithLabelValues(operation).Add(float64(count))
	}
}

func CountDomains(result string, count int) {
	if count > 0 {
		DomainsTotal.WithLabelValues(result).Add(float64(count))
	}
}

func ObserveRun(started time.Time) {
	RunDuration.Observe(time.Since(started).Seconds())
}
