package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controlplane_intents_total",
		Help: "Payment intents by terminal disposition",
	}, []string{"status"})

	GuardBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controlplane_guard_blocks_total",
		Help: "Guard evaluations that blocked an intent, by guard type",
	}, []string{"guard"})

	AbuseBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controlplane_abuse_blocks_total",
		Help: "Requests rejected by the abuse tracker, by keyspace",
	}, []string{"keyspace"})

	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "controlplane_persistence_failures_total",
		Help: "Durable write-throughs that failed after all retries",
	})

	PersistenceRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "controlplane_persistence_retries_total",
		Help: "Durable write-through attempts that were retried",
	})

	PersistenceQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "controlplane_persistence_queue_depth",
		Help: "Intents waiting in the write-through queue",
	})

	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "controlplane_execution_seconds",
		Help:    "Time spent in payment backend execution calls",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	LegacyConfirms = promauto.NewCounter(prometheus.CounterOpts{
		Name: "controlplane_legacy_confirms_total",
		Help: "Uses of the deprecated confirm_payment_intent path",
	})
)
