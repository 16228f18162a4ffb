package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncsAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "securepm",
			Subsystem: "vault",
			Name:      "syncs_applied_total",
			Help:      "Change sets accepted and applied to a vault.",
		},
	)

	syncsConflictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "securepm",
			Subsystem: "vault",
			Name:      "syncs_conflicted_total",
			Help:      "Change sets rejected because their base version was stale.",
		},
	)

	syncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "securepm",
			Subsystem: "vault",
			Name:      "sync_duration_seconds",
			Help:      "End-to-end latency of vault sync requests.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	vaultsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "securepm",
			Subsystem: "vault",
			Name:      "created_total",
			Help:      "Empty vaults created lazily on first read.",
		},
	)
)
