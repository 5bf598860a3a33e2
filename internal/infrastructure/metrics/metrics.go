package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus metrics. HTTP-level metrics live in
// the metrics middleware; everything here is incremented by the usecases and
// the outbox publisher.
type Metrics struct {
	// Title metrics
	TitlesCreated *prometheus.CounterVec
	TitlesUpdated prometheus.Counter
	TitlesDeleted prometheus.Counter

	// Wallet metrics
	WalletsCreated prometheus.Counter

	// Reprocess metrics
	ReprocessRuns      *prometheus.CounterVec
	ReprocessDuration  prometheus.Histogram
	ReprocessRewritten prometheus.Histogram
	ChainVerifications *prometheus.CounterVec

	// Balance cache metrics
	BalanceCacheHits   prometheus.Counter
	BalanceCacheMisses prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Title metrics
		TitlesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_titles_created_total",
				Help: "Total number of titles created by direction",
			},
			[]string{"direction"},
		),
		TitlesUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_titles_updated_total",
			Help: "Total number of titles updated",
		}),
		TitlesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_titles_deleted_total",
			Help: "Total number of titles deleted",
		}),

		// Wallet metrics
		WalletsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_wallets_created_total",
			Help: "Total number of wallets created",
		}),

		// Reprocess metrics
		ReprocessRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_reprocess_runs_total",
				Help: "Total chain reprocess runs by kind (full or suffix)",
			},
			[]string{"kind"},
		),
		ReprocessDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_reprocess_duration_seconds",
			Help:    "Duration of chain reprocess runs",
			Buckets: prometheus.DefBuckets,
		}),
		ReprocessRewritten: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletledger_reprocess_rewritten_titles",
			Help:    "Number of titles rewritten per reprocess run",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000},
		}),
		ChainVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_chain_verifications_total",
				Help: "Total chain verifications by result",
			},
			[]string{"result"},
		),

		// Balance cache metrics
		BalanceCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_balance_cache_hits_total",
			Help: "Total balance cache hits",
		}),
		BalanceCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_balance_cache_misses_total",
			Help: "Total balance cache misses",
		}),

		// Outbox metrics
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletledger_outbox_errors_total",
			Help: "Total outbox publish errors",
		}),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
