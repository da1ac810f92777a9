// Package metrics exposes Prometheus counters for registry activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registry's Prometheus collectors. Construct once
// per process; promauto registers against the default registry.
type Metrics struct {
	DIDsCreated        prometheus.Counter
	DIDsRevoked        prometheus.Counter
	CredentialsAdded   prometheus.Counter
	Deactivations      prometheus.Counter
	Reactivations      prometheus.Counter
	TransfersInitiated prometheus.Counter
	TransfersCancelled prometheus.Counter
	TransfersAccepted  prometheus.Counter
	OperationDuration  *prometheus.HistogramVec
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		DIDsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_dids_created_total",
			Help: "Total number of DIDs claimed",
		}),
		DIDsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_dids_revoked_total",
			Help: "Total number of DIDs permanently revoked",
		}),
		CredentialsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_credentials_added_total",
			Help: "Total number of credentials appended to identities",
		}),
		Deactivations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_did_deactivations_total",
			Help: "Total number of identity deactivations",
		}),
		Reactivations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_did_reactivations_total",
			Help: "Total number of identity reactivations",
		}),
		TransfersInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_transfers_initiated_total",
			Help: "Total number of ownership transfers initiated",
		}),
		TransfersCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_transfers_cancelled_total",
			Help: "Total number of ownership transfers cancelled",
		}),
		TransfersAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_transfers_accepted_total",
			Help: "Total number of ownership transfers completed",
		}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veris_operation_duration_seconds",
			Help:    "Latency of registry operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
