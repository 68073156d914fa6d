// Package metrics holds the Prometheus instruments used across the worker.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on the metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PagesFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubsync_pages_fetched_total",
			Help: "Cumulative number of CRM search pages fetched, by object type.",
		}, []string{"object_type"})

	ActionsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubsync_actions_emitted_total",
			Help: "Cumulative number of analytics actions pushed to the queue, by kind.",
		}, []string{"kind"})

	RemoteRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hubsync_remote_retries_total",
			Help: "Cumulative number of retried remote CRM calls.",
		})

	TokenRefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hubsync_token_refreshes_total",
			Help: "Cumulative number of OAuth access-token refreshes.",
		})

	QueueFlushesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hubsync_queue_flushes_total",
			Help: "Cumulative number of action batches flushed to the sink.",
		})

	QueueFlushErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hubsync_queue_flush_errors_total",
			Help: "Cumulative number of failed sink flushes.",
		})

	PhaseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hubsync_phase_errors_total",
			Help: "Cumulative number of failed sync phases, by phase.",
		}, []string{"phase"})
)

func init() {
	prometheus.MustRegister(
		PagesFetchedTotal,
		ActionsEmittedTotal,
		RemoteRetriesTotal,
		TokenRefreshesTotal,
		QueueFlushesTotal,
		QueueFlushErrorsTotal,
		PhaseErrorsTotal,
	)
}
