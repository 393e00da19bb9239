// Package metrics exposes Prometheus instrumentation for the realtime
// core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks live registered connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nimbus_active_connections",
			Help: "Number of currently registered live connections",
		},
	)

	// MessagesRelayed counts chat messages fanned out to rooms.
	MessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nimbus_messages_relayed_total",
			Help: "Total chat messages persisted and broadcast",
		},
	)

	// CallsStarted counts call sessions created by an offer.
	CallsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nimbus_calls_started_total",
			Help: "Total call sessions created",
		},
	)

	// CallsEnded counts call sessions reaching a terminal state, by state.
	CallsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nimbus_calls_ended_total",
			Help: "Total call sessions torn down, labeled by terminal state",
		},
		[]string{"state"},
	)

	// PushDispatched counts push notifications handed to the dispatcher.
	PushDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nimbus_push_dispatched_total",
			Help: "Total push notifications dispatched for offline recipients",
		},
	)

	// EventErrors counts handler errors reported back to a connection.
	EventErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nimbus_event_errors_total",
			Help: "Total inbound events that failed, labeled by event name",
		},
		[]string{"event"},
	)
)
