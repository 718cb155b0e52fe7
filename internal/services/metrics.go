package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exported by the chat backend. Request-level HTTP metrics come from
// the fiberprometheus middleware; these cover the domain side.
var (
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "healthmate_ws_connections_active",
		Help: "Number of live WebSocket connections",
	})

	chatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthmate_chat_requests_total",
		Help: "Chat requests by selected route",
	}, []string{"route"})

	chatErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthmate_chat_errors_total",
		Help: "Chat requests that ended in an error",
	}, []string{"kind"})

	chatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "healthmate_chat_duration_seconds",
		Help:    "End-to-end chat pipeline latency",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	remindersFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthmate_reminders_fired_total",
		Help: "Schedule reminders delivered over WebSocket",
	})
)
