/*
metrics.go - Prometheus instrumentation for the award pipeline

PURPOSE:
  Counts inbound events and recorded decisions so operators can watch
  award throughput and denial rates per rule.

METRICS:
  points_events_received_total{kind}       Events accepted by the API
  points_decisions_recorded_total{kind,status}  Ledger entries written

SEE ALSO:
  - handlers.go: Increments these counters
  - server.go: Mounts the /metrics endpoint
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warp/points-engine/engine"
)

var (
	eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "points_events_received_total",
		Help: "Business events accepted by the API, by entity kind.",
	}, []string{"kind"})

	decisionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "points_decisions_recorded_total",
		Help: "Ledger entries written, by entity kind and status.",
	}, []string{"kind", "status"})
)

func observeEvent(kind engine.EntityKind) {
	eventsReceived.WithLabelValues(string(kind)).Inc()
}

func observeEntries(entries []engine.Entry) {
	for _, e := range entries {
		decisionsRecorded.WithLabelValues(string(e.Kind), string(e.Status)).Inc()
	}
}
