// Package metrics defines the prometheus instrumentation the service
// exposes, grounded on the teacher's promauto-registered counters/gauges
// (originally internal/worker.Pool's job-queue metrics, adapted here to
// battle/session/RPC concerns).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every counter/gauge/histogram this service exports.
type Metrics struct {
	BattlesActive   prometheus.Gauge
	BattlesStarted  prometheus.Counter
	BattlesFinished prometheus.Counter
	ActionTimeouts  prometheus.Counter

	TurnsResolved prometheus.Counter

	RPCCallsTotal   *prometheus.CounterVec
	RPCCallDuration *prometheus.HistogramVec
	ActiveSessions  prometheus.Gauge
}

// New registers every metric against reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BattlesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "battler_battles_active",
			Help: "Number of battles currently in progress.",
		}),
		BattlesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "battler_battles_started_total",
			Help: "Total battles created.",
		}),
		BattlesFinished: factory.NewCounter(prometheus.CounterOpts{
			Name: "battler_battles_finished_total",
			Help: "Total battles that reached a finished state.",
		}),
		ActionTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "battler_action_timeouts_total",
			Help: "Total times a player failed to submit a choice before the action timer expired.",
		}),
		TurnsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "battler_turns_resolved_total",
			Help: "Total turns resolved across all battles.",
		}),
		RPCCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "battler_wamp_calls_total",
			Help: "Total WAMP RPC calls, labeled by procedure and outcome.",
		}, []string{"procedure", "outcome"}),
		RPCCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "battler_wamp_call_duration_seconds",
			Help:    "WAMP RPC call latency in seconds, labeled by procedure.",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "battler_wamp_sessions_active",
			Help: "Number of currently connected WAMP sessions.",
		}),
	}
}
