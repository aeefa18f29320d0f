// Package metrics exposes Prometheus instruments for the agent loop and
// tool dispatch.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "drivedesk"

var (
	agentRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_runs_total",
			Help:      "Agent loop runs by terminal outcome.",
		},
		[]string{"outcome"},
	)

	agentIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_iterations",
			Help:      "Engine calls made by a single agent loop run.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
		},
	)

	toolDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_dispatch_total",
			Help:      "Tool invocations by tool name and result.",
		},
		[]string{"tool", "outcome"},
	)

	engineRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_retries_total",
			Help:      "Reasoning engine calls retried after a rate limit.",
		},
	)
)

// AgentRun records the end of one loop run.
func AgentRun(outcome string, iterations int) {
	agentRunsTotal.WithLabelValues(outcome).Inc()
	agentIterations.Observe(float64(iterations))
}

// ToolDispatched records one dispatch. outcome is "ok", a failure kind, or
// "fatal".
func ToolDispatched(tool, outcome string) {
	toolDispatchTotal.WithLabelValues(tool, outcome).Inc()
}

// EngineRetry records one rate-limit retry.
func EngineRetry() {
	engineRetriesTotal.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
