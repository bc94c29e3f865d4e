// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EngineCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gritto",
		Subsystem: "agent",
		Name:      "calls_total",
		Help:      "Reasoning engine calls by operation and outcome.",
	}, []string{"op", "outcome"})

	EngineLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gritto",
		Subsystem: "agent",
		Name:      "call_duration_seconds",
		Help:      "Reasoning engine call latency.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"op"})

	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gritto",
		Subsystem: "planner",
		Name:      "actions_total",
		Help:      "Engine actions processed by type.",
	}, []string{"type"})

	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gritto",
		Subsystem: "planner",
		Name:      "rejections_total",
		Help:      "Writes rejected by capacity or schedule constraints.",
	}, []string{"code"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
