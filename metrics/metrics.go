package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// TransferMetrics instruments the transfer engine's RPC traffic and
// submission outcomes.
type TransferMetrics struct {
	// Counts of JSON-RPC calls, partitioned by operation and status.
	rpcOperations *prometheus.CounterVec

	// Latencies of JSON-RPC calls, partitioned by operation.
	rpcLatencies *prometheus.HistogramVec

	// Counts of transaction submissions, partitioned by outcome.
	submissions *prometheus.CounterVec
}

// NewDefaultTransferMetrics creates Prometheus metric instrumentation
// for the transfer engine. Default metrics include:
//
// 1. Counts and latencies of JSON-RPC calls.
// 2. Counts of submission outcomes.
func NewDefaultTransferMetrics(pkg string) TransferMetrics {
	metrics := TransferMetrics{
		rpcOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_rpc_operations", pkg),
				Help: "How many JSON-RPC calls occur, partitioned by operation and status.",
			},
			[]string{"operation", "status"}, // Labels.
		),
		rpcLatencies: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_rpc_latencies", pkg),
				Help: "How long JSON-RPC calls take, partitioned by operation.",
			},
			[]string{"operation"}, // Labels.
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_submissions", pkg),
				Help: "How many transaction submissions occur, partitioned by outcome.",
			},
			[]string{"outcome"}, // Labels.
		),
	}
	metrics.rpcOperations = registerOnce(metrics.rpcOperations).(*prometheus.CounterVec)
	metrics.rpcLatencies = registerOnce(metrics.rpcLatencies).(*prometheus.HistogramVec)
	metrics.submissions = registerOnce(metrics.submissions).(*prometheus.CounterVec)
	return metrics
}

// RPCOperations returns the counter for the JSON-RPC operation.
// The provided params are used as labels.
func (m *TransferMetrics) RPCOperations(operation, status string) prometheus.Counter {
	return m.rpcOperations.WithLabelValues(operation, status)
}

// RPCLatencies returns a new latency timer for the provided JSON-RPC
// operation.
func (m *TransferMetrics) RPCLatencies(operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.rpcLatencies.WithLabelValues(operation))
}

// Submissions returns the counter for transaction submissions with the
// given outcome.
func (m *TransferMetrics) Submissions(outcome string) prometheus.Counter {
	return m.submissions.WithLabelValues(outcome)
}
