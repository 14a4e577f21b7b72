/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics provides Prometheus metrics for the MCP tool adapter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values. Tool results are indistinguishable to MCP clients;
// these labels are the only place the cause of an empty result is visible.
const (
	StatusSuccess      = "success"
	StatusEmpty        = "empty"
	StatusError        = "error"
	StatusUnconfigured = "unconfigured"
)

// DefaultToolDurationBuckets covers hosted model calls, which can take up to
// the per-invocation budget of five minutes.
var DefaultToolDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// ToolMetrics holds Prometheus metrics for tool invocations, upstream
// completion requests and analytics logging.
type ToolMetrics struct {
	// ToolCallsTotal counts tool invocations by tool and status.
	ToolCallsTotal *prometheus.CounterVec
	// ToolCallDuration observes end-to-end tool duration.
	ToolCallDuration *prometheus.HistogramVec
	// UpstreamRequestsTotal counts completion requests by model and status.
	UpstreamRequestsTotal *prometheus.CounterVec
	// UpstreamRequestDuration observes completion request duration.
	UpstreamRequestDuration *prometheus.HistogramVec
	// AnalyticsLogsTotal counts analytics log attempts by status.
	AnalyticsLogsTotal *prometheus.CounterVec
}

// ToolMetricsConfig configures the tool metrics.
type ToolMetricsConfig struct {
	// ProductSlug is attached as a constant label.
	ProductSlug string
	// DurationBuckets for the duration histograms. Defaults to DefaultToolDurationBuckets.
	DurationBuckets []float64
}

// NewToolMetrics creates the tool metrics and registers them with reg.
// A nil reg registers with the default Prometheus registerer.
func NewToolMetrics(cfg ToolMetricsConfig, reg prometheus.Registerer) *ToolMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	labels := prometheus.Labels{"product": cfg.ProductSlug}
	buckets := cfg.DurationBuckets
	if buckets == nil {
		buckets = DefaultToolDurationBuckets
	}

	return &ToolMetrics{
		ToolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "inkeep_mcp_tool_calls_total",
			Help:        "Total number of MCP tool calls",
			ConstLabels: labels,
		}, []string{"tool", "status"}),

		ToolCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "inkeep_mcp_tool_call_duration_seconds",
			Help:        "MCP tool call duration in seconds",
			ConstLabels: labels,
			Buckets:     buckets,
		}, []string{"tool"}),

		UpstreamRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "inkeep_mcp_upstream_requests_total",
			Help:        "Total number of upstream completion requests",
			ConstLabels: labels,
		}, []string{"model", "status"}),

		UpstreamRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "inkeep_mcp_upstream_request_duration_seconds",
			Help:        "Upstream completion request duration in seconds",
			ConstLabels: labels,
			Buckets:     buckets,
		}, []string{"model"}),

		AnalyticsLogsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "inkeep_mcp_analytics_logs_total",
			Help:        "Total number of analytics conversation log attempts",
			ConstLabels: labels,
		}, []string{"status"}),
	}
}

// ToolCallMetrics contains the metrics for a single tool call.
type ToolCallMetrics struct {
	ToolName        string
	Status          string
	DurationSeconds float64
}

// RecordToolCall records metrics for a tool call.
func (m *ToolMetrics) RecordToolCall(tc ToolCallMetrics) {
	m.ToolCallsTotal.WithLabelValues(tc.ToolName, tc.Status).Inc()
	m.ToolCallDuration.WithLabelValues(tc.ToolName).Observe(tc.DurationSeconds)
}

// UpstreamMetrics contains the metrics for a single upstream request.
type UpstreamMetrics struct {
	Model           string
	DurationSeconds float64
	Success         bool
}

// RecordUpstream records metrics for an upstream completion request.
func (m *ToolMetrics) RecordUpstream(um UpstreamMetrics) {
	status := StatusSuccess
	if !um.Success {
		status = StatusError
	}
	m.UpstreamRequestsTotal.WithLabelValues(um.Model, status).Inc()
	m.UpstreamRequestDuration.WithLabelValues(um.Model).Observe(um.DurationSeconds)
}

// RecordAnalyticsLog records the outcome of an analytics log attempt.
func (m *ToolMetrics) RecordAnalyticsLog(success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}
	m.AnalyticsLogsTotal.WithLabelValues(status).Inc()
}

// Recorder is the interface for recording tool metrics.
// This allows for no-op implementations when metrics are disabled.
type Recorder interface {
	RecordToolCall(tc ToolCallMetrics)
	RecordUpstream(um UpstreamMetrics)
	RecordAnalyticsLog(success bool)
}

// NoOpToolMetrics is a no-op implementation for when metrics are disabled.
type NoOpToolMetrics struct{}

// RecordToolCall is a no-op implementation for disabled metrics.
func (NoOpToolMetrics) RecordToolCall(_ ToolCallMetrics) {}

// RecordUpstream is a no-op implementation for disabled metrics.
func (NoOpToolMetrics) RecordUpstream(_ UpstreamMetrics) {}

// RecordAnalyticsLog is a no-op implementation for disabled metrics.
func (NoOpToolMetrics) RecordAnalyticsLog(_ bool) {}
