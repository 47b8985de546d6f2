/*
Copyright The Volcano Authors.

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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/volcano-sh/tokens-codex/pkg/compare"
)

const (
	// Label names
	LabelPath        = "path"
	LabelStatusCode  = "status_code"
	LabelErrorType   = "error_type"
	LabelFormat      = "format"
	LabelInputFormat = "input_format"
	LabelState       = "state"
	LabelLimitType   = "limit_type"
	LabelResult      = "result"

	// Limit type values
	LimitTypeInputTokens = "input_tokens"

	// Cache result values
	CacheHit  = "hit"
	CacheMiss = "miss"

	// Metric names scraped back by the CLI stats command
	SerializedTokensTotalName = "tokens_codex_serialized_tokens_total"
	InputTokensTotalName      = "tokens_codex_input_tokens_total"
	ComparisonsTotalName      = "tokens_codex_comparisons_total"
)

// Metrics holds all Prometheus metrics for the server
type Metrics struct {
	// Request counters
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	ComparisonsTotal      *prometheus.CounterVec
	ComparisonDuration    *prometheus.HistogramVec
	SerializedTokensTotal *prometheus.CounterVec
	InputTokensTotal      *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceeded *prometheus.CounterVec

	// Cache and live session metrics
	CacheLookups       *prometheus.CounterVec
	ActiveLiveSessions prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_codex_requests_total",
				Help: "Total number of HTTP requests processed by the server",
			},
			[]string{LabelPath, LabelStatusCode, LabelErrorType},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokens_codex_request_duration_seconds",
				Help:    "End-to-end request processing latency distribution",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{LabelPath, LabelStatusCode},
		),

		ComparisonsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: ComparisonsTotalName,
				Help: "Number of format comparisons by detected input format and outcome",
			},
			[]string{LabelInputFormat, LabelState},
		),

		ComparisonDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokens_codex_comparison_duration_seconds",
				Help:    "Time spent parsing, serializing and tokenizing one input",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{LabelInputFormat},
		),

		SerializedTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: SerializedTokensTotalName,
				Help: "Tokens produced by each target format serialization",
			},
			[]string{LabelFormat},
		),

		InputTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: InputTokensTotalName,
				Help: "Tokens of raw input text received per API path",
			},
			[]string{LabelPath},
		),

		RateLimitExceeded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_codex_rate_limit_exceeded_total",
				Help: "Number of requests rejected due to rate limiting",
			},
			[]string{LabelLimitType, LabelPath},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_codex_cache_lookups_total",
				Help: "Comparison cache lookups by result",
			},
			[]string{LabelResult},
		),

		ActiveLiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tokens_codex_active_live_sessions",
				Help: "Current number of open live comparison websocket sessions",
			},
		),
	}
}

// RecordRequest records a completed request
func (m *Metrics) RecordRequest(path, statusCode, errorType string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(path, statusCode, errorType).Inc()
	m.RequestDuration.WithLabelValues(path, statusCode).Observe(duration.Seconds())
}

// RecordComparison records the outcome of one comparison and the token cost of every format
func (m *Metrics) RecordComparison(out compare.Outcome, duration time.Duration) {
	input := string(out.Format)
	if input == "" {
		input = "none"
	}
	m.ComparisonsTotal.WithLabelValues(input, string(out.State)).Inc()
	if out.State != compare.StateOK {
		return
	}
	m.ComparisonDuration.WithLabelValues(input).Observe(duration.Seconds())
	for _, r := range out.Results {
		m.SerializedTokensTotal.WithLabelValues(string(r.Format)).Add(float64(r.Tokens))
	}
}

// RecordSerializedTokens records the token count of a single conversion output
func (m *Metrics) RecordSerializedTokens(format string, tokens int) {
	m.SerializedTokensTotal.WithLabelValues(format).Add(float64(tokens))
}

// RecordInputTokens records the token count of raw input
func (m *Metrics) RecordInputTokens(path string, tokens int) {
	if tokens > 0 {
		m.InputTokensTotal.WithLabelValues(path).Add(float64(tokens))
	}
}

// RecordRateLimitExceeded records when a request is rejected due to rate limiting
func (m *Metrics) RecordRateLimitExceeded(limitType, path string) {
	m.RateLimitExceeded.WithLabelValues(limitType, path).Inc()
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues(CacheHit).Inc()
		return
	}
	m.CacheLookups.WithLabelValues(CacheMiss).Inc()
}

// IncActiveLiveSessions increments the open live session gauge
func (m *Metrics) IncActiveLiveSessions() {
	m.ActiveLiveSessions.Inc()
}

// DecActiveLiveSessions decrements the open live session gauge
func (m *Metrics) DecActiveLiveSessions() {
	m.ActiveLiveSessions.Dec()
}
