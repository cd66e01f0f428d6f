package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiPromptTokens,
		aiCallsLatencyMs,
		aiFallbacksTotal,
	)
}

var (
	aiPromptTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_prompt_tokens",
			Help: "Sum of prompt (input) tokens per model and purpose.",
		},
		[]string{"model", "purpose"}, // purpose="chat"|"compaction"|"final"
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"provider", "model", "success"},
	)

	aiFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "Count of provider failures converted to the fallback reply.",
		},
		[]string{"provider", "model"},
	)
)

func AddPromptTokens(model, purpose string, n int) {
	aiPromptTokens.WithLabelValues(norm(model), norm(purpose)).Add(float64(n))
}

func ObserveAICall(provider, model string, latencyMs int, success bool) {
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncFallback(provider, model string) {
	aiFallbacksTotal.WithLabelValues(norm(provider), norm(model)).Inc()
}
