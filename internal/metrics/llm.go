package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM and resolution Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "categorizer",
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"agent", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "categorizer",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"agent", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "categorizer",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"agent", "model", "type"},
	)

	LLMErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "categorizer",
			Name:      "llm_errors_total",
			Help:      "Total LLM errors",
		},
		[]string{"agent", "model", "error_type"},
	)

	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "categorizer",
			Name:      "resolutions_total",
			Help:      "Resolutions by source tier",
		},
		[]string{"source"}, // "type_mapping" / "cache" / "pipeline"
	)

	CategoryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "categorizer",
			Name:      "category_cache_total",
			Help:      "Category cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	PipelineRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "categorizer",
			Name:      "pipeline_retries_total",
			Help:      "Selection attempts beyond the first",
		},
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers Prometheus LLM metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(LLMErrorsTotal)
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(CategoryCacheTotal)
	prometheus.MustRegister(PipelineRetriesTotal)
	llmMetricsRegistered = true
}
