package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fleet metrics
	ClustersMonitored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_autoscaler_clusters_monitored",
			Help: "Number of clusters observed in the most recent tick",
		},
	)

	// Rule engine metrics
	RuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_autoscaler_rule_evaluations_total",
			Help: "Total rule evaluations by result",
		},
		[]string{"result"},
	)

	// Scaling metrics
	ScaleActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_autoscaler_scale_actions_total",
			Help: "Total scale actions committed, by direction and node type",
		},
		[]string{"direction", "node_type"},
	)

	ScaleActionsSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_autoscaler_scale_actions_suppressed_total",
			Help: "Total scale actions suppressed before commit, by reason",
		},
		[]string{"reason"},
	)

	// Control loop metrics
	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atlas_autoscaler_tick_duration_seconds",
			Help:    "Time taken for one monitor+decide+act tick across all projects",
			Buckets: prometheus.DefBuckets,
		},
	)

	TicksSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atlas_autoscaler_ticks_skipped_total",
			Help: "Total ticks skipped because the previous tick exceeded the monitoring interval",
		},
	)

	CleanupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atlas_autoscaler_cleanup_duration_seconds",
			Help:    "Time taken for one metric store eviction sweep",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTP client metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_autoscaler_http_requests_total",
			Help: "Total control-plane HTTP requests by endpoint prefix and outcome",
		},
		[]string{"endpoint", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_autoscaler_http_request_duration_seconds",
			Help:    "Control-plane HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RateLimiterWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atlas_autoscaler_rate_limiter_wait_seconds",
			Help:    "Time spent sleeping in the rate limiter before a request was admitted",
			Buckets: []float64{0, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	RateLimiterQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_autoscaler_rate_limiter_queue_depth",
			Help: "Number of request timestamps currently held in the rate limiter window",
		},
	)

	GranularityFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atlas_autoscaler_granularity_fallback_total",
			Help: "Total times a measurement fetch fell back from PT1M to PT10S due to an empty response",
		},
	)

	// Metric store
	MetricStorePoints = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atlas_autoscaler_metric_store_points",
			Help: "Total data points currently retained across all clusters and metrics",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ClustersMonitored,
		RuleEvaluationsTotal,
		ScaleActionsTotal,
		ScaleActionsSuppressedTotal,
		TickDuration,
		TicksSkippedTotal,
		CleanupDuration,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RateLimiterWaitSeconds,
		RateLimiterQueueDepth,
		GranularityFallbackTotal,
		MetricStorePoints,
	)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
