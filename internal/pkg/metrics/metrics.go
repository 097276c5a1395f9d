package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resource_hub"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "recommendations_total",
			Help:      "Landing chat requests by outcome.",
		},
		[]string{"outcome"},
	)

	chatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "llm_duration_seconds",
			Help:      "Latency of LLM completions.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	imageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "uploads_total",
			Help:      "Image uploads by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	cronRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs.",
		},
		[]string{"job", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		chatRequests,
		chatDuration,
		imageUploads,
		cronRuns,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InFlight adjusts the in-flight gauge by delta.
func InFlight(delta float64) {
	httpInFlight.Add(delta)
}

// ObserveRequest records one finished HTTP request. route is the matched
// route pattern, never the raw path.
func ObserveRequest(method, route, status string, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Chat outcomes.
const (
	ChatOK          = "ok"
	ChatDisabled    = "disabled"
	ChatUnavailable = "unavailable"
)

func RecordChat(outcome string, d time.Duration) {
	chatRequests.WithLabelValues(outcome).Inc()
	if d > 0 {
		chatDuration.Observe(d.Seconds())
	}
}

func RecordImageUpload(kind string, ok bool) {
	outcome := "rejected"
	if ok {
		outcome = "stored"
	}
	imageUploads.WithLabelValues(kind, outcome).Inc()
}

func RecordCronRun(job string, err error) {
	success := "true"
	if err != nil {
		success = "false"
	}
	cronRuns.WithLabelValues(job, success).Inc()
}
