package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry agrupa los collectors de la app (no usamos el default global).
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petport",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "petport",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petport",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Batch job runs by outcome (ok, error, skipped).",
		},
		[]string{"job", "outcome"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "petport",
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Duration of batch job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"job"},
	)

	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petport",
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Transactional emails by template and outcome.",
		},
		[]string{"template", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		jobRuns,
		jobDuration,
		emailsSent,
	)
}

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func ObserveJob(job, outcome string, d time.Duration) {
	jobRuns.WithLabelValues(job, outcome).Inc()
	if outcome != "skipped" {
		jobDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}

func ObserveEmail(template string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	emailsSent.WithLabelValues(template, outcome).Inc()
}
