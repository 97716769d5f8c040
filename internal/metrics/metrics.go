// Package metrics exposes the Prometheus collectors of the audit service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeSuccess labels analyses that produced a validated result. Failed
// analyses are labelled with their error kind (input, service, parse, schema).
const OutcomeSuccess = "success"

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logaudit",
			Name:      "analyses_total",
			Help:      "Total number of analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "logaudit",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis latency in seconds, inference call included.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
	)

	inputTruncatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "logaudit",
			Name:      "input_truncated_total",
			Help:      "Number of submitted logs cut to the configured character bound.",
		},
	)

	staleResolutionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "logaudit",
			Name:      "stale_resolutions_total",
			Help:      "Number of analysis outcomes discarded because a newer analysis had started.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logaudit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests, partitioned by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "logaudit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Register attaches the collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		inputTruncatedTotal,
		staleResolutionsTotal,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	if outcome == "" {
		outcome = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// InputTruncated counts one truncated submission.
func InputTruncated() {
	inputTruncatedTotal.Inc()
}

// StaleResolution counts one discarded outcome.
func StaleResolution() {
	staleResolutionsTotal.Inc()
}

// ObserveHTTPRequest records one served request. Unmatched routes should be
// passed as an empty route and are labelled "unmatched".
func ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route, method).Observe(duration.Seconds())
}
