package jira

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// tracerName is the OTel tracer name for Jira client spans.
const tracerName = "jirasearch.jira"

// Endpoint label values.
const (
	endpointUserSearch  = "user_search"
	endpointIssueSearch = "issue_search"
)

// Package-level Prometheus metrics for Jira requests.
// Auto-registered via promauto.
var (
	// requestDuration measures logical request duration, retries included.
	//
	// Labels:
	//   - endpoint: "user_search", "issue_search"
	//   - status: "success" or "error"
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jirasearch",
			Subsystem: "jira",
			Name:      "request_duration_seconds",
			Help:      "Duration of Jira API requests in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint", "status"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jirasearch",
			Subsystem: "jira",
			Name:      "requests_total",
			Help:      "Total number of Jira API requests.",
		},
		[]string{"endpoint", "status"},
	)

	// errorsTotal counts failed requests by error type.
	//
	// Labels:
	//   - error_type: "canceled", "auth", "not_found", "rate_limit",
	//     "client", "server", "transport"
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jirasearch",
			Subsystem: "jira",
			Name:      "errors_total",
			Help:      "Total Jira API errors by type.",
		},
		[]string{"endpoint", "error_type"},
	)

	activeRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jirasearch",
			Subsystem: "jira",
			Name:      "active_requests",
			Help:      "Number of in-flight Jira API requests.",
		},
		[]string{"endpoint"},
	)
)

// classifyError maps a request error to a low-cardinality label value.
// Returns "" for a nil error.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "transport"
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return "auth"
	case apiErr.StatusCode == http.StatusNotFound:
		return "not_found"
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return "rate_limit"
	case apiErr.StatusCode >= 500:
		return "server"
	default:
		return "client"
	}
}

// recordRequestMetrics records one completed logical request.
func recordRequestMetrics(endpoint string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		errorsTotal.WithLabelValues(endpoint, classifyError(err)).Inc()
	}
	requestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
	requestsTotal.WithLabelValues(endpoint, status).Inc()
}

func incActiveRequests(endpoint string) {
	activeRequests.WithLabelValues(endpoint).Inc()
}

func decActiveRequests(endpoint string) {
	activeRequests.WithLabelValues(endpoint).Dec()
}
