// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Total number of dealership applications submitted",
		},
	)

	ApplicationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_transitions_total",
			Help: "Total number of application status transitions",
		},
		[]string{"from", "to"},
	)

	PaymentsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_submitted_total",
			Help: "Total number of payment details submitted by applicants",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
