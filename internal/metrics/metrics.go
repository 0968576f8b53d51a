// Package metrics declares the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "justus"

// Upload results.
const (
	ResultCreated  = "created"
	ResultReplaced = "replaced"
	ResultFailed   = "failed"
)

// Cleanup results.
const (
	ResultOK      = "ok"
	ResultDropped = "dropped"
)

var (
	PhotoUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_uploads_total",
		Help:      "Daily photo uploads by outcome.",
	}, []string{"result"})

	DerivativeSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "derivative_seconds",
		Help:      "Time spent decoding and rendering one upload's derivatives.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	})

	BlobCleanup = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_cleanup_total",
		Help:      "Superseded blob cleanup jobs by outcome.",
	}, []string{"result"})

	ChangePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "change_publish_failures_total",
		Help:      "Change notifications that could not be published.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
