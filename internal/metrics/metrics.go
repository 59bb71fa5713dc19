package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_http_requests_total",
			Help: "HTTP requests served by the console API",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_http_request_duration_seconds",
			Help:    "Console API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_upstream_requests_total",
			Help: "Calls made to the HR backend",
		},
		[]string{"operation", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_upstream_request_duration_seconds",
			Help:    "HR backend call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"operation"},
	)

	DirectoryCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_directory_cache_total",
			Help: "Employee list cache lookups by result",
		},
		[]string{"result"},
	)
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_uploads_total",
			Help: "Files handled by the upload component",
		},
		[]string{"kind", "result"},
	)

	UploadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_upload_size_bytes",
			Help:    "Size of uploaded files",
			Buckets: prometheus.ExponentialBuckets(1024, 8, 8),
		},
		[]string{"kind"},
	)

	UploadsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "console_uploads_in_flight",
		Help: "Uploads currently streaming to object storage",
	})
)

var PlacesRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "console_places_requests_total",
		Help: "Calls made to the places API",
	},
	[]string{"operation", "status"},
)

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveUpstream records one backend call; status 0 means the request never got a response.
func ObserveUpstream(operation string, status int, elapsed time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(operation, label).Inc()
	UpstreamRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

var EventsHandledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "console_events_handled_total",
		Help: "Event handler runs by event type and outcome",
	},
	[]string{"event_type", "result"},
)
