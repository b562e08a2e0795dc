// Package metrics содержит Prometheus-метрики сервиса каталога.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "HTTP requests by method, route template and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route template",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_recommendations_total",
			Help: "Recommendation responses by the stage that produced them",
		},
		[]string{"stage"},
	)

	RatingsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ratings_written_total",
			Help: "Rating writes by outcome (created, updated, rejected)",
		},
		[]string{"outcome"},
	)

	CoverUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cover_uploads_total",
			Help: "Cover image uploads to object storage by result",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest записывает счетчик и длительность HTTP запроса.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordRecommendation(stage string) {
	Recommendations.WithLabelValues(stage).Inc()
}

func RecordRating(outcome string) {
	RatingsWritten.WithLabelValues(outcome).Inc()
}

func RecordCoverUpload(result string) {
	CoverUploads.WithLabelValues(result).Inc()
}
