package rerank

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts rerank requests.
	// Labels: provider (remote, lexical), result (success, error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rerankd",
			Subsystem: "rerank",
			Name:      "requests_total",
			Help:      "Total number of rerank requests",
		},
		[]string{"provider", "result"},
	)

	// RequestDuration tracks end-to-end rerank latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rerankd",
			Subsystem: "rerank",
			Name:      "request_duration_seconds",
			Help:      "Duration of rerank requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// DocumentsPerRequest tracks candidate set sizes.
	DocumentsPerRequest = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rerankd",
			Subsystem: "rerank",
			Name:      "documents_per_request",
			Help:      "Number of candidate documents per rerank request",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"provider"},
	)
)

// observeRerank records the outcome of one rerank request.
func observeRerank(provider string, duration time.Duration, docCount int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	RequestsTotal.WithLabelValues(provider, result).Inc()
	RequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	DocumentsPerRequest.WithLabelValues(provider).Observe(float64(docCount))
}
