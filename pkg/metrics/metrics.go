package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	FrontierSize        prometheus.Gauge
	CrawlsTotal         prometheus.Counter
	CrawlDuration       prometheus.Histogram
	PageFetchesTotal    *prometheus.CounterVec

	initOnce sync.Once
)

// Init registers all collectors with the default registry. It is safe to
// call more than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	FrontierSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawl_frontier_size",
			Help: "Number of URLs in the most recently started crawl round.",
		},
	)

	CrawlsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawls_total",
			Help: "Total number of completed domain crawls.",
		},
	)

	CrawlDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawl_duration_seconds",
			Help:    "Wall-clock duration of domain crawls.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 300, 600},
		},
	)

	PageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_fetches_total",
			Help: "Total number of page fetches.",
		},
		[]string{"status", "error_type"}, // status: success, failure
	)
}
