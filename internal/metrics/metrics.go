// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchesTotal         *prometheus.CounterVec
	fetchBytesTotal      *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	gateWaitSeconds      prometheus.Histogram
	storiesTotal         *prometheus.CounterVec
	cyclesTotal          prometheus.Counter
	inFlightRequests     prometheus.Gauge

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hncrawl_fetches_total",
				Help: "Total number of fetch attempts, labeled by host and outcome status.",
			},
			[]string{"host", "status"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hncrawl_fetch_bytes_total",
				Help: "Total number of body bytes fetched, labeled by host.",
			},
			[]string{"host"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hncrawl_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies, labeled by outcome status.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"status"},
		)

		gateWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hncrawl_gate_wait_seconds",
				Help:    "Histogram of time spent waiting for gate admission.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15},
			},
		)

		storiesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hncrawl_stories_total",
				Help: "Total number of stories processed, labeled by terminal status.",
			},
			[]string{"status"},
		)

		cyclesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "hncrawl_cycles_total",
				Help: "Total number of completed poll cycles.",
			},
		)

		inFlightRequests = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "hncrawl_inflight_requests",
				Help: "Number of HTTP requests currently in flight.",
			},
		)
	})
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one terminal fetch outcome.
func ObserveFetch(host, status string, bytes int, duration time.Duration) {
	if fetchesTotal == nil {
		return
	}
	host = strings.ToLower(host)
	fetchesTotal.WithLabelValues(host, status).Inc()
	if bytes > 0 {
		fetchBytesTotal.WithLabelValues(host).Add(float64(bytes))
	}
	fetchDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveGateWait records how long admission took.
func ObserveGateWait(duration time.Duration) {
	if gateWaitSeconds == nil {
		return
	}
	if duration > time.Millisecond {
		gateWaitSeconds.Observe(duration.Seconds())
	}
}

// ObserveStory increments the story counter for a terminal status.
func ObserveStory(status string) {
	if storiesTotal == nil {
		return
	}
	storiesTotal.WithLabelValues(status).Inc()
}

// ObserveCycle increments the completed cycle counter.
func ObserveCycle() {
	if cyclesTotal == nil {
		return
	}
	cyclesTotal.Inc()
}

// IncInFlight increments the in-flight request gauge.
func IncInFlight() {
	if inFlightRequests != nil {
		inFlightRequests.Inc()
	}
}

// DecInFlight decrements the in-flight request gauge.
func DecInFlight() {
	if inFlightRequests != nil {
		inFlightRequests.Dec()
	}
}
