// Package metrics exposes Prometheus metrics for the match API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skillmatch"

// Finder labels
const (
	FinderCandidates = "candidates"
	FinderProjects   = "projects"
)

// Recorder holds the service's collectors on a private registry
type Recorder struct {
	registry *prometheus.Registry

	searches      *prometheus.CounterVec
	searchLatency *prometheus.HistogramVec
	poolSize      *prometheus.HistogramVec
	results       *prometheus.HistogramVec
	scores        prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: reg,
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Finder invocations by finder and outcome.",
		}, []string{"finder", "outcome"}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent loading snapshots and ranking.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"finder"}),
		poolSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_pool_size",
			Help:      "Number of candidates or projects considered per search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"finder"}),
		results: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of ranked entries returned per search.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}, []string{"finder"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_score",
			Help:      "Distribution of returned composite scores.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(r.searches, r.searchLatency, r.poolSize, r.results, r.scores, r.httpRequests, r.httpDuration)
	return r
}

// Registry exposes the underlying registry, mainly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSearch records one finder run
func (r *Recorder) ObserveSearch(finder string, pool int, scores []float64, took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.searches.WithLabelValues(finder, outcome).Inc()
	r.searchLatency.WithLabelValues(finder).Observe(took.Seconds())
	if err != nil {
		return
	}
	r.poolSize.WithLabelValues(finder).Observe(float64(pool))
	r.results.WithLabelValues(finder).Observe(float64(len(scores)))
	for _, s := range scores {
		r.scores.Observe(s)
	}
}

// Middleware records request count and latency per route
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
