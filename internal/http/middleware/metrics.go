// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic:
//
//   - http_requests_total{method,path,status}
//   - http_request_duration_seconds{method,path}
//   - http_requests_inflight
//   - http_response_size_bytes{method,path}
//
// path is the registered route, so every GET /api/enquiries/<uuid> lands in
// one /api/enquiries/:id series. Requests that matched no route (static site
// files, the SPA fallback, scans for arbitrary URLs) share "unmatched".
// The per-outcome enquiry counter lives in the observability package; the
// two move together on POST /api/enquiries.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedPath labels requests that matched no registered route.
const unmatchedPath = "unmatched"

// Submissions are a single-row insert and the admin reads are one page, so
// latency is expected well under a second; the upper buckets catch a slow
// store.
var latencyBuckets = []float64{.002, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// Bodies are error envelopes, one enquiry, or a page of at most 100.
var sizeBuckets = []float64{128, 256, 512, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10}

type httpMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
	size     *prometheus.HistogramVec
}

// newHTTPMetrics builds the collectors and registers them with reg.
func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: latencyBuckets,
		}, []string{"method", "path"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: sizeBuckets,
		}, []string{"method", "path"}),
	}
	reg.MustRegister(m.requests, m.latency, m.inflight, m.size)
	return m
}

var defaultHTTPMetrics = newHTTPMetrics(prometheus.DefaultRegisterer)

// Metrics returns a Gin middleware that records the HTTP collectors on the
// default Prometheus registry, which /metrics serves.
func Metrics() gin.HandlerFunc {
	return defaultHTTPMetrics.handler()
}

func (m *httpMetrics) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		c.Next()

		method := c.Request.Method
		path := routeLabel(c)
		m.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		// Size is -1 when nothing was written.
		if size := c.Writer.Size(); size >= 0 {
			m.size.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

// routeLabel is the matched route template, never the raw URL.
func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedPath
}
