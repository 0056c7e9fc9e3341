package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/concert/auth/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsMiddleware records request count and latency per route pattern.
// It must sit inside any middleware that replaces the request so that the
// pattern set by the mux is visible after the handler returns.
func MetricsMiddleware(reg prometheus.Registerer) httpx.Middleware {
	factory := promauto.With(reg)

	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "concert_auth_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "concert_auth_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "status"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			// Raw paths would give unbounded label cardinality
			path := r.Pattern
			if path == "" || path == "/" {
				path = "unmatched"
			}

			status := strconv.Itoa(sw.status)
			duration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
			requests.WithLabelValues(path, r.Method, status).Inc()
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
