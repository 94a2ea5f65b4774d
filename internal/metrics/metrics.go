package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	PreviewRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "preview_rows_total",
			Help:      "Preview rows computed, by outcome (valid, outside_hours, error).",
		},
		[]string{"outcome"},
	)

	AppointmentsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "appointments_rejected_total",
			Help:      "Appointment creations refused because of working hours.",
		},
	)

	LoginFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "login_failures_total",
			Help:      "Login attempts with bad credentials.",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests per mux route template so ids do not explode
// label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		httpRequestSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
