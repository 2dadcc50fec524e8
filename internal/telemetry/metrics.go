// Package telemetry exposes Prometheus metrics for HTTP transport and for
// the evaluation/store domain events the teacher's metrics.go never had
// to track (flag evaluation counts, store mutation counts, sync counts).
package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// EvaluationsTotal counts flag evaluations by tenant, flag type, and
	// whether the decision fired (the outcome of the gate chain).
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flag_evaluations_total",
			Help: "Total flag evaluations",
		},
		[]string{"app", "env", "type", "fired"},
	)
	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flag_evaluation_duration_seconds",
			Help:    "Duration of a single flag decision",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"app", "env"},
	)

	// StoreMutationsTotal counts store writes by operation and outcome
	// (the API handlers pass "ok" or "error").
	StoreMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_mutations_total",
			Help: "Total store mutation operations",
		},
		[]string{"op", "result"},
	)

	SyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_operations_total",
			Help: "Total SyncEnv/SyncFlag operations",
		},
		[]string{"op", "result"},
	)

	SnapshotDocuments = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_documents",
		Help: "Number of tenant documents currently cached in the snapshot layer",
	})
)

func Init() {
	prometheus.MustRegister(
		httpReqs, httpDur,
		EvaluationsTotal, EvaluationDuration,
		StoreMutationsTotal, SyncsTotal,
		SnapshotDocuments,
	)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveEvaluation records one flag decision outcome.
func ObserveEvaluation(app, env, flagType string, fired bool, dur time.Duration) {
	firedStr := "false"
	if fired {
		firedStr = "true"
	}
	EvaluationsTotal.WithLabelValues(app, env, flagType, firedStr).Inc()
	EvaluationDuration.WithLabelValues(app, env).Observe(dur.Seconds())
}

// ObserveStoreMutation records one store write's outcome under the given
// result label ("ok" or "error" from the API handlers).
func ObserveStoreMutation(op, result string) {
	StoreMutationsTotal.WithLabelValues(op, result).Inc()
}

func ObserveSync(op, result string) {
	SyncsTotal.WithLabelValues(op, result).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
