package httpapi

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gnomonworks/sundial-forge/internal/logging"
	"github.com/gnomonworks/sundial-forge/internal/observability"
)

const requestIDHeader = "X-Request-Id"

// Middleware wraps a handler with one cross-cutting concern.
type Middleware func(http.Handler) http.Handler

// RequestIDMiddleware ensures a request_id is present on the context,
// sourcing it from the inbound header if provided, echoes it back on the
// response, and attaches a per-request logger annotated with request_id,
// method and path.
func RequestIDMiddleware(base logging.Logger) Middleware {
	if base == nil {
		base = logging.Noop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if incoming := r.Header.Get(requestIDHeader); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}

			ctx, reqLog := logging.WithRequestLogger(ctx, base.With(
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
			))
			ctx = logging.ContextWithLogger(ctx, reqLog)

			w.Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status for metrics and access logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records a counter, a latency observation and an
// access-log line per request. It must wrap the mux with no middleware
// in between that replaces the request: the mux records the matched
// route pattern on the request it is handed.
func MetricsMiddleware(collector *observability.Collector) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			route := observability.RoutePattern(r)
			if collector != nil {
				collector.ObserveRequest(r.Method, route, rec.status, elapsed)
			}
			if log := logging.LoggerFromContext(r.Context()); log != nil {
				log.Info(r.Context(), "http request",
					logging.String("route", route),
					logging.Int("status", rec.status),
					logging.Float64("elapsed_ms", float64(elapsed)/float64(time.Millisecond)),
				)
			}
		})
	}
}

// RecoverMiddleware converts handler panics into a 500 response so one
// bad request cannot take the listener down.
func RecoverMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if log := logging.LoggerFromContext(r.Context()); log != nil {
						log.Error(r.Context(), "handler panic",
							logging.Any("panic", v),
							logging.String("stack", string(debug.Stack())),
						)
					}
					writeJSON(w, http.StatusInternalServerError, errorBody{
						Error: "internal server error",
						Code:  "internal",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
