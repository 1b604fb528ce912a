package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/jblacketter/qaagent-sub000/internal/metrics"
	"github.com/jblacketter/qaagent-sub000/internal/tracing"
)

const TraceIDHeader = "X-Trace-ID"

// withTracing wraps the router in an otelhttp span per request and
// echoes the trace id on the response; with no exporter configured
// (tracing.Init was never called with an endpoint) spans come from a
// no-op tracer and carry no valid trace id, so no header is set.
func withTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := tracing.TraceIDFromContext(ctx); id != "" {
				w.Header().Set(TraceIDHeader, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		}),
		"http.request",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithPropagators(otel.GetTextMapPropagator()),
	)
}

type contextKey string

const requestIDKey contextKey = "request_id"

const RequestIDHeader = "X-Request-ID"

// requestID stamps every request with an id, generating one when the
// caller didn't supply one, and echoes it back on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// structuredLog logs one JSON line per request and records Prometheus
// request-count and duration metrics, labeled by the route template
// (not the raw path) to avoid unbounded cardinality.
func structuredLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			duration := time.Since(start)

			route := r.URL.Path
			if m := mux.CurrentRoute(r); m != nil {
				if tpl, err := m.GetPathTemplate(); err == nil && tpl != "" {
					route = tpl
				}
			}

			log.Info("http request",
				zap.String("request_id", requestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", rw.status),
				zap.Duration("duration", duration),
			)

			metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(duration.Seconds())
		})
	}
}

// recoverPanic converts a panicking handler into a 500 response instead
// of crashing the process.
func recoverPanic(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered", zap.Any("panic", rec), zap.String("path", r.URL.Path))
					writeJSON(w, http.StatusInternalServerError, errorEnvelope{Detail: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
