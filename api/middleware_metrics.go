package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// statusWriter captures the status code written by the handler
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}

// Middleware times every request and records it under its route template, so
// /forums/abc and /forums/def share one entry
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		m.Record(r.Method, path, sw.statusCode, duration, start)

		if duration > slowRequest {
			zap.S().Warnw("slow request",
				"requestId", r.Header.Get("X-Request-ID"),
				"method", r.Method,
				"path", path,
				"duration", duration,
				"status", sw.statusCode)
		}
	})
}
