package handlers

import (
	"net/http"
	"time"

	"blog/internal/monitoring"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WithRecover wraps an http.Handler and recovers from panics,
// returning HTTP 500 instead of crashing the server.
func (h *Handler) WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.WithFields(logrus.Fields{
					"panic":  rec,
					"method": r.Method,
					"path":   r.URL.Path,
				}).Error("recovered from panic")
				h.errorView(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestLogger tags each request with an X-Request-ID and logs it once done.
func (h *Handler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rw := &monitoring.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rw, r)

		h.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"route":      monitoring.RouteName(r),
			"status":     rw.Status,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}
