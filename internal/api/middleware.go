package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"labmanager/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// knownEndpoints keeps the metrics endpoint label bounded: arbitrary
// request paths would otherwise mint a Prometheus series each.
var knownEndpoints = map[string]struct{}{
	"/api/v1/register":              {},
	"/api/v1/login":                 {},
	"/api/v1/logout":                {},
	"/api/v1/resources":             {},
	"/api/v1/availability":          {},
	"/api/v1/bookings":              {},
	"/api/v1/admin/users":           {},
	"/api/v1/admin/users/approve":   {},
	"/api/v1/admin/users/remove":    {},
	"/api/v1/admin/bookings":        {},
	"/api/v1/admin/bookings/export": {},
}

func endpointLabel(path string) string {
	if _, ok := knownEndpoints[path]; ok {
		return path
	}
	return "other"
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.IncHTTP(endpointLabel(r.URL.Path), strconv.Itoa(rec.status))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// rateLimitMiddleware throttles per session token, falling back to the
// client address for unauthenticated requests.
func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = host
		}

		if !s.limiter.getLimiter(key).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
