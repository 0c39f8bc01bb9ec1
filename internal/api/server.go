package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"labmanager/internal/config"
	"labmanager/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking core as a JSON API. All rendering lives in
// the clients; this layer only authenticates, validates and dispatches.
type HTTPServer struct {
	cfg      config.APIConfig
	exports  config.ExportConfig
	bookings *service.BookingService
	users    *service.UserService
	sessions *service.SessionService
	res      *service.ResourceService
	server   *http.Server
	limiter  *rateLimiter
	logger   *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	exports config.ExportConfig,
	bookings *service.BookingService,
	users *service.UserService,
	sessions *service.SessionService,
	res *service.ResourceService,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		exports:  exports,
		bookings: bookings,
		users:    users,
		sessions: sessions,
		res:      res,
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   logger,
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/register", srv.handleRegister)
	mux.HandleFunc("/api/v1/login", srv.handleLogin)

	// Session-scoped endpoints.
	mux.HandleFunc("/api/v1/logout", srv.withSession(srv.handleLogout))
	mux.HandleFunc("/api/v1/resources", srv.withSession(srv.handleResources))
	mux.HandleFunc("/api/v1/availability", srv.withSession(srv.handleAvailability))
	mux.HandleFunc("/api/v1/bookings", srv.withSession(srv.handleBookings))

	// Administrator endpoints.
	mux.HandleFunc("/api/v1/admin/users", srv.withAdmin(srv.handleAdminUsers))
	mux.HandleFunc("/api/v1/admin/users/approve", srv.withAdmin(srv.handleAdminApprove))
	mux.HandleFunc("/api/v1/admin/users/remove", srv.withAdmin(srv.handleAdminRemove))
	mux.HandleFunc("/api/v1/admin/bookings", srv.withAdmin(srv.handleAdminBookings))
	mux.HandleFunc("/api/v1/admin/bookings/export", srv.withAdmin(srv.handleAdminExport))

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
