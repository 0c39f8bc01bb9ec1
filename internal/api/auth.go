package api

import (
	"context"
	"net/http"

	"labmanager/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "session"

// withSession authenticates the bearer token and stores the session in the
// request context. Approval state is intentionally not checked here: a
// pending account may inspect resources, it just cannot book.
func (s *HTTPServer) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		session, err := s.sessions.Get(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if session == nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// withAdmin additionally requires the administrator role.
func (s *HTTPServer) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.withSession(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r)
		if session == nil || session.Role != models.RoleAdministrator {
			writeError(w, http.StatusForbidden, "administrator role required")
			return
		}
		next(w, r)
	})
}

func sessionFrom(r *http.Request) *models.Session {
	session, _ := r.Context().Value(sessionContextKey).(*models.Session)
	return session
}
