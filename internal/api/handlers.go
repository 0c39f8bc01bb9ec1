package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"labmanager/internal/database"
	"labmanager/internal/export"
	"labmanager/internal/models"
	"labmanager/internal/service"
)

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		ExternalID string `json:"external_id"`
		Password   string `json:"password"`
		Name       string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.users.Register(r.Context(), body.ExternalID, body.Password, body.Name)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateIdentity) {
			writeError(w, http.StatusConflict, "external id already registered")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		ExternalID string `json:"external_id"`
		Password   string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	allowed, err := s.sessions.CheckLoginRateLimit(r.Context(), body.ExternalID,
		s.cfg.LoginAttempts, time.Duration(s.cfg.LoginWindowSec)*time.Second)
	if err != nil {
		s.logger.Error().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	user, err := s.users.Authenticate(r.Context(), body.ExternalID, body.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	session, err := s.sessions.Create(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": session.Token,
		"user":  user,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.sessions.Delete(r.Context(), bearerToken(r)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *HTTPServer) handleResources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resources, err := s.res.ListResources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list resources")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resources": resources})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resourceID, err := strconv.ParseInt(r.URL.Query().Get("resource_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "resource_id is required")
		return
	}
	start, end, err := parseInterval(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	available, err := s.bookings.IsAvailable(r.Context(), resourceID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrInvalidInterval):
			writeError(w, http.StatusBadRequest, "start must be before end")
		case errors.Is(err, database.ErrResourceNotFound):
			writeError(w, http.StatusNotFound, "resource not found")
		default:
			writeError(w, http.StatusInternalServerError, "availability check failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource_id": resourceID,
		"start":       start,
		"end":         end,
		"available":   available,
	})
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleMyBookings(w, r)
	case http.MethodPost:
		s.handleAdmit(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	notBefore := time.Now()
	if raw := r.URL.Query().Get("not_before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid not_before; expected RFC3339")
			return
		}
		notBefore = parsed
	}

	bookings, err := s.bookings.ListForRequester(r.Context(), session.UserID, notBefore)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

func (s *HTTPServer) handleAdmit(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	var body struct {
		ResourceID int64  `json:"resource_id"`
		Start      string `json:"start"`
		End        string `json:"end"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, end, err := parseInterval(body.Start, body.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if end.Sub(start) > models.MaxBookingHours*time.Hour {
		writeError(w, http.StatusBadRequest, "booking exceeds maximum duration")
		return
	}

	booking, err := s.bookings.Admit(r.Context(), body.ResourceID, session.UserID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotAvailable):
			// Refusal is an expected outcome, reported as a conflict.
			writeError(w, http.StatusConflict, "interval is not available")
		case errors.Is(err, database.ErrInvalidInterval):
			writeError(w, http.StatusBadRequest, "start must be before end")
		case errors.Is(err, database.ErrResourceNotFound):
			writeError(w, http.StatusNotFound, "resource not found")
		case errors.Is(err, database.ErrUserNotApproved):
			writeError(w, http.StatusForbidden, "account pending approval")
		case errors.Is(err, database.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "account no longer exists")
		default:
			writeError(w, http.StatusInternalServerError, "admission failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var (
		users []models.User
		err   error
	)
	if r.URL.Query().Get("status") == string(models.StatusPending) {
		users, err = s.users.ListPending(r.Context())
	} else {
		users, err = s.users.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (s *HTTPServer) handleAdminApprove(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.adminUserTarget(w, r)
	if !ok {
		return
	}

	if err := s.users.Approve(r.Context(), userID, sessionFrom(r).UserID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "approval failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *HTTPServer) handleAdminRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.adminUserTarget(w, r)
	if !ok {
		return
	}

	if err := s.users.Remove(r.Context(), userID, sessionFrom(r).UserID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "removal failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *HTTPServer) adminUserTarget(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return 0, false
	}

	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := decodeBody(r, &body); err != nil || body.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return 0, false
	}
	return body.UserID, true
}

func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	details, err := s.bookings.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": details})
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	details, err := s.bookings.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	path, err := export.WriteBookingsFile(s.exports.Path, details)
	if err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func decodeBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseInterval(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start; expected RFC3339")
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end; expected RFC3339")
	}
	return start, end, nil
}
