package service

import (
	"context"
	"time"

	"labmanager/internal/domain"
	"labmanager/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionService issues and resolves opaque login tokens backed by the
// session repository (Redis with memory failover).
type SessionService struct {
	sessionRepo domain.SessionRepository
	logger      *zerolog.Logger
}

func NewSessionService(sessionRepo domain.SessionRepository, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Create mints a fresh token for an authenticated user.
func (s *SessionService) Create(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.SetSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to store session")
		return nil, err
	}
	return session, nil
}

// Get resolves a token; returns (nil, nil) when the token is unknown or
// expired.
func (s *SessionService) Get(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.sessionRepo.GetSession(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get session")
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Delete(ctx context.Context, token string) error {
	return s.sessionRepo.DeleteSession(ctx, token)
}

// CheckLoginRateLimit throttles credential attempts per external id.
func (s *SessionService) CheckLoginRateLimit(ctx context.Context, externalID string, limit int, window time.Duration) (bool, error) {
	return s.sessionRepo.CheckRateLimit(ctx, "login:"+externalID, limit, window)
}
