package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"labmanager/internal/database"
	"labmanager/internal/domain"
	"labmanager/internal/events"
	"labmanager/internal/metrics"
	"labmanager/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for unknown external ids and wrong
// passwords alike, so callers cannot tell which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewUserService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *UserService {
	return &UserService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Register creates a pending student account. The password is stored only as
// a bcrypt hash.
func (s *UserService) Register(ctx context.Context, externalID, password, name string) (*models.User, error) {
	externalID = strings.TrimSpace(externalID)
	name = strings.TrimSpace(name)
	if externalID == "" {
		return nil, fmt.Errorf("external id is required")
	}
	if len(password) < models.MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", models.MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ExternalID:   externalID,
		PasswordHash: string(hash),
		Name:         name,
		Role:         models.RoleStudent,
		Status:       models.StatusPending,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	metrics.IncRegistration()
	s.publishUserEvent(events.EventUserRegistered, user.ID, user.ExternalID, 0)
	return user, nil
}

// Authenticate looks up the account and compares the credential. The caller
// decides what a pending account may do; approval is not checked here.
func (s *UserService) Authenticate(ctx context.Context, externalID, password string) (*models.User, error) {
	user, err := s.store.GetUserByExternalID(ctx, strings.TrimSpace(externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Approve transitions a pending account to approved. Idempotent.
func (s *UserService) Approve(ctx context.Context, id, actorID int64) error {
	if err := s.store.ApproveUser(ctx, id); err != nil {
		return err
	}
	user, err := s.store.GetUserByID(ctx, id)
	if err == nil {
		s.publishUserEvent(events.EventUserApproved, user.ID, user.ExternalID, actorID)
	}
	return nil
}

// Remove deletes an account permanently. The store drops the account's
// future bookings in the same transaction and keeps past ones for audit.
func (s *UserService) Remove(ctx context.Context, id, actorID int64) error {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.store.DeleteUser(ctx, id, time.Now()); err != nil {
		return err
	}
	s.publishUserEvent(events.EventUserRemoved, user.ID, user.ExternalID, actorID)
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.store.GetAllUsers(ctx)
}

func (s *UserService) ListPending(ctx context.Context) ([]models.User, error) {
	return s.store.GetUsersByStatus(ctx, models.StatusPending)
}

// BootstrapAdmin ensures the configured administrator account exists.
func (s *UserService) BootstrapAdmin(ctx context.Context, externalID, password, name string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	return s.store.EnsureAdmin(ctx, externalID, string(hash), name)
}

func (s *UserService) publishUserEvent(eventType string, userID int64, externalID string, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.UserEventPayload{
		UserID:     userID,
		ExternalID: externalID,
		ActorID:    actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
