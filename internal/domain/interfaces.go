package domain

import (
	"context"
	"time"

	"labmanager/internal/models"
)

// Store is the durable booking store: registry, ledger and accounts over one
// database handle. Implemented by database.DB.
type Store interface {
	// Registry
	ListResources(ctx context.Context) ([]models.Resource, error)
	GetResource(ctx context.Context, id int64) (*models.Resource, error)
	EnsureSeeded(ctx context.Context, count int, nameTemplate string) error

	// Ledger
	CheckAvailability(ctx context.Context, resourceID int64, start, end time.Time) (bool, error)
	AdmitBooking(ctx context.Context, resourceID, requesterID int64, start, end time.Time) (*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64, notBefore time.Time) ([]models.Booking, error)
	GetAllBookings(ctx context.Context) ([]models.BookingDetail, error)

	// Accounts
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	ApproveUser(ctx context.Context, id int64) error
	DeleteUser(ctx context.Context, id int64, now time.Time) error
	GetAllUsers(ctx context.Context) ([]models.User, error)
	GetUsersByStatus(ctx context.Context, status models.AccountStatus) ([]models.User, error)
	EnsureAdmin(ctx context.Context, externalID, passwordHash, name string) error
}

// SessionRepository holds login sessions keyed by token, plus the login
// throttle counter.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher decouples services from the event bus.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
