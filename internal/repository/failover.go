package repository

import (
	"context"
	"sync/atomic"
	"time"

	"labmanager/internal/domain"
	"labmanager/internal/models"

	"github.com/rs/zerolog"
)

// recoveryRetryInterval is how long the failover waits after a primary
// failure before letting a read try the primary again.
const recoveryRetryInterval = time.Minute

// FailoverSessionRepository serves from the primary (Redis) repository and
// trips to the fallback (memory) when the primary errors. Reads retry the
// primary after recoveryRetryInterval. All trip state is atomic; request
// goroutines share one instance.
type FailoverSessionRepository struct {
	primary     domain.SessionRepository
	fallback    domain.SessionRepository
	logger      *zerolog.Logger
	isDown      atomic.Bool
	lastFailure atomic.Int64 // unix nanos of the last primary failure
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) trip(err error) {
	r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
	r.lastFailure.Store(time.Now().UnixNano())
	r.isDown.Store(true)
}

func (r *FailoverSessionRepository) shouldRetryPrimary() bool {
	return time.Since(time.Unix(0, r.lastFailure.Load())) > recoveryRetryInterval
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, token)
		if err == nil {
			return session, nil
		}
		r.trip(err)
	} else if r.shouldRetryPrimary() {
		session, err := r.primary.GetSession(ctx, token)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.lastFailure.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSession(ctx, token)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, session)
		if err == nil {
			return nil
		}
		r.trip(err)
	}

	return r.fallback.SetSession(ctx, session)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, token string) error {
	if !r.isDown.Load() {
		err := r.primary.DeleteSession(ctx, token)
		if err == nil {
			return nil
		}
		r.trip(err)
	}

	return r.fallback.DeleteSession(ctx, token)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.trip(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
