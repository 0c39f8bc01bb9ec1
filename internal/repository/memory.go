package repository

import (
	"context"
	"sync"
	"time"

	"labmanager/internal/models"
)

// MemorySessionRepository is the in-process fallback used when Redis is
// unavailable. Sessions created here do not survive a restart.
type MemorySessionRepository struct {
	sessions sync.Map
	ttl      time.Duration

	// rateLimits is guarded by mu: the count-and-compare must be atomic or
	// concurrent logins slip past the throttle.
	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
}

type sessionEntry struct {
	session   *models.Session
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl:        ttl,
		rateLimits: make(map[string]*rateLimitEntry),
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	entry := val.(*sessionEntry)
	if time.Now().After(entry.expiresAt) {
		r.sessions.Delete(token)
		return nil, nil
	}
	return entry.session, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	r.sessions.Store(session.Token, &sessionEntry{
		session:   session,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
		r.rateLimits[key] = entry
		return limit >= 1, nil
	}

	entry.count++
	return entry.count <= limit, nil
}
