package models

import "time"

// Session is the server-side login state keyed by an opaque token. Stored in
// Redis with a TTL, with an in-memory fallback when Redis is unavailable.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
