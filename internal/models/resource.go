package models

import "time"

// Resource is a bookable unit, e.g. a lab computer. The registry is seeded
// once at first run and is not mutated afterwards.
type Resource struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
