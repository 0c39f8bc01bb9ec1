package models

import "time"

// Role separates ordinary students from administrators.
type Role string

const (
	RoleStudent       Role = "student"
	RoleAdministrator Role = "administrator"
)

// AccountStatus tracks the single lifecycle transition an account makes:
// pending -> approved, by administrator action.
type AccountStatus string

const (
	StatusPending  AccountStatus = "pending"
	StatusApproved AccountStatus = "approved"
)

type User struct {
	ID           int64         `json:"id"`
	ExternalID   string        `json:"external_id"`
	PasswordHash string        `json:"-"`
	Name         string        `json:"name"`
	Role         Role          `json:"role"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}

// CanBook reports whether the account may place bookings.
func (u *User) CanBook() bool {
	return u.Status == StatusApproved
}
