package models

import "time"

// Booking is an accepted reservation of one resource by one user over a
// half-open interval [Start, End). Bookings are created only through ledger
// admission and never mutated afterwards.
type Booking struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	ResourceID int64     `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	CreatedAt  time.Time `json:"created_at"`
}

// Overlaps reports whether [s1, e1) and [s2, e2) intersect. Touching
// endpoints do not count: back-to-back bookings are allowed.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// BookingDetail is the audit join of a booking with its resource and
// requester, used by administrator listings and exports.
type BookingDetail struct {
	Booking
	ResourceName   string `json:"resource_name"`
	UserName       string `json:"user_name"`
	UserExternalID string `json:"user_external_id"`
}
