package models

const (
	// DefaultSessionTTL session lifetime, seconds.
	DefaultSessionTTL = 24 * 60 * 60

	// LoginRateLimitAttempts allowed login attempts per window.
	LoginRateLimitAttempts = 10

	// LoginRateLimitWindow window for login throttling, seconds.
	LoginRateLimitWindow = 60

	// MinPasswordLength enforced at registration.
	MinPasswordLength = 6

	// MaxBookingHours longest single reservation the API accepts.
	MaxBookingHours = 8
)
