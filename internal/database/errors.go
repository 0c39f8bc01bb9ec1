package database

import "errors"

var (
	// ErrNotAvailable is the Refused outcome: the requested interval overlaps
	// an existing booking. It is an expected branch, not a failure.
	ErrNotAvailable = errors.New("interval is not available")

	// ErrInvalidInterval is returned when start >= end.
	ErrInvalidInterval = errors.New("booking interval must satisfy start < end")

	ErrResourceNotFound = errors.New("resource not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrBookingNotFound  = errors.New("booking not found")

	// ErrUserNotApproved means the requester exists but is still pending.
	ErrUserNotApproved = errors.New("user is not approved for booking")

	// ErrDuplicateIdentity means the external id is already registered.
	ErrDuplicateIdentity = errors.New("external id already registered")
)
