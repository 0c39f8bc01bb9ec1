package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"labmanager/internal/models"
)

// overlapCondition matches any booking whose half-open interval intersects
// the bound parameters (start, end): s1 < e2 AND s2 < e1. Touching endpoints
// do not conflict.
const overlapCondition = `resource_id = ? AND ? < end_time AND ? > start_time`

// CheckAvailability reports whether [start, end) is free on the resource.
// Pure read; admissions re-check inside their own transaction.
func (db *DB) CheckAvailability(ctx context.Context, resourceID int64, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, ErrInvalidInterval
	}
	if _, err := db.GetResource(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrResourceNotFound
		}
		return false, err
	}

	query := `SELECT COUNT(*) FROM bookings WHERE ` + overlapCondition
	var overlapping int
	err := db.QueryRowContext(ctx, query, resourceID, formatTime(start), formatTime(end)).Scan(&overlapping)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return overlapping == 0, nil
}

// AdmitBooking is the atomic decide-and-record operation. It validates the
// interval and both references, then takes the resource admission lock and
// re-checks availability and inserts inside one transaction. Two concurrent
// admissions for overlapping intervals on the same resource can never both
// commit; admissions on distinct resources do not contend.
func (db *DB) AdmitBooking(ctx context.Context, resourceID, requesterID int64, start, end time.Time) (*models.Booking, error) {
	if !start.Before(end) {
		return nil, ErrInvalidInterval
	}

	user, err := db.GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.CanBook() {
		return nil, ErrUserNotApproved
	}

	if _, err := db.GetResource(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	mu := db.lockResource(resourceID)
	mu.Lock()
	defer mu.Unlock()

	booking, err := db.admitLocked(ctx, resourceID, requesterID, start, end)
	if isBusy(err) {
		// One retry on a transient sqlite write conflict; a second failure
		// propagates as StoreUnavailable to the caller.
		db.logger.Warn().Int64("resource_id", resourceID).Msg("admission hit busy store, retrying once")
		booking, err = db.admitLocked(ctx, resourceID, requesterID, start, end)
	}
	return booking, err
}

func (db *DB) admitLocked(ctx context.Context, resourceID, requesterID int64, start, end time.Time) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin admission transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var overlapping int
	query := `SELECT COUNT(*) FROM bookings WHERE ` + overlapCondition
	err = tx.QueryRowContext(ctx, query, resourceID, formatTime(start), formatTime(end)).Scan(&overlapping)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if overlapping > 0 {
		return nil, ErrNotAvailable
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, resource_id, start_time, end_time, created_at) VALUES (?, ?, ?, ?, ?)`,
		requesterID, resourceID, formatTime(start), formatTime(end), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit admission: %w", err)
	}

	return &models.Booking{
		ID:         id,
		UserID:     requesterID,
		ResourceID: resourceID,
		Start:      start,
		End:        end,
		CreatedAt:  now,
	}, nil
}

// GetBooking returns one booking by id.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	var startStr, endStr string
	query := `SELECT id, user_id, resource_id, start_time, end_time, created_at FROM bookings WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.UserID, &b.ResourceID, &startStr, &endStr, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if b.Start, err = parseTime(startStr); err != nil {
		return nil, fmt.Errorf("failed to parse booking start %s: %w", startStr, err)
	}
	if b.End, err = parseTime(endStr); err != nil {
		return nil, fmt.Errorf("failed to parse booking end %s: %w", endStr, err)
	}
	return &b, nil
}

// GetUserBookings returns the requester's bookings starting at or after
// notBefore, ascending by start time.
func (db *DB) GetUserBookings(ctx context.Context, userID int64, notBefore time.Time) ([]models.Booking, error) {
	query := `SELECT id, user_id, resource_id, start_time, end_time, created_at
              FROM bookings WHERE user_id = ? AND start_time >= ? ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, userID, formatTime(notBefore))
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		var startStr, endStr string
		if err := rows.Scan(&b.ID, &b.UserID, &b.ResourceID, &startStr, &endStr, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if b.Start, err = parseTime(startStr); err != nil {
			return nil, fmt.Errorf("failed to parse booking start %s: %w", startStr, err)
		}
		if b.End, err = parseTime(endStr); err != nil {
			return nil, fmt.Errorf("failed to parse booking end %s: %w", endStr, err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetAllBookings returns the audit join of every booking with its resource
// and requester, newest start first.
func (db *DB) GetAllBookings(ctx context.Context) ([]models.BookingDetail, error) {
	query := `SELECT b.id, b.user_id, b.resource_id, b.start_time, b.end_time, b.created_at,
                     r.name, u.name, u.external_id
              FROM bookings b
              JOIN resources r ON b.resource_id = r.id
              JOIN users u ON b.user_id = u.id
              ORDER BY b.start_time DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all bookings: %w", err)
	}
	defer rows.Close()

	var details []models.BookingDetail
	for rows.Next() {
		var d models.BookingDetail
		var startStr, endStr string
		err := rows.Scan(&d.ID, &d.UserID, &d.ResourceID, &startStr, &endStr, &d.CreatedAt,
			&d.ResourceName, &d.UserName, &d.UserExternalID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking detail: %w", err)
		}
		if d.Start, err = parseTime(startStr); err != nil {
			return nil, fmt.Errorf("failed to parse booking start %s: %w", startStr, err)
		}
		if d.End, err = parseTime(endStr); err != nil {
			return nil, fmt.Errorf("failed to parse booking end %s: %w", endStr, err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
