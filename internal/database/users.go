package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"labmanager/internal/models"

	"github.com/mattn/go-sqlite3"
)

// CreateUser inserts a new account. The external id is unique; a collision
// surfaces as ErrDuplicateIdentity and nothing is written.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (external_id, password_hash, name, role, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		user.ExternalID,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.Status,
		now,
		now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, external_id, password_hash, name, role, status, created_at, updated_at
              FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	query := `SELECT id, external_id, password_hash, name, role, status, created_at, updated_at
              FROM users WHERE external_id = ?`
	return db.queryUser(ctx, query, externalID)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.ExternalID, &user.PasswordHash, &user.Name,
		&user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ApproveUser flips a pending account to approved. Idempotent: approving an
// already approved account changes nothing.
func (db *DB) ApproveUser(ctx context.Context, id int64) error {
	query := `UPDATE users SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, models.StatusApproved, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to approve user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes an account permanently. Future bookings of the account
// are deleted in the same transaction; past bookings stay for the audit
// trail.
func (db *DB) DeleteUser(ctx context.Context, id int64, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM bookings WHERE user_id = ? AND start_time >= ?`, id, formatTime(now)); err != nil {
		return fmt.Errorf("failed to delete future bookings: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrUserNotFound
	}

	return tx.Commit()
}

// GetAllUsers returns all accounts, newest first.
func (db *DB) GetAllUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT id, external_id, password_hash, name, role, status, created_at, updated_at
              FROM users ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(&u.ID, &u.ExternalID, &u.PasswordHash, &u.Name,
			&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUsersByStatus filters accounts by lifecycle state, e.g. the pending
// queue shown to administrators.
func (db *DB) GetUsersByStatus(ctx context.Context, status models.AccountStatus) ([]models.User, error) {
	query := `SELECT id, external_id, password_hash, name, role, status, created_at, updated_at
              FROM users WHERE status = ? ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by status: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		err := rows.Scan(&u.ID, &u.ExternalID, &u.PasswordHash, &u.Name,
			&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// EnsureAdmin creates the bootstrap administrator account if the external id
// is not present yet. Existing accounts are left untouched.
func (db *DB) EnsureAdmin(ctx context.Context, externalID, passwordHash, name string) error {
	_, err := db.GetUserByExternalID(ctx, externalID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	admin := &models.User{
		ExternalID:   externalID,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         models.RoleAdministrator,
		Status:       models.StatusApproved,
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	db.logger.Info().Str("external_id", externalID).Msg("bootstrap administrator created")
	return nil
}
