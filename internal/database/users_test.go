package database

import (
	"context"
	"testing"
	"time"

	"labmanager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{
		ExternalID:   "202600123",
		PasswordHash: "hash",
		Name:         "Alice",
		Role:         models.RoleStudent,
		Status:       models.StatusPending,
	}
	err := db.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	stored, err := db.GetUserByExternalID(ctx, "202600123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, models.RoleStudent, stored.Role)
}

func TestCreateUserDuplicateExternalID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	createApprovedUser(t, db, "alice")

	dup := &models.User{
		ExternalID:   "alice",
		PasswordHash: "other-hash",
		Name:         "Impostor",
		Role:         models.RoleStudent,
		Status:       models.StatusPending,
	}
	err := db.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	// The original account is untouched.
	stored, err := db.GetUserByExternalID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "User alice", stored.Name)
}

func TestApproveUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{
		ExternalID:   "bob",
		PasswordHash: "hash",
		Name:         "Bob",
		Role:         models.RoleStudent,
		Status:       models.StatusPending,
	}
	require.NoError(t, db.CreateUser(ctx, user))

	require.NoError(t, db.ApproveUser(ctx, user.ID))

	stored, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)

	// Approving twice is a no-op, not an error.
	require.NoError(t, db.ApproveUser(ctx, user.ID))

	err = db.ApproveUser(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserRemovesFutureBookings(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.EnsureSeeded(ctx, 1, "PC-%02d"))
	user := createApprovedUser(t, db, "alice")
	keeper := createApprovedUser(t, db, "bob")

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	// One booking in the past, one in the future, plus a future booking of
	// another user that must survive.
	_, err := db.AdmitBooking(ctx, 1, user.ID, now.Add(-3*time.Hour), now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = db.AdmitBooking(ctx, 1, user.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = db.AdmitBooking(ctx, 1, keeper.ID, now.Add(3*time.Hour), now.Add(4*time.Hour))
	require.NoError(t, err)

	require.NoError(t, db.DeleteUser(ctx, user.ID, now))

	_, err = db.GetUserByID(ctx, user.ID)
	assert.Error(t, err)

	details, err := db.GetAllBookings(ctx)
	require.NoError(t, err)

	// The freed slot is immediately bookable again.
	available, err := db.CheckAvailability(ctx, 1, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, available)

	// GetAllBookings joins on users, so only the surviving user's booking is
	// visible; the deleted user's past booking stays in the table.
	require.Len(t, details, 1)
	assert.Equal(t, keeper.ID, details[0].UserID)

	var raw int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&raw))
	assert.Equal(t, 2, raw)
}

func TestDeleteUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.DeleteUser(context.Background(), 999, time.Now())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUsersByStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	createApprovedUser(t, db, "alice")

	pending := &models.User{
		ExternalID:   "carol",
		PasswordHash: "hash",
		Name:         "Carol",
		Role:         models.RoleStudent,
		Status:       models.StatusPending,
	}
	require.NoError(t, db.CreateUser(ctx, pending))

	pendingUsers, err := db.GetUsersByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pendingUsers, 1)
	assert.Equal(t, "carol", pendingUsers[0].ExternalID)

	all, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEnsureAdmin(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.EnsureAdmin(ctx, "admin", "hash-1", "Administrator"))

	admin, err := db.GetUserByExternalID(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdministrator, admin.Role)
	assert.Equal(t, models.StatusApproved, admin.Status)
	assert.True(t, admin.IsAdmin())

	// A second bootstrap leaves the existing account alone.
	require.NoError(t, db.EnsureAdmin(ctx, "admin", "hash-2", "Other Name"))

	again, err := db.GetUserByExternalID(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", again.PasswordHash)
	assert.Equal(t, "Administrator", again.Name)
}
