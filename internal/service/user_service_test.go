package service

import (
	"context"
	"database/sql"
	"testing"

	"labmanager/internal/database"
	"labmanager/internal/events"
	"labmanager/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(store *mockStore, bus *mockPublisher) *UserService {
	logger := zerolog.Nop()
	return NewUserService(store, bus, &logger)
}

func TestUserServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending student with hashed password", func(t *testing.T) {
		store := new(mockStore)
		bus := new(mockPublisher)
		svc := newUserService(store, bus)

		store.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.ExternalID == "202600123" &&
				u.Role == models.RoleStudent &&
				u.Status == models.StatusPending &&
				u.PasswordHash != "secret123"
		})).Return(nil)
		bus.On("PublishJSON", events.EventUserRegistered, mock.Anything).Return(nil)

		user, err := svc.Register(ctx, " 202600123 ", "secret123", " Alice ")
		require.NoError(t, err)
		assert.Equal(t, "202600123", user.ExternalID)
		assert.Equal(t, "Alice", user.Name)

		// The stored hash verifies against the original password.
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
		store.AssertExpectations(t)
	})

	t.Run("rejects short password", func(t *testing.T) {
		store := new(mockStore)
		svc := newUserService(store, new(mockPublisher))

		_, err := svc.Register(ctx, "alice", "abc", "Alice")
		assert.Error(t, err)
		store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("rejects empty external id", func(t *testing.T) {
		store := new(mockStore)
		svc := newUserService(store, new(mockPublisher))

		_, err := svc.Register(ctx, "   ", "secret123", "Alice")
		assert.Error(t, err)
	})

	t.Run("duplicate identity passes through", func(t *testing.T) {
		store := new(mockStore)
		bus := new(mockPublisher)
		svc := newUserService(store, bus)

		store.On("CreateUser", ctx, mock.Anything).Return(database.ErrDuplicateIdentity)

		_, err := svc.Register(ctx, "alice", "secret123", "Alice")
		assert.ErrorIs(t, err, database.ErrDuplicateIdentity)
		bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})
}

func TestUserServiceAuthenticate(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	account := &models.User{
		ID:           3,
		ExternalID:   "alice",
		PasswordHash: string(hash),
		Status:       models.StatusPending,
	}

	t.Run("valid credentials", func(t *testing.T) {
		store := new(mockStore)
		svc := newUserService(store, new(mockPublisher))
		store.On("GetUserByExternalID", ctx, "alice").Return(account, nil)

		user, err := svc.Authenticate(ctx, "alice", "secret123")
		require.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
	})

	t.Run("pending account still authenticates", func(t *testing.T) {
		store := new(mockStore)
		svc := newUserService(store, new(mockPublisher))
		store.On("GetUserByExternalID", ctx, "alice").Return(account, nil)

		user, err := svc.Authenticate(ctx, "alice", "secret123")
		require.NoError(t, err)
		assert.False(t, user.CanBook())
	})

	t.Run("wrong password", func(t *testing.T) {
		store := new(mockStore)
		svc := newUserService(store, new(mockPublisher))
		store.On("GetUserByExternalID", ctx, "alice").Return(account, nil)

		_, err := svc.Authenticate(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown account yields the same error", func(t *testing.T) {
		store := new(mockStore)
		svc := newUserService(store, new(mockPublisher))
		store.On("GetUserByExternalID", ctx, "ghost").Return(nil, sql.ErrNoRows)

		_, err := svc.Authenticate(ctx, "ghost", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserServiceApprove(t *testing.T) {
	ctx := context.Background()

	store := new(mockStore)
	bus := new(mockPublisher)
	svc := newUserService(store, bus)

	store.On("ApproveUser", ctx, int64(5)).Return(nil)
	store.On("GetUserByID", ctx, int64(5)).Return(&models.User{ID: 5, ExternalID: "bob"}, nil)
	bus.On("PublishJSON", events.EventUserApproved, mock.Anything).Return(nil)

	require.NoError(t, svc.Approve(ctx, 5, 1))
	store.AssertExpectations(t)
	bus.AssertExpectations(t)

	store.On("ApproveUser", ctx, int64(99)).Return(database.ErrUserNotFound)
	assert.ErrorIs(t, svc.Approve(ctx, 99, 1), database.ErrUserNotFound)
}

func TestUserServiceRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("removes and publishes", func(t *testing.T) {
		store := new(mockStore)
		bus := new(mockPublisher)
		svc := newUserService(store, bus)

		store.On("GetUserByID", ctx, int64(5)).Return(&models.User{ID: 5, ExternalID: "bob"}, nil)
		store.On("DeleteUser", ctx, int64(5), mock.Anything).Return(nil)
		bus.On("PublishJSON", events.EventUserRemoved, mock.Anything).Return(nil)

		require.NoError(t, svc.Remove(ctx, 5, 1))
		store.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("unknown account", func(t *testing.T) {
		store := new(mockStore)
		svc := newUserService(store, new(mockPublisher))

		store.On("GetUserByID", ctx, int64(99)).Return(nil, sql.ErrNoRows)

		assert.ErrorIs(t, svc.Remove(ctx, 99, 1), database.ErrUserNotFound)
		store.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserServiceBootstrapAdmin(t *testing.T) {
	ctx := context.Background()

	store := new(mockStore)
	svc := newUserService(store, new(mockPublisher))

	store.On("EnsureAdmin", ctx, "admin", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("root-pass")) == nil
	}), "Administrator").Return(nil)

	require.NoError(t, svc.BootstrapAdmin(ctx, "admin", "root-pass", "Administrator"))
	store.AssertExpectations(t)
}
