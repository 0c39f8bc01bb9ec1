package service

import (
	"context"
	"time"

	"labmanager/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListResources(ctx context.Context) ([]models.Resource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Resource), args.Error(1)
}
func (m *mockStore) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Resource), args.Error(1)
}
func (m *mockStore) EnsureSeeded(ctx context.Context, count int, nameTemplate string) error {
	return m.Called(ctx, count, nameTemplate).Error(0)
}
func (m *mockStore) CheckAvailability(ctx context.Context, resourceID int64, start, end time.Time) (bool, error) {
	args := m.Called(ctx, resourceID, start, end)
	return args.Bool(0), args.Error(1)
}
func (m *mockStore) AdmitBooking(ctx context.Context, resourceID, requesterID int64, start, end time.Time) (*models.Booking, error) {
	args := m.Called(ctx, resourceID, requesterID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockStore) GetUserBookings(ctx context.Context, userID int64, notBefore time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, userID, notBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *mockStore) GetAllBookings(ctx context.Context) ([]models.BookingDetail, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookingDetail), args.Error(1)
}
func (m *mockStore) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *mockStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockStore) ApproveUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockStore) DeleteUser(ctx context.Context, id int64, now time.Time) error {
	return m.Called(ctx, id, now).Error(0)
}
func (m *mockStore) GetAllUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}
func (m *mockStore) GetUsersByStatus(ctx context.Context, status models.AccountStatus) ([]models.User, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}
func (m *mockStore) EnsureAdmin(ctx context.Context, externalID, passwordHash, name string) error {
	return m.Called(ctx, externalID, passwordHash, name).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) GetSession(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}
func (m *mockSessionRepo) SetSession(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}
func (m *mockSessionRepo) DeleteSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}
func (m *mockSessionRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
