package service

import (
	"context"
	"errors"
	"time"

	"labmanager/internal/database"
	"labmanager/internal/domain"
	"labmanager/internal/events"
	"labmanager/internal/metrics"
	"labmanager/internal/models"

	"github.com/rs/zerolog"
)

// BookingService fronts the ledger: interval validation, the admission
// call, events and metrics. The overlap decision itself lives in the store.
type BookingService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ValidateInterval fails fast on malformed input before anything reaches
// the store.
func (s *BookingService) ValidateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return database.ErrInvalidInterval
	}
	return nil
}

// Admit decides and records one reservation. A refusal is a normal outcome,
// not an error condition the caller should retry.
func (s *BookingService) Admit(ctx context.Context, resourceID, requesterID int64, start, end time.Time) (*models.Booking, error) {
	if err := s.ValidateInterval(start, end); err != nil {
		metrics.IncAdmission(metrics.OutcomeInvalid)
		return nil, err
	}

	booking, err := s.store.AdmitBooking(ctx, resourceID, requesterID, start, end)
	switch {
	case err == nil:
		metrics.IncAdmission(metrics.OutcomeAdmitted)
		s.publishBookingEvent(events.EventBookingAdmitted, booking.ID, requesterID, resourceID, start, end)
		return booking, nil
	case errors.Is(err, database.ErrNotAvailable):
		metrics.IncAdmission(metrics.OutcomeRefused)
		s.publishBookingEvent(events.EventBookingRefused, 0, requesterID, resourceID, start, end)
		return nil, err
	case errors.Is(err, database.ErrInvalidInterval),
		errors.Is(err, database.ErrResourceNotFound),
		errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrUserNotApproved):
		metrics.IncAdmission(metrics.OutcomeInvalid)
		return nil, err
	default:
		metrics.IncAdmission(metrics.OutcomeError)
		s.logger.Error().Err(err).Int64("resource_id", resourceID).Int64("requester_id", requesterID).Msg("admission store error")
		return nil, err
	}
}

// IsAvailable answers the availability query without side effects.
func (s *BookingService) IsAvailable(ctx context.Context, resourceID int64, start, end time.Time) (bool, error) {
	if err := s.ValidateInterval(start, end); err != nil {
		return false, err
	}
	return s.store.CheckAvailability(ctx, resourceID, start, end)
}

// ListForRequester returns the requester's bookings from notBefore on,
// ascending by start.
func (s *BookingService) ListForRequester(ctx context.Context, requesterID int64, notBefore time.Time) ([]models.Booking, error) {
	return s.store.GetUserBookings(ctx, requesterID, notBefore)
}

// ListAll returns the audit join for administrators, newest start first.
func (s *BookingService) ListAll(ctx context.Context) ([]models.BookingDetail, error) {
	return s.store.GetAllBookings(ctx)
}

func (s *BookingService) publishBookingEvent(eventType string, bookingID, userID, resourceID int64, start, end time.Time) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  bookingID,
		UserID:     userID,
		ResourceID: resourceID,
		Start:      start,
		End:        end,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
