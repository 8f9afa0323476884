package service

import (
	"context"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{repo: repo, eventBus: eventBus, logger: logger}
}

// CreateBooking persists a new WAITING booking after resolving the booker
// and the item. Unavailable items and the item's own owner are rejected.
func (s *BookingService) CreateBooking(ctx context.Context, userID int64, booking *models.Booking) (*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, database.ErrNotAvailable
	}
	if item.OwnerID == userID {
		return nil, database.ErrOwnItem
	}

	booking.BookerID = userID
	booking.Status = models.StatusWaiting
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, booking)
	return booking, nil
}

// ApproveBooking lets the item owner resolve a WAITING booking. The status
// write is conditional on the booking still being WAITING, so a second
// approve call fails even if it raced the first one past the read.
func (s *BookingService) ApproveBooking(ctx context.Context, userID, bookingID int64, approved bool) (*models.Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != userID {
		return nil, database.ErrAccessDenied
	}
	if booking.Status != models.StatusWaiting {
		return nil, database.ErrAlreadyProcessed
	}

	next := models.StatusRejected
	eventType := events.EventBookingRejected
	if approved {
		next = models.StatusApproved
		eventType = events.EventBookingApproved
	}

	if err := s.repo.TransitionBookingStatus(ctx, bookingID, models.StatusWaiting, next); err != nil {
		return nil, err
	}
	booking.Status = next

	s.publishEvent(eventType, booking)
	return booking, nil
}

// GetBookingByID returns a booking to its booker or the item owner. An
// APPROVED booking whose end has passed is flipped to REJECTED on the way
// out (lazy expiry; there is no background sweep).
func (s *BookingService) GetBookingByID(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != userID && item.OwnerID != userID {
		return nil, database.ErrAccessDenied
	}

	if booking.Status == models.StatusApproved && booking.End.Before(time.Now()) {
		expired, err := s.repo.ExpireBooking(ctx, bookingID, time.Now())
		if err != nil {
			return nil, err
		}
		if expired {
			booking.Status = models.StatusRejected
			s.publishEvent(events.EventBookingExpired, booking)
		}
	}

	return booking, nil
}

// GetBookingsByState buckets the user's bookings (as booker) by the
// requested state. One switch, one comparison set per bucket.
func (s *BookingService) GetBookingsByState(ctx context.Context, userID int64, state models.BookingState) ([]models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsByBooker(ctx, userID)
	if err != nil {
		return nil, err
	}

	if state == models.StateAll {
		return bookings, nil
	}

	now := time.Now()
	filtered := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		var match bool
		switch state {
		case models.StateCurrent:
			match = b.Start.Before(now) && b.End.After(now)
		case models.StatePast:
			match = b.End.Before(now)
		case models.StateFuture:
			match = b.Start.After(now)
		case models.StateWaiting:
			match = b.Status == models.StatusWaiting
		case models.StateRejected:
			match = b.Status == models.StatusRejected
		default:
			return nil, database.ErrUnknownState
		}
		if match {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		BookerID:  booking.BookerID,
		Status:    booking.Status,
		Start:     booking.Start,
		End:       booking.End,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
