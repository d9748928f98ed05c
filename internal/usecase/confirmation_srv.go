package usecase

import (
	"context"
	"fmt"
	"strings"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Confirmation is the unified order view behind the confirmation page.
type Confirmation struct {
	Booking   *entity.Booking
	Kind      entity.BookingKind
	Payment   *entity.Payment
	RoomType  *entity.RoomType
	Room      *entity.Room
	Apartment *entity.Apartment
	Event     *entity.Event
}

type ConfirmationService interface {
	Resolve(ctx context.Context, bookingID string) (*Confirmation, error)
}

type confirmationService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewConfirmationService(repo *repository.Repository, log *zap.Logger) ConfirmationService {
	return &confirmationService{
		repo: repo,
		log:  log.With(zap.String("service", "confirmation")),
	}
}

func (s *confirmationService) Resolve(ctx context.Context, bookingID string) (*Confirmation, error) {
	bookingID = strings.TrimSpace(bookingID)
	if !utils.IsUUIDv4(bookingID) {
		return nil, ErrInvalidBookingID
	}
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, ErrInvalidBookingID
	}

	kind, found, err := s.repo.BookingIndex.ResolveKind(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve booking kind: %w", err)
	}
	if !found {
		return nil, ErrBookingNotFound
	}

	booking, err := loadBooking(ctx, s.repo, kind, id)
	if err != nil {
		return nil, fmt.Errorf("get %s booking: %w", kind, err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	result := &Confirmation{Booking: booking, Kind: kind}

	result.Payment, err = s.repo.Payment.FindLatestByBooking(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}

	if err := s.attachListing(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// attachListing loads the kind-specific details. A listing removed after booking is left nil.
func (s *confirmationService) attachListing(ctx context.Context, c *Confirmation) error {
	var err error

	switch c.Kind {
	case entity.BookingKindHotel:
		if c.RoomType, err = s.repo.RoomType.FindByID(ctx, c.Booking.Hotel.RoomTypeID); err != nil {
			return fmt.Errorf("get room type: %w", err)
		}
		if c.Room, err = s.repo.Room.FindByID(ctx, c.Booking.Hotel.RoomID); err != nil {
			return fmt.Errorf("get room: %w", err)
		}
	case entity.BookingKindApartment:
		if c.Apartment, err = s.repo.Apartment.FindByID(ctx, c.Booking.Apartment.ApartmentID); err != nil {
			return fmt.Errorf("get apartment: %w", err)
		}
	case entity.BookingKindEvent:
		if c.Event, err = s.repo.Event.FindByID(ctx, c.Booking.Event.EventID); err != nil {
			return fmt.Errorf("get event: %w", err)
		}
	}

	if c.RoomType == nil && c.Apartment == nil && c.Event == nil {
		s.log.Warn("Listing missing for booking",
			zap.String("booking_id", c.Booking.Common().ID.String()),
			zap.String("kind", string(c.Kind)),
		)
	}
	return nil
}
