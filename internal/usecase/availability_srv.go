package usecase

import (
	"context"
	"fmt"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stay is a half-open date range [CheckIn, CheckOut).
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (s Stay) Nights() int {
	return utils.Nights(s.CheckIn, s.CheckOut)
}

// Overlaps uses half-open ranges, so a stay may start on another's checkout day.
func (s Stay) Overlaps(other Stay) bool {
	return s.CheckIn.Before(other.CheckOut) && s.CheckOut.After(other.CheckIn)
}

// apartmentHoldStatuses block an apartment. Pending bookings count because an apartment
// has no unit status to flip while payment is outstanding.
var apartmentHoldStatuses = []entity.BookingStatus{
	entity.BookingStatusPending,
	entity.BookingStatusConfirmed,
	entity.BookingStatusCheckedIn,
}

type RoomAvailability struct {
	RoomType *entity.RoomType
	Stay     Stay
	Rooms    []*entity.Room
}

type ApartmentAvailability struct {
	Apartment *entity.Apartment
	Stay      Stay
	Available bool
}

type EventAvailability struct {
	Event     *entity.Event
	Quantity  int
	Remaining int
	Available bool
}

type AvailabilityService interface {
	// AvailableRooms returns the bookable rooms of a room type for the stay. An empty slice
	// means nothing is free; it is not an error.
	AvailableRooms(ctx context.Context, roomTypeID uuid.UUID, stay Stay) (*RoomAvailability, error)
	ApartmentAvailable(ctx context.Context, apartmentID uuid.UUID, stay Stay) (*ApartmentAvailability, error)
	EventTicketsAvailable(ctx context.Context, eventID uuid.UUID, quantity int) (*EventAvailability, error)
}

type availabilityService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo: repo,
		log:  log.With(zap.String("service", "availability")),
	}
}

func validateStay(stay Stay) error {
	if !stay.CheckIn.Before(stay.CheckOut) {
		return newValidationError(map[string]string{"check_out": "Check-out must be after check-in"})
	}
	return nil
}

func (s *availabilityService) AvailableRooms(ctx context.Context, roomTypeID uuid.UUID, stay Stay) (*RoomAvailability, error) {
	if err := validateStay(stay); err != nil {
		return nil, err
	}

	roomType, err := s.repo.RoomType.FindByID(ctx, roomTypeID)
	if err != nil {
		return nil, fmt.Errorf("get room type: %w", err)
	}
	if roomType == nil {
		return nil, ErrResourceNotFound
	}

	inventory, err := s.repo.Room.FindByRoomType(ctx, roomTypeID)
	if err != nil {
		return nil, fmt.Errorf("get room inventory: %w", err)
	}

	booked, err := s.repo.HotelBooking.FindBookedRoomIDs(ctx, roomTypeID, stay.CheckIn, stay.CheckOut, entity.BlockingBookingStatuses)
	if err != nil {
		return nil, fmt.Errorf("get booked rooms: %w", err)
	}

	rooms := subtractBooked(inventory, booked)

	s.log.Debug("Room availability computed",
		zap.String("room_type_id", roomTypeID.String()),
		zap.Int("inventory", len(inventory)),
		zap.Int("booked", len(booked)),
		zap.Int("available", len(rooms)),
	)

	return &RoomAvailability{RoomType: roomType, Stay: stay, Rooms: rooms}, nil
}

// subtractBooked keeps rooms in status available that no blocking booking holds.
func subtractBooked(inventory []*entity.Room, booked []uuid.UUID) []*entity.Room {
	held := make(map[uuid.UUID]struct{}, len(booked))
	for _, id := range booked {
		held[id] = struct{}{}
	}

	rooms := []*entity.Room{}
	for _, room := range inventory {
		if room.Status != entity.RoomStatusAvailable {
			continue
		}
		if _, ok := held[room.ID]; ok {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms
}

func (s *availabilityService) ApartmentAvailable(ctx context.Context, apartmentID uuid.UUID, stay Stay) (*ApartmentAvailability, error) {
	if err := validateStay(stay); err != nil {
		return nil, err
	}

	apartment, err := s.repo.Apartment.FindByID(ctx, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("get apartment: %w", err)
	}
	if apartment == nil {
		return nil, ErrResourceNotFound
	}

	result := &ApartmentAvailability{Apartment: apartment, Stay: stay}
	if apartment.Status != entity.ListingStatusActive {
		return result, nil
	}

	overlap, err := s.repo.Apartment.HasOverlap(ctx, apartmentID, stay.CheckIn, stay.CheckOut, apartmentHoldStatuses)
	if err != nil {
		return nil, fmt.Errorf("check apartment overlap: %w", err)
	}

	result.Available = !overlap
	return result, nil
}

func (s *availabilityService) EventTicketsAvailable(ctx context.Context, eventID uuid.UUID, quantity int) (*EventAvailability, error) {
	if quantity < 1 {
		return nil, newValidationError(map[string]string{"quantity": "Minimum value is 1"})
	}

	event, err := s.repo.Event.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil {
		return nil, ErrResourceNotFound
	}

	remaining := event.TicketsLeft()
	return &EventAvailability{
		Event:     event,
		Quantity:  quantity,
		Remaining: remaining,
		Available: remaining >= quantity,
	}, nil
}
