package usecase

import (
	"context"
	"errors"
	"fmt"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/pkg/metrics"
	"marketplace-booking/pkg/obs"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ReservationService interface {
	// Reserve writes the pending booking and holds its inventory in one transaction.
	// The draft's idempotency key makes it repeatable: a reserved attempt returns its booking,
	// or ErrReservationExpired once that booking left pending.
	Reserve(ctx context.Context, d *Draft) (*entity.Booking, error)

	// Cancel cancels an unpaid booking and returns what it held. It reports false when the
	// booking was paid or cancelled already.
	Cancel(ctx context.Context, kind entity.BookingKind, bookingID uuid.UUID) (bool, error)
}

// roomClaimStatuses block a room claim for an overlapping stay. Pending counts so a claim
// racing a confirmation still sees the stay it would collide with.
var roomClaimStatuses = append([]entity.BookingStatus{entity.BookingStatusPending}, entity.BlockingBookingStatuses...)

type reservationService struct {
	repo         *repository.Repository
	tx           Transactor
	availability AvailabilityService
	clock        Clock
	log          *zap.Logger
}

func NewReservationService(repo *repository.Repository, tx Transactor, availability AvailabilityService, clock Clock, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:         repo,
		tx:           tx,
		availability: availability,
		clock:        clock,
		log:          log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) Reserve(ctx context.Context, d *Draft) (*entity.Booking, error) {
	ctx, span := obs.Tracer().Start(ctx, "reservation.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.kind", string(d.Kind)),
		attribute.String("draft.id", d.ID.String()),
	)

	key := d.IdempotencyKey()
	if existing, err := s.findByKey(ctx, d.Kind, key); err != nil || existing != nil {
		return existing, err
	}

	var booking *entity.Booking
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		switch d.Kind {
		case entity.BookingKindHotel:
			booking, err = s.reserveHotel(ctx, d)
		case entity.BookingKindApartment:
			booking, err = s.reserveApartment(ctx, d)
		case entity.BookingKindEvent:
			booking, err = s.reserveEvent(ctx, d)
		default:
			err = fmt.Errorf("unknown booking kind %q", d.Kind)
		}
		return err
	})

	if err != nil && repository.IsUniqueViolation(err) {
		// another instance reserved this draft first
		if existing, findErr := s.findByKey(ctx, d.Kind, key); findErr != nil || existing != nil {
			return existing, findErr
		}
	}
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrUnitNoLongerAvailable) {
			outcome = "unavailable"
		}
		metrics.ReservationsTotal.WithLabelValues(string(d.Kind), outcome).Inc()
		span.RecordError(err)

		s.log.Warn("Reservation failed",
			zap.Error(err),
			zap.String("draft_id", key),
			zap.String("kind", string(d.Kind)),
		)
		return nil, err
	}

	metrics.ReservationsTotal.WithLabelValues(string(d.Kind), "reserved").Inc()
	s.log.Info("Reservation created",
		zap.String("booking_id", booking.Common().ID.String()),
		zap.String("kind", string(d.Kind)),
	)

	return booking, nil
}

// findByKey returns the pending booking of an attempt, or ErrReservationExpired when the
// attempt's booking was cancelled or otherwise moved on.
func (s *reservationService) findByKey(ctx context.Context, kind entity.BookingKind, key string) (*entity.Booking, error) {
	booking, err := s.lookupKey(ctx, kind, key)
	if err != nil || booking == nil {
		return nil, err
	}
	if status := booking.Common().BookingStatus; status != entity.BookingStatusPending {
		s.log.Info("Reserved booking is no longer pending",
			zap.String("idempotency_key", key),
			zap.String("booking_status", string(status)),
		)
		return nil, ErrReservationExpired
	}
	return booking, nil
}

func (s *reservationService) lookupKey(ctx context.Context, kind entity.BookingKind, key string) (*entity.Booking, error) {
	switch kind {
	case entity.BookingKindHotel:
		b, err := s.repo.HotelBooking.FindByIdempotencyKey(ctx, key)
		if err != nil || b == nil {
			return nil, err
		}
		return entity.NewHotelBookingVariant(b), nil
	case entity.BookingKindApartment:
		b, err := s.repo.ApartmentBooking.FindByIdempotencyKey(ctx, key)
		if err != nil || b == nil {
			return nil, err
		}
		return entity.NewApartmentBookingVariant(b), nil
	case entity.BookingKindEvent:
		b, err := s.repo.EventBooking.FindByIdempotencyKey(ctx, key)
		if err != nil || b == nil {
			return nil, err
		}
		return entity.NewEventBookingVariant(b), nil
	}
	return nil, fmt.Errorf("unknown booking kind %q", kind)
}

func (s *reservationService) common(d *Draft) entity.BookingCommon {
	now := s.clock.Now()
	return entity.BookingCommon{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:         d.UserID,
		GuestName:      d.Contact.Name,
		GuestEmail:     d.Contact.Email,
		GuestPhone:     d.Contact.Phone,
		TotalAmount:    d.Total,
		BookingStatus:  entity.BookingStatusPending,
		PaymentStatus:  entity.PaymentStatusPending,
		IdempotencyKey: d.IdempotencyKey(),
	}
}

// reserveHotel claims the first free room with a conditional update, moving on to the
// next candidate when another checkout took it first or booked the same nights.
func (s *reservationService) reserveHotel(ctx context.Context, d *Draft) (*entity.Booking, error) {
	avail, err := s.availability.AvailableRooms(ctx, d.ResourceID, d.Stay())
	if err != nil {
		return nil, err
	}

	var room *entity.Room
	for _, candidate := range avail.Rooms {
		ok, err := s.repo.Room.ReserveIfAvailable(ctx, candidate.ID, *d.CheckIn, *d.CheckOut, roomClaimStatuses)
		if err != nil {
			return nil, err
		}
		if ok {
			room = candidate
			break
		}
		s.log.Debug("Room taken concurrently, trying next", zap.String("room_id", candidate.ID.String()))
	}
	if room == nil {
		return nil, ErrUnitNoLongerAvailable
	}

	booking := &entity.HotelBooking{
		BookingCommon: s.common(d),
		RoomTypeID:    d.ResourceID,
		RoomID:        room.ID,
		CheckIn:       *d.CheckIn,
		CheckOut:      *d.CheckOut,
		Guests:        d.Guests,
	}
	if err := s.repo.HotelBooking.Create(ctx, booking); err != nil {
		return nil, err
	}

	return entity.NewHotelBookingVariant(booking), nil
}

func (s *reservationService) reserveApartment(ctx context.Context, d *Draft) (*entity.Booking, error) {
	apartment, err := s.repo.Apartment.LockByID(ctx, d.ResourceID)
	if err != nil {
		return nil, err
	}
	if apartment == nil {
		return nil, ErrResourceNotFound
	}
	if apartment.Status != entity.ListingStatusActive {
		return nil, ErrUnitNoLongerAvailable
	}

	overlap, err := s.repo.Apartment.HasOverlap(ctx, apartment.ID, *d.CheckIn, *d.CheckOut, apartmentHoldStatuses)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrUnitNoLongerAvailable
	}

	booking := &entity.ApartmentBooking{
		BookingCommon: s.common(d),
		ApartmentID:   apartment.ID,
		CheckIn:       *d.CheckIn,
		CheckOut:      *d.CheckOut,
		Guests:        d.Guests,
	}
	if err := s.repo.ApartmentBooking.Create(ctx, booking); err != nil {
		return nil, err
	}

	return entity.NewApartmentBookingVariant(booking), nil
}

func (s *reservationService) reserveEvent(ctx context.Context, d *Draft) (*entity.Booking, error) {
	ok, err := s.repo.Event.ClaimTickets(ctx, d.ResourceID, d.Quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnitNoLongerAvailable
	}

	booking := &entity.EventBooking{
		BookingCommon: s.common(d),
		EventID:       d.ResourceID,
		Quantity:      d.Quantity,
	}
	if d.EventDate != nil {
		booking.EventDate = *d.EventDate
	}
	if err := s.repo.EventBooking.Create(ctx, booking); err != nil {
		return nil, err
	}

	return entity.NewEventBookingVariant(booking), nil
}

func (s *reservationService) Cancel(ctx context.Context, kind entity.BookingKind, bookingID uuid.UUID) (bool, error) {
	booking, err := loadBooking(ctx, s.repo, kind, bookingID)
	if err != nil {
		return false, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return false, ErrBookingNotFound
	}

	cancelled, err := cancelUnpaid(ctx, s.repo, s.tx, booking)
	if err != nil {
		return false, err
	}
	if cancelled {
		metrics.ReservationsTotal.WithLabelValues(string(kind), "cancelled").Inc()
	}
	return cancelled, nil
}

// cancelUnpaid cancels b unless a payment completed first, then returns its room or tickets
// and fails the pending payment, all in one transaction.
func cancelUnpaid(ctx context.Context, repo *repository.Repository, tx Transactor, b *entity.Booking) (bool, error) {
	id := b.Common().ID
	writer, err := statusWriter(repo, b.Kind)
	if err != nil {
		return false, err
	}

	cancelled := false
	err = tx.Do(ctx, func(ctx context.Context) error {
		ok, err := writer.CancelIfUnpaid(ctx, id)
		if err != nil || !ok {
			return err
		}
		cancelled = true

		switch b.Kind {
		case entity.BookingKindHotel:
			if _, err := repo.Room.Release(ctx, b.Hotel.RoomID); err != nil {
				return err
			}
		case entity.BookingKindEvent:
			if err := repo.Event.ReleaseTickets(ctx, b.Event.EventID, b.Event.Quantity); err != nil {
				return err
			}
		}

		payment, err := repo.Payment.FindLatestByBooking(ctx, b.Kind, id)
		if err != nil || payment == nil {
			return err
		}
		_, err = repo.Payment.TransitionStatus(ctx, payment.ID,
			[]entity.PaymentStatus{entity.PaymentStatusPending}, entity.PaymentStatusFailed)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("cancel unpaid booking %s: %w", id.String(), err)
	}

	return cancelled, nil
}
