package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DraftState is a draft plus what the next step may offer.
type DraftState struct {
	Draft          *Draft
	PaymentMethods []entity.PaymentMethod
	ExpiresAt      time.Time
}

type DraftService interface {
	Create(ctx context.Context, kind entity.BookingKind, resourceID uuid.UUID, userID *uuid.UUID) (*DraftState, error)
	Get(ctx context.Context, id uuid.UUID) (*DraftState, error)
	SetDates(ctx context.Context, id uuid.UUID, in DatesInput) (*DraftState, error)
	SetContact(ctx context.Context, id uuid.UUID, contact Contact) (*DraftState, error)
	Back(ctx context.Context, id uuid.UUID) (*DraftState, error)

	// Submit reserves the unit and starts payment. Submitting the same draft again returns
	// the first result.
	Submit(ctx context.Context, id uuid.UUID, method entity.PaymentMethod) (*SubmitResult, error)
}

type draftService struct {
	store        DraftStore
	repo         *repository.Repository
	availability AvailabilityService
	reservation  ReservationService
	payment      PaymentService
	clock        Clock
	loc          *time.Location
	cryptoMin    float64
	ttl          time.Duration
	log          *zap.Logger
}

func NewDraftService(
	store DraftStore,
	repo *repository.Repository,
	availability AvailabilityService,
	reservation ReservationService,
	payment PaymentService,
	clock Clock,
	loc *time.Location,
	config *utils.Config,
	log *zap.Logger,
) DraftService {
	return &draftService{
		store:        store,
		repo:         repo,
		availability: availability,
		reservation:  reservation,
		payment:      payment,
		clock:        clock,
		loc:          loc,
		cryptoMin:    config.Payment.CryptoMinAmount,
		ttl:          time.Duration(config.Booking.DraftTTLMinutes) * time.Minute,
		log:          log.With(zap.String("service", "draft")),
	}
}

func (s *draftService) state(d *Draft) *DraftState {
	st := &DraftState{Draft: d}
	if d.Step == StepPaymentMethod || d.Step == StepSubmitted {
		st.PaymentMethods = PaymentMethods(d.Total, s.cryptoMin)
	}
	if s.ttl > 0 {
		st.ExpiresAt = d.UpdatedAt.Add(s.ttl)
	}
	return st
}

func (s *draftService) Create(ctx context.Context, kind entity.BookingKind, resourceID uuid.UUID, userID *uuid.UUID) (*DraftState, error) {
	if !kind.Valid() {
		return nil, newValidationError(map[string]string{"kind": "Must be one of: event, hotel, apartment"})
	}

	var (
		found bool
		err   error
	)
	switch kind {
	case entity.BookingKindHotel:
		var rt *entity.RoomType
		rt, err = s.repo.RoomType.FindByID(ctx, resourceID)
		found = rt != nil
	case entity.BookingKindApartment:
		var apt *entity.Apartment
		apt, err = s.repo.Apartment.FindByID(ctx, resourceID)
		found = apt != nil && apt.Status == entity.ListingStatusActive
	case entity.BookingKindEvent:
		var ev *entity.Event
		ev, err = s.repo.Event.FindByID(ctx, resourceID)
		found = ev != nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s listing: %w", kind, err)
	}
	if !found {
		return nil, ErrResourceNotFound
	}

	d := NewDraft(kind, resourceID, userID, s.clock.Now())
	s.store.Save(d)

	s.log.Info("Draft created",
		zap.String("draft_id", d.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("resource_id", resourceID.String()),
	)

	return s.state(d), nil
}

func (s *draftService) Get(ctx context.Context, id uuid.UUID) (*DraftState, error) {
	d, ok := s.store.Get(id, s.clock.Now())
	if !ok {
		return nil, ErrDraftNotFound
	}
	return s.state(d), nil
}

func (s *draftService) SetDates(ctx context.Context, id uuid.UUID, in DatesInput) (*DraftState, error) {
	now := s.clock.Now()
	snapshot, ok := s.store.Get(id, now)
	if !ok {
		return nil, ErrDraftNotFound
	}
	if snapshot.Step != StepDatesAndGuests {
		return nil, ErrInvalidStep
	}

	today := utils.DateOnly(now.In(s.loc))
	if errs := ValidateDates(snapshot.Kind, in, today); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	if err := s.dropStaleReservation(ctx, snapshot); err != nil {
		return nil, err
	}

	total, eventDate, err := s.quote(ctx, snapshot, in, now)
	if err != nil {
		return nil, err
	}

	d, err := s.store.Update(id, now, func(d *Draft) error {
		return d.CompleteDates(in, total, eventDate, now)
	})
	if err != nil {
		return nil, err
	}

	return s.state(d), nil
}

// quote checks capacity and availability for the first step and prices it.
func (s *draftService) quote(ctx context.Context, d *Draft, in DatesInput, now time.Time) (float64, *time.Time, error) {
	errs := map[string]string{}

	switch d.Kind {
	case entity.BookingKindHotel:
		stay := Stay{CheckIn: *in.CheckIn, CheckOut: *in.CheckOut}
		avail, err := s.availability.AvailableRooms(ctx, d.ResourceID, stay)
		if err != nil {
			return 0, nil, err
		}
		if in.Guests > avail.RoomType.MaxGuests {
			errs["guests"] = fmt.Sprintf("Maximum %d guests for this room", avail.RoomType.MaxGuests)
		}
		if len(avail.Rooms) == 0 {
			errs["check_in"] = "No rooms available for the selected dates"
		}
		if len(errs) > 0 {
			return 0, nil, newValidationError(errs)
		}
		return avail.RoomType.BasePrice * float64(stay.Nights()), nil, nil

	case entity.BookingKindApartment:
		stay := Stay{CheckIn: *in.CheckIn, CheckOut: *in.CheckOut}
		avail, err := s.availability.ApartmentAvailable(ctx, d.ResourceID, stay)
		if err != nil {
			return 0, nil, err
		}
		if in.Guests > avail.Apartment.MaxGuests {
			errs["guests"] = fmt.Sprintf("Maximum %d guests for this apartment", avail.Apartment.MaxGuests)
		}
		if !avail.Available {
			errs["check_in"] = "This apartment is not available for the selected dates"
		}
		if len(errs) > 0 {
			return 0, nil, newValidationError(errs)
		}
		return avail.Apartment.PricePerNight * float64(stay.Nights()), nil, nil

	case entity.BookingKindEvent:
		avail, err := s.availability.EventTicketsAvailable(ctx, d.ResourceID, in.Quantity)
		if err != nil {
			return 0, nil, err
		}
		if avail.Event.EventDate.Before(now) {
			errs["event_date"] = "This event has already taken place"
		}
		if !avail.Available {
			errs["quantity"] = fmt.Sprintf("Only %d tickets left", avail.Remaining)
		}
		if len(errs) > 0 {
			return 0, nil, newValidationError(errs)
		}
		eventDate := avail.Event.EventDate
		return avail.Event.TicketPrice * float64(in.Quantity), &eventDate, nil
	}

	return 0, nil, fmt.Errorf("unknown booking kind %q", d.Kind)
}

func (s *draftService) SetContact(ctx context.Context, id uuid.UUID, contact Contact) (*DraftState, error) {
	now := s.clock.Now()
	snapshot, ok := s.store.Get(id, now)
	if !ok {
		return nil, ErrDraftNotFound
	}
	if snapshot.Step != StepContactDetails {
		return nil, ErrInvalidStep
	}
	if errs := ValidateContact(contact); len(errs) > 0 {
		return nil, newValidationError(errs)
	}
	if err := s.dropStaleReservation(ctx, snapshot); err != nil {
		return nil, err
	}

	d, err := s.store.Update(id, now, func(d *Draft) error {
		return d.CompleteContact(contact, now)
	})
	if err != nil {
		return nil, err
	}
	return s.state(d), nil
}

func (s *draftService) Back(ctx context.Context, id uuid.UUID) (*DraftState, error) {
	now := s.clock.Now()
	d, err := s.store.Update(id, now, func(d *Draft) error {
		return d.Back(now)
	})
	if err != nil {
		return nil, err
	}
	return s.state(d), nil
}

// dropStaleReservation cancels the booking an earlier failed submit reserved, before the
// edit that invalidates it is stored.
func (s *draftService) dropStaleReservation(ctx context.Context, d *Draft) error {
	if d.Reserved == nil {
		return nil
	}

	cancelled, err := s.reservation.Cancel(ctx, d.Reserved.Kind, d.Reserved.ID)
	if err != nil {
		return fmt.Errorf("cancel stale reservation: %w", err)
	}

	s.log.Info("Stale reservation dropped after draft edit",
		zap.String("draft_id", d.ID.String()),
		zap.String("booking_id", d.Reserved.ID.String()),
		zap.Bool("cancelled", cancelled),
	)
	return nil
}

func (s *draftService) Submit(ctx context.Context, id uuid.UUID, method entity.PaymentMethod) (*SubmitResult, error) {
	snapshot, err := s.store.Update(id, s.clock.Now(), func(d *Draft) error {
		return d.BeginSubmit(method, s.cryptoMin, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	if snapshot.Result != nil {
		s.log.Info("Draft already submitted, returning recorded result",
			zap.String("draft_id", id.String()),
			zap.String("booking_id", snapshot.Result.BookingID.String()),
		)
		return snapshot.Result, nil
	}

	// the draft is re-opened on every exit that does not record a result, panics included
	var reserved *ReservedBooking
	finished := false
	defer func() {
		if finished {
			return
		}
		if _, abortErr := s.store.Update(id, s.clock.Now(), func(d *Draft) error {
			d.AbortSubmit(reserved, s.clock.Now())
			return nil
		}); abortErr != nil && !errors.Is(abortErr, ErrDraftNotFound) {
			s.log.Error("Failed to release draft after submit error", zap.Error(abortErr))
		}
	}()

	booking, d, err := s.reserve(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	common := booking.Common()
	reserved = &ReservedBooking{ID: common.ID, Kind: booking.Kind}

	initiation, err := s.payment.Initiate(ctx, d.PaymentMethod, booking)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		BookingID:     common.ID,
		Kind:          booking.Kind,
		Reference:     initiation.Reference,
		RedirectURL:   initiation.RedirectURL,
		Total:         common.TotalAmount,
		PaymentMethod: d.PaymentMethod,
	}

	finished = true
	if _, err := s.store.Update(id, s.clock.Now(), func(d *Draft) error {
		d.FinishSubmit(result, s.clock.Now())
		return nil
	}); err != nil {
		s.log.Warn("Draft vanished before recording submit result",
			zap.Error(err),
			zap.String("draft_id", id.String()),
		)
	}

	s.log.Info("Draft submitted",
		zap.String("draft_id", id.String()),
		zap.String("booking_id", common.ID.String()),
		zap.String("reference", initiation.Reference),
	)

	return result, nil
}

// reserve holds the unit for the draft's current attempt. When that attempt's booking has
// already been cancelled the draft moves to a new attempt and reserves once more.
func (s *draftService) reserve(ctx context.Context, d *Draft) (*entity.Booking, *Draft, error) {
	booking, err := s.reservation.Reserve(ctx, d)
	if !errors.Is(err, ErrReservationExpired) {
		return booking, d, err
	}

	rotated, err := s.store.Update(d.ID, s.clock.Now(), func(d *Draft) error {
		d.NextAttempt(s.clock.Now())
		return nil
	})
	if err != nil {
		return nil, d, err
	}

	s.log.Info("Earlier reservation expired, reserving again",
		zap.String("draft_id", d.ID.String()),
		zap.Int("attempt", rotated.Attempt),
	)

	booking, err = s.reservation.Reserve(ctx, rotated)
	return booking, rotated, err
}
