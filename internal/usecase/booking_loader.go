package usecase

import (
	"context"
	"fmt"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"

	"github.com/google/uuid"
)

// loadBooking fetches one booking variant by kind. A missing row returns nil, nil.
func loadBooking(ctx context.Context, repo *repository.Repository, kind entity.BookingKind, id uuid.UUID) (*entity.Booking, error) {
	switch kind {
	case entity.BookingKindHotel:
		b, err := repo.HotelBooking.FindByID(ctx, id)
		if err != nil || b == nil {
			return nil, err
		}
		return entity.NewHotelBookingVariant(b), nil
	case entity.BookingKindApartment:
		b, err := repo.ApartmentBooking.FindByID(ctx, id)
		if err != nil || b == nil {
			return nil, err
		}
		return entity.NewApartmentBookingVariant(b), nil
	case entity.BookingKindEvent:
		b, err := repo.EventBooking.FindByID(ctx, id)
		if err != nil || b == nil {
			return nil, err
		}
		return entity.NewEventBookingVariant(b), nil
	}
	return nil, fmt.Errorf("unknown booking kind %q", kind)
}

// bookingStatusWriter is the status surface shared by the three booking repositories.
type bookingStatusWriter interface {
	ConfirmIfPending(ctx context.Context, bookingID uuid.UUID) (bool, error)
	UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, status entity.PaymentStatus) error
	CancelIfUnpaid(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

func statusWriter(repo *repository.Repository, kind entity.BookingKind) (bookingStatusWriter, error) {
	switch kind {
	case entity.BookingKindHotel:
		return repo.HotelBooking, nil
	case entity.BookingKindApartment:
		return repo.ApartmentBooking, nil
	case entity.BookingKindEvent:
		return repo.EventBooking, nil
	}
	return nil, fmt.Errorf("unknown booking kind %q", kind)
}
