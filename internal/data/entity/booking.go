package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingKind string

const (
	BookingKindEvent     BookingKind = "event"
	BookingKindHotel     BookingKind = "hotel"
	BookingKindApartment BookingKind = "apartment"
)

func (k BookingKind) Valid() bool {
	switch k {
	case BookingKindEvent, BookingKindHotel, BookingKindApartment:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCheckedIn BookingStatus = "checked_in"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BlockingBookingStatuses are the statuses that make a unit unavailable for an overlapping stay.
var BlockingBookingStatuses = []BookingStatus{BookingStatusConfirmed, BookingStatusCheckedIn}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// BookingCommon holds the columns shared by the three booking tables.
type BookingCommon struct {
	Base
	UserID         *uuid.UUID    `db:"user_id"`
	GuestName      string        `db:"guest_name"`
	GuestEmail     string        `db:"guest_email"`
	GuestPhone     string        `db:"guest_phone"`
	TotalAmount    float64       `db:"total_amount"`
	BookingStatus  BookingStatus `db:"booking_status"`
	PaymentStatus  PaymentStatus `db:"payment_status"`
	IdempotencyKey string        `db:"idempotency_key"`
}

type HotelBooking struct {
	BookingCommon
	RoomTypeID uuid.UUID `db:"room_type_id"`
	RoomID     uuid.UUID `db:"room_id"`
	CheckIn    time.Time `db:"check_in"`
	CheckOut   time.Time `db:"check_out"`
	Guests     int       `db:"guests"`
}

type ApartmentBooking struct {
	BookingCommon
	ApartmentID uuid.UUID `db:"apartment_id"`
	CheckIn     time.Time `db:"check_in"`
	CheckOut    time.Time `db:"check_out"`
	Guests      int       `db:"guests"`
}

type EventBooking struct {
	BookingCommon
	EventID   uuid.UUID `db:"event_id"`
	EventDate time.Time `db:"event_date"`
	Quantity  int       `db:"quantity"`
}

// Booking is the tagged union over the three booking kinds. Exactly one pointer is set.
type Booking struct {
	Kind      BookingKind
	Event     *EventBooking
	Hotel     *HotelBooking
	Apartment *ApartmentBooking
}

// Common returns the shared columns of whichever variant is set.
func (b *Booking) Common() *BookingCommon {
	switch b.Kind {
	case BookingKindEvent:
		if b.Event != nil {
			return &b.Event.BookingCommon
		}
	case BookingKindHotel:
		if b.Hotel != nil {
			return &b.Hotel.BookingCommon
		}
	case BookingKindApartment:
		if b.Apartment != nil {
			return &b.Apartment.BookingCommon
		}
	}
	return nil
}

func NewHotelBookingVariant(b *HotelBooking) *Booking {
	return &Booking{Kind: BookingKindHotel, Hotel: b}
}

func NewApartmentBookingVariant(b *ApartmentBooking) *Booking {
	return &Booking{Kind: BookingKindApartment, Apartment: b}
}

func NewEventBookingVariant(b *EventBooking) *Booking {
	return &Booking{Kind: BookingKindEvent, Event: b}
}
