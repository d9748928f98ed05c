package entity

import (
	"github.com/google/uuid"
)

type PaymentProvider string

const (
	PaymentProviderPaystack    PaymentProvider = "paystack"
	PaymentProviderNowPayments PaymentProvider = "nowpayments"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

// Provider maps a checkout method to the gateway that serves it.
func (m PaymentMethod) Provider() PaymentProvider {
	if m == PaymentMethodCrypto {
		return PaymentProviderNowPayments
	}
	return PaymentProviderPaystack
}

// Payment references exactly one booking row through the kind-specific foreign key.
type Payment struct {
	Base
	BookingKind        BookingKind     `db:"booking_kind"`
	HotelBookingID     *uuid.UUID      `db:"hotel_booking_id"`
	ApartmentBookingID *uuid.UUID      `db:"apartment_booking_id"`
	EventBookingID     *uuid.UUID      `db:"event_booking_id"`
	Provider           PaymentProvider `db:"provider"`
	Reference          string          `db:"reference"`
	ProviderReference  *string         `db:"provider_reference"`
	Amount             float64         `db:"amount"`
	Currency           string          `db:"currency"`
	Status             PaymentStatus   `db:"status"`
	RefundAmount       *float64        `db:"refund_amount"`
}

// BookingID returns whichever foreign key is set.
func (p *Payment) BookingID() uuid.UUID {
	switch {
	case p.HotelBookingID != nil:
		return *p.HotelBookingID
	case p.ApartmentBookingID != nil:
		return *p.ApartmentBookingID
	case p.EventBookingID != nil:
		return *p.EventBookingID
	}
	return uuid.Nil
}

// SetBooking points the payment at a booking of the given kind.
func (p *Payment) SetBooking(kind BookingKind, id uuid.UUID) {
	p.BookingKind = kind
	p.HotelBookingID, p.ApartmentBookingID, p.EventBookingID = nil, nil, nil
	switch kind {
	case BookingKindHotel:
		p.HotelBookingID = &id
	case BookingKindApartment:
		p.ApartmentBookingID = &id
	case BookingKindEvent:
		p.EventBookingID = &id
	}
}
