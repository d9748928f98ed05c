package entity

import (
	"github.com/google/uuid"
)

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
)

type Apartment struct {
	Base
	VendorID      uuid.UUID     `db:"vendor_id"`
	Name          string        `db:"name"`
	City          string        `db:"city"`
	PricePerNight float64       `db:"price_per_night"`
	MaxGuests     int           `db:"max_guests"`
	Status        ListingStatus `db:"status"`
}
