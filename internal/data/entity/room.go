package entity

import (
	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "available"
	RoomStatusReserved    RoomStatus = "reserved"
	RoomStatusOccupied    RoomStatus = "occupied"
	RoomStatusMaintenance RoomStatus = "maintenance"
)

// RoomType is the bookable resource of a hotel; rooms are its inventory units.
type RoomType struct {
	Base
	HotelID   uuid.UUID `db:"hotel_id"`
	HotelName string    `db:"hotel_name"`
	Name      string    `db:"name"`
	BasePrice float64   `db:"base_price"`
	MaxGuests int       `db:"max_guests"`
}

type Room struct {
	Base
	RoomTypeID uuid.UUID  `db:"room_type_id"`
	RoomNumber string     `db:"room_number"`
	Status     RoomStatus `db:"status"`
}
