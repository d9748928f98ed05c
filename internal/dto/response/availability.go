package response

import (
	"marketplace-booking/internal/data/entity"
)

type RoomResponse struct {
	ID         string            `json:"id"`
	RoomNumber string            `json:"room_number"`
	Status     entity.RoomStatus `json:"status"`
}

type RoomAvailabilityResponse struct {
	RoomTypeID     string         `json:"room_type_id"`
	RoomTypeName   string         `json:"room_type_name"`
	HotelName      string         `json:"hotel_name"`
	CheckIn        string         `json:"check_in"`
	CheckOut       string         `json:"check_out"`
	Nights         int            `json:"nights"`
	PricePerNight  float64        `json:"price_per_night"`
	TotalPrice     float64        `json:"total_price"`
	AvailableCount int            `json:"available_count"`
	Rooms          []RoomResponse `json:"rooms"`
}

type ApartmentAvailabilityResponse struct {
	ApartmentID   string  `json:"apartment_id"`
	Name          string  `json:"name"`
	City          string  `json:"city"`
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"price_per_night"`
	TotalPrice    float64 `json:"total_price"`
	MaxGuests     int     `json:"max_guests"`
	Available     bool    `json:"available"`
}

type EventAvailabilityResponse struct {
	EventID     string  `json:"event_id"`
	Title       string  `json:"title"`
	Venue       string  `json:"venue"`
	EventDate   string  `json:"event_date"`
	TicketPrice float64 `json:"ticket_price"`
	Quantity    int     `json:"quantity"`
	Remaining   int     `json:"remaining"`
	Available   bool    `json:"available"`
}

func RoomToResponse(room *entity.Room) RoomResponse {
	return RoomResponse{
		ID:         room.ID.String(),
		RoomNumber: room.RoomNumber,
		Status:     room.Status,
	}
}
