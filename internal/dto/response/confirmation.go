package response

import (
	"marketplace-booking/internal/data/entity"
)

// ListingDetails names what was booked. Only the fields of the booking's kind are set.
type ListingDetails struct {
	HotelName    string `json:"hotel_name,omitempty"`
	RoomTypeName string `json:"room_type_name,omitempty"`
	RoomNumber   string `json:"room_number,omitempty"`
	Apartment    string `json:"apartment,omitempty"`
	City         string `json:"city,omitempty"`
	EventTitle   string `json:"event_title,omitempty"`
	Venue        string `json:"venue,omitempty"`
}

type ConfirmationResponse struct {
	Type    entity.BookingKind `json:"type"`
	Booking BookingResponse    `json:"booking"`
	Payment *PaymentResponse   `json:"payment,omitempty"`
	Listing ListingDetails     `json:"listing"`
}
