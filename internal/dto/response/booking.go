package response

import (
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/utils"
)

type BookingResponse struct {
	ID            string               `json:"id"`
	Kind          entity.BookingKind   `json:"kind"`
	UserID        *string              `json:"user_id,omitempty"`
	GuestName     string               `json:"guest_name"`
	GuestEmail    string               `json:"guest_email"`
	GuestPhone    string               `json:"guest_phone"`
	TotalAmount   float64              `json:"total_amount"`
	BookingStatus entity.BookingStatus `json:"booking_status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`

	RoomTypeID  string `json:"room_type_id,omitempty"`
	RoomID      string `json:"room_id,omitempty"`
	ApartmentID string `json:"apartment_id,omitempty"`
	CheckIn     string `json:"check_in,omitempty"`
	CheckOut    string `json:"check_out,omitempty"`
	Nights      int    `json:"nights,omitempty"`
	Guests      int    `json:"guests,omitempty"`

	EventID   string `json:"event_id,omitempty"`
	EventDate string `json:"event_date,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type PaymentResponse struct {
	ID                string                 `json:"id"`
	BookingID         string                 `json:"booking_id"`
	BookingKind       entity.BookingKind     `json:"booking_kind"`
	Provider          entity.PaymentProvider `json:"provider"`
	Reference         string                 `json:"reference"`
	ProviderReference *string                `json:"provider_reference,omitempty"`
	Amount            float64                `json:"amount"`
	Currency          string                 `json:"currency"`
	Status            entity.PaymentStatus   `json:"status"`
	CreatedAt         time.Time              `json:"created_at"`
}

// Helper converters
func BookingToResponse(b *entity.Booking) BookingResponse {
	common := b.Common()
	resp := BookingResponse{
		ID:            common.ID.String(),
		Kind:          b.Kind,
		GuestName:     common.GuestName,
		GuestEmail:    common.GuestEmail,
		GuestPhone:    common.GuestPhone,
		TotalAmount:   common.TotalAmount,
		BookingStatus: common.BookingStatus,
		PaymentStatus: common.PaymentStatus,
		CreatedAt:     common.CreatedAt,
	}
	if common.UserID != nil {
		userID := common.UserID.String()
		resp.UserID = &userID
	}

	switch b.Kind {
	case entity.BookingKindHotel:
		resp.RoomTypeID = b.Hotel.RoomTypeID.String()
		resp.RoomID = b.Hotel.RoomID.String()
		resp.CheckIn = b.Hotel.CheckIn.Format(utils.DateLayout)
		resp.CheckOut = b.Hotel.CheckOut.Format(utils.DateLayout)
		resp.Nights = utils.Nights(b.Hotel.CheckIn, b.Hotel.CheckOut)
		resp.Guests = b.Hotel.Guests
	case entity.BookingKindApartment:
		resp.ApartmentID = b.Apartment.ApartmentID.String()
		resp.CheckIn = b.Apartment.CheckIn.Format(utils.DateLayout)
		resp.CheckOut = b.Apartment.CheckOut.Format(utils.DateLayout)
		resp.Nights = utils.Nights(b.Apartment.CheckIn, b.Apartment.CheckOut)
		resp.Guests = b.Apartment.Guests
	case entity.BookingKindEvent:
		resp.EventID = b.Event.EventID.String()
		resp.EventDate = b.Event.EventDate.Format(utils.DateLayout)
		resp.Quantity = b.Event.Quantity
	}

	return resp
}

func PaymentToResponse(p *entity.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:                p.ID.String(),
		BookingID:         p.BookingID().String(),
		BookingKind:       p.BookingKind,
		Provider:          p.Provider,
		Reference:         p.Reference,
		ProviderReference: p.ProviderReference,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Status:            p.Status,
		CreatedAt:         p.CreatedAt,
	}
}
