package response

import (
	"time"

	"marketplace-booking/internal/data/entity"
)

type ContactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type DraftResponse struct {
	ID             string                 `json:"id"`
	Kind           entity.BookingKind     `json:"kind"`
	ResourceID     string                 `json:"resource_id"`
	Step           string                 `json:"step"`
	CheckIn        string                 `json:"check_in,omitempty"`
	CheckOut       string                 `json:"check_out,omitempty"`
	Nights         int                    `json:"nights,omitempty"`
	Guests         int                    `json:"guests,omitempty"`
	Quantity       int                    `json:"quantity,omitempty"`
	EventDate      string                 `json:"event_date,omitempty"`
	Total          float64                `json:"total"`
	Contact        *ContactResponse       `json:"contact,omitempty"`
	PaymentMethods []entity.PaymentMethod `json:"payment_methods"`
	Result         *SubmitResponse        `json:"result,omitempty"`
	ExpiresAt      time.Time              `json:"expires_at"`
}

type SubmitResponse struct {
	BookingID     string               `json:"booking_id"`
	Kind          entity.BookingKind   `json:"kind"`
	Reference     string               `json:"reference"`
	RedirectURL   string               `json:"redirect_url"`
	Total         float64              `json:"total"`
	PaymentMethod entity.PaymentMethod `json:"payment_method"`
}
