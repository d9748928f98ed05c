package request

type VerifyPaymentRequest struct {
	Reference string `json:"reference"`
	Provider  string `json:"provider" validate:"omitempty,oneof=paystack nowpayments"`
}

// ConfirmationEmailRequest mirrors the email service payload.
type ConfirmationEmailRequest struct {
	BookingID   string `json:"bookingId" validate:"required,uuid4"`
	BookingType string `json:"bookingType" validate:"required,oneof=event hotel apartment"`
}
