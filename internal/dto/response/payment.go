package response

type VerificationResponse struct {
	Verified bool             `json:"verified"`
	State    string           `json:"state"`
	Payment  *PaymentResponse `json:"payment,omitempty"`
	Message  string           `json:"message"`
}

type ConfirmationEmailResponse struct {
	Sent bool `json:"sent"`
}
