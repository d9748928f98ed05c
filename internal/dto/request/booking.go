package request

type CreateDraftRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=event hotel apartment"`
	ResourceID string `json:"resource_id" validate:"required,uuid4"`
}

// DraftDatesRequest fills the first step. Dates are YYYY-MM-DD in the marketplace time zone.
type DraftDatesRequest struct {
	CheckIn  string `json:"check_in" validate:"omitempty,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"omitempty,datetime=2006-01-02"`
	Guests   int    `json:"guests" validate:"omitempty,min=0,max=50"`
	Quantity int    `json:"quantity" validate:"omitempty,min=0,max=100"`
}

// Field rules are enforced by the draft step so errors come back per field.
type DraftContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type SubmitDraftRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card crypto"`
}

type UserBookingsRequest struct {
	PaginatedRequest
	Kind string `json:"kind" validate:"omitempty,oneof=event hotel apartment"`
}
