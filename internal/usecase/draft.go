package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"marketplace-booking/internal/data/entity"

	"github.com/google/uuid"
)

type Step string

const (
	StepDatesAndGuests Step = "dates_and_guests"
	StepContactDetails Step = "contact_details"
	StepPaymentMethod  Step = "payment_method"
	StepSubmitted      Step = "submitted"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Contact struct {
	Name  string
	Email string
	Phone string
}

// DatesInput is the first step's form. Hotels and apartments use the stay and guests,
// events use quantity.
type DatesInput struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Guests   int
	Quantity int
}

type SubmitResult struct {
	BookingID     uuid.UUID
	Kind          entity.BookingKind
	Reference     string
	RedirectURL   string
	Total         float64
	PaymentMethod entity.PaymentMethod
}

// ReservedBooking points at the booking an unfinished submit left behind.
type ReservedBooking struct {
	ID   uuid.UUID
	Kind entity.BookingKind
}

// Draft is the in-progress checkout of one session. It is never persisted.
type Draft struct {
	ID         uuid.UUID
	Kind       entity.BookingKind
	ResourceID uuid.UUID
	UserID     *uuid.UUID
	Step       Step

	CheckIn   *time.Time
	CheckOut  *time.Time
	Guests    int
	Quantity  int
	EventDate *time.Time
	Total     float64

	Contact       Contact
	PaymentMethod entity.PaymentMethod

	// Attempt versions the idempotency key. Editing a draft whose earlier submit reserved a
	// booking starts a new attempt, so the next submit cannot pick up the stale booking.
	Attempt    int
	Reserved   *ReservedBooking
	Submitting bool
	Result     *SubmitResult

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewDraft(kind entity.BookingKind, resourceID uuid.UUID, userID *uuid.UUID, now time.Time) *Draft {
	return &Draft{
		ID:         uuid.New(),
		Kind:       kind,
		ResourceID: resourceID,
		UserID:     userID,
		Step:       StepDatesAndGuests,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IdempotencyKey identifies the booking of the current attempt.
func (d *Draft) IdempotencyKey() string {
	if d.Attempt == 0 {
		return d.ID.String()
	}
	return fmt.Sprintf("%s-%d", d.ID, d.Attempt)
}

// NextAttempt forgets any reserved booking and moves the idempotency key on.
func (d *Draft) NextAttempt(now time.Time) {
	d.Attempt++
	d.Reserved = nil
	d.UpdatedAt = now
}

func (d *Draft) Stay() Stay {
	var s Stay
	if d.CheckIn != nil {
		s.CheckIn = *d.CheckIn
	}
	if d.CheckOut != nil {
		s.CheckOut = *d.CheckOut
	}
	return s
}

// ValidateDates checks the first step's fields against today. Availability and capacity
// are checked by the caller, which owns the lookups.
func ValidateDates(kind entity.BookingKind, in DatesInput, today time.Time) map[string]string {
	errs := map[string]string{}

	if kind == entity.BookingKindEvent {
		if in.Quantity < 1 {
			errs["quantity"] = "Select at least one ticket"
		}
		return errs
	}

	if in.CheckIn == nil {
		errs["check_in"] = "Check-in date is required"
	}
	if in.CheckOut == nil {
		errs["check_out"] = "Check-out date is required"
	}
	if in.CheckIn != nil && in.CheckIn.Before(today) {
		errs["check_in"] = "Check-in cannot be in the past"
	}
	if in.CheckIn != nil && in.CheckOut != nil && !in.CheckIn.Before(*in.CheckOut) {
		errs["check_out"] = "Check-out must be after check-in"
	}
	if in.Guests < 1 {
		errs["guests"] = "At least one guest is required"
	}

	return errs
}

// CompleteDates stores the validated first step and moves to contact details.
func (d *Draft) CompleteDates(in DatesInput, total float64, eventDate *time.Time, now time.Time) error {
	if d.Step != StepDatesAndGuests {
		return ErrInvalidStep
	}

	if d.Reserved != nil {
		d.NextAttempt(now)
	}

	d.CheckIn, d.CheckOut = in.CheckIn, in.CheckOut
	d.Guests, d.Quantity = in.Guests, in.Quantity
	d.EventDate = eventDate
	d.Total = total
	d.Step = StepContactDetails
	d.UpdatedAt = now
	return nil
}

func ValidateContact(c Contact) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(c.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(c.Email) == "" {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(strings.TrimSpace(c.Email)) {
		errs["email"] = "Invalid email format"
	}
	if strings.TrimSpace(c.Phone) == "" {
		errs["phone"] = "Phone is required"
	}

	return errs
}

func (d *Draft) CompleteContact(c Contact, now time.Time) error {
	if d.Step != StepContactDetails {
		return ErrInvalidStep
	}
	if errs := ValidateContact(c); len(errs) > 0 {
		return newValidationError(errs)
	}
	if d.Reserved != nil {
		d.NextAttempt(now)
	}

	d.Contact = Contact{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
	d.Step = StepPaymentMethod
	d.UpdatedAt = now
	return nil
}

// Back moves one step backwards. The first step stays where it is.
func (d *Draft) Back(now time.Time) error {
	switch d.Step {
	case StepContactDetails:
		d.Step = StepDatesAndGuests
	case StepPaymentMethod:
		d.Step = StepContactDetails
	case StepSubmitted:
		return ErrInvalidStep
	}
	d.UpdatedAt = now
	return nil
}

// PaymentMethods lists what checkout offers for a total. Crypto needs a total above cryptoMin.
func PaymentMethods(total, cryptoMin float64) []entity.PaymentMethod {
	methods := []entity.PaymentMethod{entity.PaymentMethodCard}
	if total > cryptoMin {
		methods = append(methods, entity.PaymentMethodCrypto)
	}
	return methods
}

// BeginSubmit marks the draft in flight. A submitted draft is left untouched so the caller
// can hand back the recorded result.
func (d *Draft) BeginSubmit(method entity.PaymentMethod, cryptoMin float64, now time.Time) error {
	if d.Result != nil {
		return nil
	}
	if d.Submitting {
		return ErrSubmitInProgress
	}
	if d.Step != StepPaymentMethod {
		return ErrInvalidStep
	}

	offered := false
	for _, m := range PaymentMethods(d.Total, cryptoMin) {
		if m == method {
			offered = true
			break
		}
	}
	if !offered {
		return ErrPaymentMethodUnavailable
	}

	d.PaymentMethod = method
	d.Submitting = true
	d.UpdatedAt = now
	return nil
}

// FinishSubmit records the result and drops the editable form state.
func (d *Draft) FinishSubmit(result *SubmitResult, now time.Time) {
	d.Result = result
	d.Reserved = nil
	d.Submitting = false
	d.Step = StepSubmitted
	d.Contact = Contact{}
	d.UpdatedAt = now
}

// AbortSubmit re-opens the draft. reserved is the booking the failed submit left, if any.
func (d *Draft) AbortSubmit(reserved *ReservedBooking, now time.Time) {
	if reserved != nil {
		d.Reserved = reserved
	}
	d.Submitting = false
	d.UpdatedAt = now
}
