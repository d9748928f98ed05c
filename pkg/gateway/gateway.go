// Package gateway talks to the hosted payment providers: Paystack for cards and
// NOWPayments for crypto invoices. Both clients share the same contract so the
// checkout flow can pick one by payment method.
package gateway

import (
	"context"
	"errors"
)

var (
	ErrInitFailed        = errors.New("gateway: payment initialization failed")
	ErrReferenceNotFound = errors.New("gateway: reference not found")
	ErrStatusFailed      = errors.New("gateway: status check failed")
)

// Outcome is the provider status reduced to what checkout cares about.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

type InitRequest struct {
	Reference   string
	Amount      float64
	Currency    string
	Customer    Customer
	CallbackURL string
	Description string
	Metadata    map[string]any
}

type InitResult struct {
	RedirectURL       string
	ProviderReference string
}

type StatusResult struct {
	Status  string
	Outcome Outcome

	// Terminal is set when the provider will not move the payment any further.
	Terminal bool
	Amount   float64
	Currency string
}

type Gateway interface {
	Initialize(ctx context.Context, req InitRequest) (*InitResult, error)

	// Status re-queries the provider. providerReference is the provider's own id when one was
	// issued at initialization (the NOWPayments invoice id), empty otherwise.
	Status(ctx context.Context, reference, providerReference string) (*StatusResult, error)
}
