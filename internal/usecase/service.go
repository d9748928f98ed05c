package usecase

import (
	"context"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/pkg/gateway"
	"marketplace-booking/pkg/notify"
	"marketplace-booking/pkg/utils"

	"go.uber.org/zap"
)

// Clock is injected so date rules can be tested against a fixed today.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// Transactor runs fn in one database transaction carried by ctx.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// WebhookVerifier checks a provider webhook signature.
type WebhookVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

// Dependencies are the collaborators that live outside the repository layer.
type Dependencies struct {
	Tx       Transactor
	Gateways map[entity.PaymentProvider]gateway.Gateway
	Webhook  WebhookVerifier
	Notifier notify.Notifier
	Drafts   DraftStore
	Clock    Clock
}

type Service struct {
	Availability AvailabilityService
	Draft        DraftService
	Reservation  ReservationService
	Payment      PaymentService
	Confirmation ConfirmationService
	Booking      BookingService
	Expiry       ExpiryService
}

func NewService(repo *repository.Repository, deps Dependencies, config *utils.Config, log *zap.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	loc := utils.LoadLocation(config.App.TimeZone)

	availability := NewAvailabilityService(repo, log)
	reservation := NewReservationService(repo, deps.Tx, availability, deps.Clock, log)
	payment := NewPaymentService(repo, deps, config.Payment, log)

	return &Service{
		Availability: availability,
		Draft:        NewDraftService(deps.Drafts, repo, availability, reservation, payment, deps.Clock, loc, config, log),
		Reservation:  reservation,
		Payment:      payment,
		Confirmation: NewConfirmationService(repo, log),
		Booking:      NewBookingService(repo, log),
		Expiry:       NewExpiryService(repo, deps.Tx, deps.Drafts, payment, deps.Clock, config.Booking, log),
	}
}
