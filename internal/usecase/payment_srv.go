package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/pkg/gateway"
	"marketplace-booking/pkg/metrics"
	"marketplace-booking/pkg/notify"
	"marketplace-booking/pkg/obs"
	"marketplace-booking/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// VerificationState is what the return page shows. Verifying is only the state before
// a check completes; Verify never returns it.
type VerificationState string

const (
	StateVerifying VerificationState = "verifying"
	StateSuccess   VerificationState = "success"
	StatePending   VerificationState = "pending"
	StateFailed    VerificationState = "failed"

	// StateRefundRequired is money the provider confirmed for a booking that was cancelled
	// before it arrived. The booking stays cancelled.
	StateRefundRequired VerificationState = "refund_required"
)

type VerificationResult struct {
	Verified bool
	State    VerificationState
	Payment  *entity.Payment
	Message  string

	// ProviderUnavailable marks a failed state caused by the provider not answering.
	ProviderUnavailable bool
}

type PaymentInitiation struct {
	Reference   string
	RedirectURL string
	Provider    entity.PaymentProvider
	Payment     *entity.Payment
}

type PaymentService interface {
	// Initiate records a pending payment under a fresh reference and asks the provider
	// for its hosted payment page.
	Initiate(ctx context.Context, method entity.PaymentMethod, booking *entity.Booking) (*PaymentInitiation, error)

	// Verify re-queries the provider for reference and applies the outcome. Calling it again
	// without a provider change yields the same state.
	Verify(ctx context.Context, reference string, provider entity.PaymentProvider) (*VerificationResult, error)
	HandlePaystackWebhook(ctx context.Context, body []byte, signature string) error

	// SendConfirmation sends the confirmation email for a paid booking at most once.
	SendConfirmation(ctx context.Context, kind entity.BookingKind, bookingID uuid.UUID) (bool, error)

	// Wait blocks until background confirmation sends finish.
	Wait()
}

type paymentService struct {
	repo     *repository.Repository
	tx       Transactor
	gateways map[entity.PaymentProvider]gateway.Gateway
	webhook  WebhookVerifier
	notifier notify.Notifier
	clock    Clock
	config   utils.PaymentConfig
	pending  sync.WaitGroup
	log      *zap.Logger
}

func NewPaymentService(repo *repository.Repository, deps Dependencies, config utils.PaymentConfig, log *zap.Logger) PaymentService {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &paymentService{
		repo:     repo,
		tx:       deps.Tx,
		gateways: deps.Gateways,
		webhook:  deps.Webhook,
		notifier: deps.Notifier,
		clock:    clock,
		config:   config,
		log:      log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) Initiate(ctx context.Context, method entity.PaymentMethod, booking *entity.Booking) (*PaymentInitiation, error) {
	ctx, span := obs.Tracer().Start(ctx, "payment.initiate")
	defer span.End()

	provider := method.Provider()
	span.SetAttributes(attribute.String("payment.provider", string(provider)))

	gw, ok := s.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no gateway configured for %s", ErrPaymentInitFailed, provider)
	}

	common := booking.Common()
	now := s.clock.Now()
	reference := utils.GeneratePaymentReference(string(booking.Kind), common.ID, now)

	payment := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Provider:  provider,
		Reference: reference,
		Amount:    common.TotalAmount,
		Currency:  s.config.Currency,
		Status:    entity.PaymentStatusPending,
	}
	payment.SetBooking(booking.Kind, common.ID)

	if err := s.repo.Payment.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	result, err := gw.Initialize(ctx, gateway.InitRequest{
		Reference: reference,
		Amount:    common.TotalAmount,
		Currency:  s.config.Currency,
		Customer: gateway.Customer{
			Name:  common.GuestName,
			Email: common.GuestEmail,
			Phone: common.GuestPhone,
		},
		CallbackURL: s.callbackURL(reference, provider, booking),
		Description: fmt.Sprintf("%s booking %s", booking.Kind, common.ID),
		Metadata: map[string]any{
			"booking_id":   common.ID.String(),
			"booking_type": string(booking.Kind),
			"guest_name":   common.GuestName,
			"guest_phone":  common.GuestPhone,
			"total_amount": common.TotalAmount,
		},
	})
	if err != nil {
		metrics.PaymentInitiationsTotal.WithLabelValues(string(provider), "failed").Inc()
		span.RecordError(err)

		if _, markErr := s.repo.Payment.TransitionStatus(ctx, payment.ID,
			[]entity.PaymentStatus{entity.PaymentStatusPending}, entity.PaymentStatusFailed); markErr != nil {
			s.log.Error("Failed to mark payment failed after init error", zap.Error(markErr))
		}

		s.log.Warn("Payment initialization failed",
			zap.Error(err),
			zap.String("reference", reference),
			zap.String("provider", string(provider)),
		)
		return nil, fmt.Errorf("%w: %v", ErrPaymentInitFailed, err)
	}

	if result.ProviderReference != "" {
		if err := s.repo.Payment.SetProviderReference(ctx, payment.ID, result.ProviderReference); err != nil {
			return nil, fmt.Errorf("record provider reference: %w", err)
		}
		payment.ProviderReference = &result.ProviderReference
	}

	metrics.PaymentInitiationsTotal.WithLabelValues(string(provider), "initiated").Inc()
	s.log.Info("Payment initiated",
		zap.String("reference", reference),
		zap.String("provider", string(provider)),
		zap.Float64("amount", payment.Amount),
	)

	return &PaymentInitiation{
		Reference:   reference,
		RedirectURL: result.RedirectURL,
		Provider:    provider,
		Payment:     payment,
	}, nil
}

func (s *paymentService) callbackURL(reference string, provider entity.PaymentProvider, booking *entity.Booking) string {
	u, err := url.Parse(s.config.CallbackURL)
	if err != nil {
		return s.config.CallbackURL
	}
	q := u.Query()
	q.Set("reference", reference)
	q.Set("provider", string(provider))
	q.Set("booking_id", booking.Common().ID.String())
	q.Set("kind", string(booking.Kind))
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *paymentService) Verify(ctx context.Context, reference string, provider entity.PaymentProvider) (*VerificationResult, error) {
	ctx, span := obs.Tracer().Start(ctx, "payment.verify")
	defer span.End()
	span.SetAttributes(attribute.String("payment.reference", reference))

	result, err := s.verify(ctx, strings.TrimSpace(reference), provider)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	label := string(provider)
	if result.Payment != nil {
		label = string(result.Payment.Provider)
	}
	metrics.PaymentVerificationsTotal.WithLabelValues(label, string(result.State)).Inc()

	return result, nil
}

func (s *paymentService) verify(ctx context.Context, reference string, provider entity.PaymentProvider) (*VerificationResult, error) {
	if reference == "" {
		return &VerificationResult{State: StateFailed, Message: "Missing payment reference"}, nil
	}
	if _, _, err := utils.ParsePaymentReference(reference); err != nil {
		s.log.Warn("Malformed payment reference", zap.String("reference", reference))
		return &VerificationResult{State: StateFailed, Message: "Payment not found"}, nil
	}

	payment, err := s.repo.Payment.FindByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if payment == nil {
		return &VerificationResult{State: StateFailed, Message: "Payment not found"}, nil
	}

	if provider != "" && provider != payment.Provider {
		s.log.Warn("Verification provider differs from recorded provider",
			zap.String("reference", reference),
			zap.String("requested", string(provider)),
			zap.String("recorded", string(payment.Provider)),
		)
	}

	gw, ok := s.gateways[payment.Provider]
	if !ok {
		return &VerificationResult{State: StateFailed, Payment: payment, Message: "Unsupported payment provider"}, nil
	}

	providerRef := ""
	if payment.ProviderReference != nil {
		providerRef = *payment.ProviderReference
	}

	status, err := gw.Status(ctx, reference, providerRef)
	if err != nil {
		if errors.Is(err, gateway.ErrReferenceNotFound) {
			return &VerificationResult{State: StateFailed, Payment: payment, Message: "Payment reference not recognised by provider"}, nil
		}
		s.log.Warn("Provider status check failed",
			zap.Error(err),
			zap.String("reference", reference),
		)
		if payment.Status == entity.PaymentStatusCompleted {
			return s.completedResult(ctx, payment)
		}
		return &VerificationResult{
			State:               StateFailed,
			Payment:             payment,
			Message:             "Unable to verify payment right now, please try again",
			ProviderUnavailable: true,
		}, nil
	}

	switch status.Outcome {
	case gateway.OutcomeSuccess:
		if mismatch(payment, status) {
			s.log.Error("Provider amount below recorded amount",
				zap.String("reference", reference),
				zap.Float64("recorded", payment.Amount),
				zap.Float64("provider", status.Amount),
			)
			return &VerificationResult{State: StateFailed, Payment: payment, Message: "Paid amount does not match the booking total"}, nil
		}

		confirmed, err := s.applySuccess(ctx, payment)
		if err != nil {
			return nil, err
		}
		if confirmed {
			s.dispatchConfirmation(payment.BookingKind, payment.BookingID())
		}
		return s.completedResult(ctx, payment)

	case gateway.OutcomePending:
		return &VerificationResult{
			State:   StatePending,
			Payment: payment,
			Message: fmt.Sprintf("Payment is %s, settlement is not complete yet", status.Status),
		}, nil
	}

	if status.Terminal {
		if err := s.applyFailure(ctx, payment); err != nil {
			return nil, err
		}
	}

	return &VerificationResult{
		State:   StateFailed,
		Payment: payment,
		Message: fmt.Sprintf("Payment was not successful (status: %s)", status.Status),
	}, nil
}

// completedResult reports a completed payment by what its booking became: success while the
// booking stands, refund_required when it was cancelled before the money arrived.
func (s *paymentService) completedResult(ctx context.Context, payment *entity.Payment) (*VerificationResult, error) {
	booking, err := loadBooking(ctx, s.repo, payment.BookingKind, payment.BookingID())
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if booking == nil || booking.Common().BookingStatus == entity.BookingStatusCancelled {
		return &VerificationResult{
			State:   StateRefundRequired,
			Payment: payment,
			Message: "Payment received after the reservation expired, a refund will be issued",
		}, nil
	}

	return &VerificationResult{Verified: true, State: StateSuccess, Payment: payment, Message: "Payment confirmed"}, nil
}

// mismatch reports a provider amount short of the recorded one when both are in the same currency.
func mismatch(payment *entity.Payment, status *gateway.StatusResult) bool {
	if status.Currency == "" || !strings.EqualFold(status.Currency, payment.Currency) {
		return false
	}
	return status.Amount+0.005 < math.Round(payment.Amount*100)/100
}

// applySuccess completes the payment and confirms its booking in one transaction.
// It reports whether the booking is confirmed afterwards.
func (s *paymentService) applySuccess(ctx context.Context, payment *entity.Payment) (bool, error) {
	bookingID := payment.BookingID()
	writer, err := statusWriter(s.repo, payment.BookingKind)
	if err != nil {
		return false, err
	}

	confirmed := true
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		moved, err := s.repo.Payment.TransitionStatus(ctx, payment.ID,
			[]entity.PaymentStatus{entity.PaymentStatusPending, entity.PaymentStatusFailed}, entity.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}

		ok, err := writer.ConfirmIfPending(ctx, bookingID)
		if err != nil {
			return err
		}
		if !ok {
			// the hold expired before the money arrived
			confirmed = false
			return writer.UpdatePaymentStatus(ctx, bookingID, entity.PaymentStatusCompleted)
		}
		if payment.BookingKind == entity.BookingKindHotel {
			return s.releaseRoomHold(ctx, bookingID)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("apply payment success: %w", err)
	}

	payment.Status = entity.PaymentStatusCompleted
	if !confirmed {
		s.log.Error("Payment completed for a booking that is no longer pending, refund required",
			zap.String("reference", payment.Reference),
			zap.String("booking_id", bookingID.String()),
		)
		return false, nil
	}

	return true, nil
}

// releaseRoomHold puts a confirmed booking's room back to available. From here on the
// confirmed booking blocks the room through date overlap instead of the unit status.
func (s *paymentService) releaseRoomHold(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repo.HotelBooking.FindByID(ctx, bookingID)
	if err != nil || booking == nil {
		return err
	}
	_, err = s.repo.Room.Release(ctx, booking.RoomID)
	return err
}

func (s *paymentService) applyFailure(ctx context.Context, payment *entity.Payment) error {
	writer, err := statusWriter(s.repo, payment.BookingKind)
	if err != nil {
		return err
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		moved, err := s.repo.Payment.TransitionStatus(ctx, payment.ID,
			[]entity.PaymentStatus{entity.PaymentStatusPending}, entity.PaymentStatusFailed)
		if err != nil || !moved {
			return err
		}
		return writer.UpdatePaymentStatus(ctx, payment.BookingID(), entity.PaymentStatusFailed)
	})
	if err != nil {
		return fmt.Errorf("apply payment failure: %w", err)
	}

	if payment.Status == entity.PaymentStatusPending {
		payment.Status = entity.PaymentStatusFailed
	}
	return nil
}

func (s *paymentService) dispatchConfirmation(kind entity.BookingKind, bookingID uuid.UUID) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.SendConfirmation(ctx, kind, bookingID); err != nil {
			s.log.Error("Confirmation email failed",
				zap.Error(err),
				zap.String("booking_id", bookingID.String()),
			)
		}
	}()
}

func (s *paymentService) SendConfirmation(ctx context.Context, kind entity.BookingKind, bookingID uuid.UUID) (bool, error) {
	booking, err := loadBooking(ctx, s.repo, kind, bookingID)
	if err != nil {
		return false, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return false, ErrBookingNotFound
	}

	common := booking.Common()
	if common.PaymentStatus != entity.PaymentStatusCompleted || common.BookingStatus != entity.BookingStatusConfirmed {
		return false, nil
	}

	claimed, err := s.repo.Notification.Claim(ctx, bookingID, entity.NotificationConfirmationEmail)
	if err != nil {
		return false, err
	}
	if !claimed {
		metrics.NotificationsTotal.WithLabelValues("duplicate").Inc()
		return false, nil
	}

	msg := notify.ConfirmationMessage{
		BookingID:   bookingID.String(),
		BookingType: string(kind),
		GuestName:   common.GuestName,
		GuestEmail:  common.GuestEmail,
		TotalAmount: common.TotalAmount,
		Currency:    s.config.Currency,
	}
	if payment, err := s.repo.Payment.FindLatestByBooking(ctx, kind, bookingID); err == nil && payment != nil {
		msg.Reference = payment.Reference
	}

	if err := s.notifier.SendConfirmation(ctx, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		if relErr := s.repo.Notification.Release(ctx, bookingID, entity.NotificationConfirmationEmail); relErr != nil {
			s.log.Error("Failed to release notification marker", zap.Error(relErr))
		}
		return false, err
	}

	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	s.log.Info("Confirmation email sent",
		zap.String("booking_id", bookingID.String()),
		zap.String("kind", string(kind)),
	)
	return true, nil
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

func (s *paymentService) HandlePaystackWebhook(ctx context.Context, body []byte, signature string) error {
	if s.webhook == nil || !s.webhook.VerifySignature(body, signature) {
		return ErrInvalidSignature
	}

	var event paystackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return newValidationError(map[string]string{"body": "Invalid webhook payload"})
	}

	if event.Event != "charge.success" {
		s.log.Debug("Ignoring paystack event", zap.String("event", event.Event))
		return nil
	}

	result, err := s.Verify(ctx, event.Data.Reference, entity.PaymentProviderPaystack)
	if err != nil {
		return err
	}

	s.log.Info("Paystack webhook processed",
		zap.String("reference", event.Data.Reference),
		zap.String("state", string(result.State)),
	)
	return nil
}

func (s *paymentService) Wait() {
	s.pending.Wait()
}
