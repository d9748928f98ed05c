package usecase

import (
	"context"
	"fmt"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/pkg/metrics"
	"marketplace-booking/pkg/utils"

	"go.uber.org/zap"
)

const expiryBatchSize = 100

// ExpiryService cancels reservations whose payment never completed within the hold
// window and returns their inventory.
type ExpiryService interface {
	// Run sweeps on every tick until ctx is done.
	Run(ctx context.Context)
	SweepOnce(ctx context.Context) (int, error)
}

type expiryService struct {
	repo       *repository.Repository
	tx         Transactor
	drafts     DraftStore
	payment    PaymentService
	clock      Clock
	hold       time.Duration
	settlement time.Duration
	interval   time.Duration
	log        *zap.Logger
}

func NewExpiryService(repo *repository.Repository, tx Transactor, drafts DraftStore, payment PaymentService, clock Clock, config utils.BookingConfig, log *zap.Logger) ExpiryService {
	hold := time.Duration(config.HoldMinutes) * time.Minute
	if hold <= 0 {
		hold = 30 * time.Minute
	}
	settlement := time.Duration(config.SettlementMinutes) * time.Minute
	if settlement < hold {
		settlement = 24 * time.Hour
	}
	interval := time.Duration(config.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	return &expiryService{
		repo:       repo,
		tx:         tx,
		drafts:     drafts,
		payment:    payment,
		clock:      clock,
		hold:       hold,
		settlement: settlement,
		interval:   interval,
		log:        log.With(zap.String("service", "expiry")),
	}
}

func (s *expiryService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Reservation expiry worker started",
		zap.Duration("hold", s.hold),
		zap.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reservation expiry worker stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.log.Error("Reservation sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *expiryService) SweepOnce(ctx context.Context) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.hold)

	if s.drafts != nil {
		if n := s.drafts.Sweep(now); n > 0 {
			s.log.Debug("Expired drafts removed", zap.Int("count", n))
		}
	}

	stale, err := s.findStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, b := range stale {
		if s.settling(ctx, b, now) {
			continue
		}

		ok, err := cancelUnpaid(ctx, s.repo, s.tx, b)
		if err != nil {
			s.log.Error("Failed to expire booking",
				zap.Error(err),
				zap.String("booking_id", b.Common().ID.String()),
				zap.String("kind", string(b.Kind)),
			)
			continue
		}
		if ok {
			expired++
			metrics.ExpiredBookingsTotal.WithLabelValues(string(b.Kind)).Inc()
		}
	}

	if expired > 0 {
		s.log.Info("Unpaid reservations expired",
			zap.Int("count", expired),
			zap.Time("cutoff", cutoff),
		)
	}
	return expired, nil
}

func (s *expiryService) findStale(ctx context.Context, cutoff time.Time) ([]*entity.Booking, error) {
	var stale []*entity.Booking

	hotels, err := s.repo.HotelBooking.FindUnpaidBefore(ctx, cutoff, expiryBatchSize)
	if err != nil {
		return nil, fmt.Errorf("find stale hotel bookings: %w", err)
	}
	for _, b := range hotels {
		stale = append(stale, entity.NewHotelBookingVariant(b))
	}

	apartments, err := s.repo.ApartmentBooking.FindUnpaidBefore(ctx, cutoff, expiryBatchSize)
	if err != nil {
		return nil, fmt.Errorf("find stale apartment bookings: %w", err)
	}
	for _, b := range apartments {
		stale = append(stale, entity.NewApartmentBookingVariant(b))
	}

	events, err := s.repo.EventBooking.FindUnpaidBefore(ctx, cutoff, expiryBatchSize)
	if err != nil {
		return nil, fmt.Errorf("find stale event bookings: %w", err)
	}
	for _, b := range events {
		stale = append(stale, entity.NewEventBookingVariant(b))
	}

	return stale, nil
}

// settling re-checks the booking's latest payment with its provider before the hold is
// dropped. It reports true when the booking must be kept: the money arrived, the provider
// still settles it, or the provider could not be asked. Settlement gets until the
// settlement window closes; after that the booking is cancelled regardless.
func (s *expiryService) settling(ctx context.Context, b *entity.Booking, now time.Time) bool {
	common := b.Common()
	if s.payment == nil || now.Sub(common.CreatedAt) > s.settlement {
		return false
	}

	payment, err := s.repo.Payment.FindLatestByBooking(ctx, b.Kind, common.ID)
	if err != nil {
		s.log.Error("Failed to load payment before expiry",
			zap.Error(err),
			zap.String("booking_id", common.ID.String()),
		)
		return true
	}
	if payment == nil || payment.Status != entity.PaymentStatusPending {
		return false
	}

	result, err := s.payment.Verify(ctx, payment.Reference, payment.Provider)
	if err != nil {
		s.log.Error("Failed to re-check payment before expiry",
			zap.Error(err),
			zap.String("reference", payment.Reference),
		)
		return true
	}

	switch {
	case result.State == StateSuccess, result.State == StateRefundRequired:
		return true
	case result.State == StatePending, result.ProviderUnavailable:
		s.log.Info("Keeping reservation while payment settles",
			zap.String("booking_id", common.ID.String()),
			zap.String("reference", payment.Reference),
			zap.String("state", string(result.State)),
		)
		return true
	}
	return false
}
