package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByReference(ctx context.Context, reference string) (*entity.Payment, error)
	FindLatestByBooking(ctx context.Context, kind entity.BookingKind, bookingID uuid.UUID) (*entity.Payment, error)
	SetProviderReference(ctx context.Context, paymentID uuid.UUID, providerReference string) error

	// TransitionStatus moves the payment to status `to` only when its current status is one of from.
	TransitionStatus(ctx context.Context, paymentID uuid.UUID, from []entity.PaymentStatus, to entity.PaymentStatus) (bool, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

var paymentColumns = []string{
	"id", "booking_kind", "hotel_booking_id", "apartment_booking_id", "event_booking_id",
	"provider", "reference", "provider_reference", "amount", "currency", "status", "refund_amount",
	"created_at", "updated_at",
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.BookingKind,
		&p.HotelBookingID,
		&p.ApartmentBookingID,
		&p.EventBookingID,
		&p.Provider,
		&p.Reference,
		&p.ProviderReference,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.RefundAmount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	_, err := database.Conn(ctx, r.db).Exec(ctx, insertStatement("payments", paymentColumns),
		payment.ID,
		payment.BookingKind,
		payment.HotelBookingID,
		payment.ApartmentBookingID,
		payment.EventBookingID,
		payment.Provider,
		payment.Reference,
		payment.ProviderReference,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.RefundAmount,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("reference", payment.Reference),
			zap.String("booking_id", payment.BookingID().String()),
		)
		return fmt.Errorf("create payment %s: %w", payment.Reference, err)
	}

	return nil
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	query, args, err := psql.Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"reference": reference}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payment by reference query: %w", err)
	}

	payment, err := scanPayment(database.Conn(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by reference",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("find payment by reference %s: %w", reference, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindLatestByBooking(ctx context.Context, kind entity.BookingKind, bookingID uuid.UUID) (*entity.Payment, error) {
	column, err := paymentBookingColumn(kind)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(paymentColumns...).
		From("payments").
		Where(column+" = ?", bookingID).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payment by booking query: %w", err)
	}

	payment, err := scanPayment(database.Conn(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking",
			zap.Error(err),
			zap.String("booking_kind", string(kind)),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment for %s booking %s: %w", kind, bookingID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) SetProviderReference(ctx context.Context, paymentID uuid.UUID, providerReference string) error {
	query := `UPDATE payments SET provider_reference = $2, updated_at = NOW() WHERE id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, paymentID, providerReference)
	if err != nil {
		r.log.Error("Failed to set provider reference",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		return fmt.Errorf("set provider reference on payment %s: %w", paymentID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", paymentID.String())
	}

	return nil
}

func (r *paymentRepository) TransitionStatus(ctx context.Context, paymentID uuid.UUID, from []entity.PaymentStatus, to entity.PaymentStatus) (bool, error) {
	current := make([]string, len(from))
	for i, s := range from {
		current[i] = string(s)
	}

	query, args, err := psql.Update("payments").
		Set("status", string(to)).
		Set("updated_at", sq.Expr("NOW()")).
		Where("id = ?", paymentID).
		Where(sq.Eq{"status": current}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build payment transition query: %w", err)
	}

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to transition payment status",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
			zap.String("status", string(to)),
		)
		return false, fmt.Errorf("transition payment %s to %s: %w", paymentID.String(), to, err)
	}

	return result.RowsAffected() == 1, nil
}

func paymentBookingColumn(kind entity.BookingKind) (string, error) {
	switch kind {
	case entity.BookingKindHotel:
		return "hotel_booking_id", nil
	case entity.BookingKindApartment:
		return "apartment_booking_id", nil
	case entity.BookingKindEvent:
		return "event_booking_id", nil
	}
	return "", fmt.Errorf("unknown booking kind %q", kind)
}
