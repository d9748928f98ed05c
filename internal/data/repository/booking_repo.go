package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// IsUniqueViolation reports a postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// commonBookingColumns are shared by hotel_bookings, apartment_bookings and event_bookings, in scan order.
var commonBookingColumns = []string{
	"id", "user_id", "guest_name", "guest_email", "guest_phone", "total_amount",
	"booking_status", "payment_status", "idempotency_key", "created_at", "updated_at",
}

func commonBookingDest(c *entity.BookingCommon) []any {
	return []any{
		&c.ID,
		&c.UserID,
		&c.GuestName,
		&c.GuestEmail,
		&c.GuestPhone,
		&c.TotalAmount,
		&c.BookingStatus,
		&c.PaymentStatus,
		&c.IdempotencyKey,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

func commonBookingArgs(c *entity.BookingCommon) []any {
	return []any{
		c.ID,
		c.UserID,
		c.GuestName,
		c.GuestEmail,
		c.GuestPhone,
		c.TotalAmount,
		c.BookingStatus,
		c.PaymentStatus,
		c.IdempotencyKey,
		c.CreatedAt,
		c.UpdatedAt,
	}
}

func insertStatement(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// bookingTable carries the status queries every booking table answers the same way.
type bookingTable struct {
	table string
	db    database.PgxIface
	log   *zap.Logger
}

// ConfirmIfPending marks a pending booking as paid and confirmed.
// It reports false when the booking left pending meanwhile.
func (t bookingTable) ConfirmIfPending(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET booking_status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND booking_status = $4
	`, t.table)

	result, err := database.Conn(ctx, t.db).Exec(ctx, query,
		bookingID,
		entity.BookingStatusConfirmed,
		entity.PaymentStatusCompleted,
		entity.BookingStatusPending,
	)
	if err != nil {
		t.log.Error("Failed to confirm booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return false, fmt.Errorf("confirm %s %s: %w", t.table, bookingID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (t bookingTable) UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, paymentStatus entity.PaymentStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET payment_status = $2, updated_at = NOW() WHERE id = $1`, t.table)

	result, err := database.Conn(ctx, t.db).Exec(ctx, query, bookingID, paymentStatus)
	if err != nil {
		t.log.Error("Failed to update booking payment status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_status", string(paymentStatus)),
		)
		return fmt.Errorf("update %s %s payment status: %w", t.table, bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	return nil
}

// CancelIfUnpaid cancels a pending booking whose payment never completed.
// It reports false when the booking was confirmed or cancelled meanwhile.
func (t bookingTable) CancelIfUnpaid(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET booking_status = $2, updated_at = NOW()
		WHERE id = $1 AND booking_status = $3 AND payment_status <> $4
	`, t.table)

	result, err := database.Conn(ctx, t.db).Exec(ctx, query,
		bookingID,
		entity.BookingStatusCancelled,
		entity.BookingStatusPending,
		entity.PaymentStatusCompleted,
	)
	if err != nil {
		t.log.Error("Failed to cancel unpaid booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return false, fmt.Errorf("cancel %s %s: %w", t.table, bookingID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (t bookingTable) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1`, t.table)

	var count int64
	err := database.Conn(ctx, t.db).QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		t.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count %s by user ID %s: %w", t.table, userID.String(), err)
	}

	return count, nil
}
