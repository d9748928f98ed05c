package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type EventBookingRepository interface {
	Create(ctx context.Context, booking *entity.EventBooking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.EventBooking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.EventBooking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.EventBooking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindUnpaidBefore(ctx context.Context, before time.Time, limit int) ([]*entity.EventBooking, error)

	ConfirmIfPending(ctx context.Context, bookingID uuid.UUID) (bool, error)
	UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, paymentStatus entity.PaymentStatus) error
	CancelIfUnpaid(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type eventBookingRepository struct {
	bookingTable
}

func NewEventBookingRepository(db database.PgxIface, log *zap.Logger) EventBookingRepository {
	return &eventBookingRepository{
		bookingTable: bookingTable{
			table: "event_bookings",
			db:    db,
			log:   log.With(zap.String("repository", "event_booking")),
		},
	}
}

var eventBookingColumns = append(append([]string{}, commonBookingColumns...),
	"event_id", "event_date", "quantity")

func scanEventBooking(row pgx.Row) (*entity.EventBooking, error) {
	var b entity.EventBooking
	dest := append(commonBookingDest(&b.BookingCommon),
		&b.EventID,
		&b.EventDate,
		&b.Quantity,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *eventBookingRepository) Create(ctx context.Context, booking *entity.EventBooking) error {
	args := append(commonBookingArgs(&booking.BookingCommon),
		booking.EventID,
		booking.EventDate,
		booking.Quantity,
	)

	_, err := database.Conn(ctx, r.db).Exec(ctx, insertStatement(r.table, eventBookingColumns), args...)
	if err != nil {
		r.log.Error("Failed to create event booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("event_id", booking.EventID.String()),
		)
		return fmt.Errorf("create event booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *eventBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.EventBooking, error) {
	return r.findOne(ctx, "id", id)
}

func (r *eventBookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.EventBooking, error) {
	return r.findOne(ctx, "idempotency_key", key)
}

func (r *eventBookingRepository) findOne(ctx context.Context, column string, value any) (*entity.EventBooking, error) {
	query, args, err := psql.Select(eventBookingColumns...).From(r.table).Where(column+" = ?", value).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build event booking query: %w", err)
	}

	booking, err := scanEventBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find event booking", zap.Error(err), zap.String("column", column))
		return nil, fmt.Errorf("find event booking: %w", err)
	}

	return booking, nil
}

func (r *eventBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.EventBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM event_bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, strings.Join(eventBookingColumns, ", "))

	return r.queryMany(ctx, query, userID, limit, offset)
}

func (r *eventBookingRepository) FindUnpaidBefore(ctx context.Context, before time.Time, limit int) ([]*entity.EventBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM event_bookings
		WHERE booking_status = $1 AND payment_status <> $2 AND created_at < $3
		ORDER BY created_at
		LIMIT $4
	`, strings.Join(eventBookingColumns, ", "))

	return r.queryMany(ctx, query, entity.BookingStatusPending, entity.PaymentStatusCompleted, before, limit)
}

func (r *eventBookingRepository) queryMany(ctx context.Context, query string, args ...any) ([]*entity.EventBooking, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query event bookings", zap.Error(err))
		return nil, fmt.Errorf("query event bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*entity.EventBooking{}
	for rows.Next() {
		booking, err := scanEventBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan event booking row", zap.Error(err))
			return nil, fmt.Errorf("scan event booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event booking rows: %w", err)
	}

	return bookings, nil
}
