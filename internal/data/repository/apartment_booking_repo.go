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

type ApartmentBookingRepository interface {
	Create(ctx context.Context, booking *entity.ApartmentBooking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ApartmentBooking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.ApartmentBooking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.ApartmentBooking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindUnpaidBefore(ctx context.Context, before time.Time, limit int) ([]*entity.ApartmentBooking, error)

	ConfirmIfPending(ctx context.Context, bookingID uuid.UUID) (bool, error)
	UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, paymentStatus entity.PaymentStatus) error
	CancelIfUnpaid(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type apartmentBookingRepository struct {
	bookingTable
}

func NewApartmentBookingRepository(db database.PgxIface, log *zap.Logger) ApartmentBookingRepository {
	return &apartmentBookingRepository{
		bookingTable: bookingTable{
			table: "apartment_bookings",
			db:    db,
			log:   log.With(zap.String("repository", "apartment_booking")),
		},
	}
}

var apartmentBookingColumns = append(append([]string{}, commonBookingColumns...),
	"apartment_id", "check_in", "check_out", "guests")

func scanApartmentBooking(row pgx.Row) (*entity.ApartmentBooking, error) {
	var b entity.ApartmentBooking
	dest := append(commonBookingDest(&b.BookingCommon),
		&b.ApartmentID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Guests,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *apartmentBookingRepository) Create(ctx context.Context, booking *entity.ApartmentBooking) error {
	args := append(commonBookingArgs(&booking.BookingCommon),
		booking.ApartmentID,
		booking.CheckIn,
		booking.CheckOut,
		booking.Guests,
	)

	_, err := database.Conn(ctx, r.db).Exec(ctx, insertStatement(r.table, apartmentBookingColumns), args...)
	if err != nil {
		r.log.Error("Failed to create apartment booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("apartment_id", booking.ApartmentID.String()),
		)
		return fmt.Errorf("create apartment booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *apartmentBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ApartmentBooking, error) {
	return r.findOne(ctx, "id", id)
}

func (r *apartmentBookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.ApartmentBooking, error) {
	return r.findOne(ctx, "idempotency_key", key)
}

func (r *apartmentBookingRepository) findOne(ctx context.Context, column string, value any) (*entity.ApartmentBooking, error) {
	query, args, err := psql.Select(apartmentBookingColumns...).From(r.table).Where(column+" = ?", value).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build apartment booking query: %w", err)
	}

	booking, err := scanApartmentBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find apartment booking", zap.Error(err), zap.String("column", column))
		return nil, fmt.Errorf("find apartment booking: %w", err)
	}

	return booking, nil
}

func (r *apartmentBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.ApartmentBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM apartment_bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, strings.Join(apartmentBookingColumns, ", "))

	return r.queryMany(ctx, query, userID, limit, offset)
}

func (r *apartmentBookingRepository) FindUnpaidBefore(ctx context.Context, before time.Time, limit int) ([]*entity.ApartmentBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM apartment_bookings
		WHERE booking_status = $1 AND payment_status <> $2 AND created_at < $3
		ORDER BY created_at
		LIMIT $4
	`, strings.Join(apartmentBookingColumns, ", "))

	return r.queryMany(ctx, query, entity.BookingStatusPending, entity.PaymentStatusCompleted, before, limit)
}

func (r *apartmentBookingRepository) queryMany(ctx context.Context, query string, args ...any) ([]*entity.ApartmentBooking, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query apartment bookings", zap.Error(err))
		return nil, fmt.Errorf("query apartment bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*entity.ApartmentBooking{}
	for rows.Next() {
		booking, err := scanApartmentBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan apartment booking row", zap.Error(err))
			return nil, fmt.Errorf("scan apartment booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate apartment booking rows: %w", err)
	}

	return bookings, nil
}
