package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HotelBookingRepository interface {
	Create(ctx context.Context, booking *entity.HotelBooking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.HotelBooking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.HotelBooking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.HotelBooking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindUnpaidBefore(ctx context.Context, before time.Time, limit int) ([]*entity.HotelBooking, error)

	// FindBookedRoomIDs returns rooms of the type held by a booking in one of statuses
	// overlapping [checkIn, checkOut).
	FindBookedRoomIDs(ctx context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) ([]uuid.UUID, error)

	ConfirmIfPending(ctx context.Context, bookingID uuid.UUID) (bool, error)
	UpdatePaymentStatus(ctx context.Context, bookingID uuid.UUID, paymentStatus entity.PaymentStatus) error
	CancelIfUnpaid(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type hotelBookingRepository struct {
	bookingTable
}

func NewHotelBookingRepository(db database.PgxIface, log *zap.Logger) HotelBookingRepository {
	return &hotelBookingRepository{
		bookingTable: bookingTable{
			table: "hotel_bookings",
			db:    db,
			log:   log.With(zap.String("repository", "hotel_booking")),
		},
	}
}

var hotelBookingColumns = append(append([]string{}, commonBookingColumns...),
	"room_type_id", "room_id", "check_in", "check_out", "guests")

func scanHotelBooking(row pgx.Row) (*entity.HotelBooking, error) {
	var b entity.HotelBooking
	dest := append(commonBookingDest(&b.BookingCommon),
		&b.RoomTypeID,
		&b.RoomID,
		&b.CheckIn,
		&b.CheckOut,
		&b.Guests,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *hotelBookingRepository) Create(ctx context.Context, booking *entity.HotelBooking) error {
	args := append(commonBookingArgs(&booking.BookingCommon),
		booking.RoomTypeID,
		booking.RoomID,
		booking.CheckIn,
		booking.CheckOut,
		booking.Guests,
	)

	_, err := database.Conn(ctx, r.db).Exec(ctx, insertStatement(r.table, hotelBookingColumns), args...)
	if err != nil {
		r.log.Error("Failed to create hotel booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("room_id", booking.RoomID.String()),
		)
		return fmt.Errorf("create hotel booking %s: %w", booking.ID.String(), err)
	}

	return nil
}

func (r *hotelBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.HotelBooking, error) {
	return r.findOne(ctx, "id", id)
}

func (r *hotelBookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.HotelBooking, error) {
	return r.findOne(ctx, "idempotency_key", key)
}

func (r *hotelBookingRepository) findOne(ctx context.Context, column string, value any) (*entity.HotelBooking, error) {
	query, args, err := psql.Select(hotelBookingColumns...).From(r.table).Where(column+" = ?", value).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build hotel booking query: %w", err)
	}

	booking, err := scanHotelBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find hotel booking", zap.Error(err), zap.String("column", column))
		return nil, fmt.Errorf("find hotel booking: %w", err)
	}

	return booking, nil
}

func (r *hotelBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.HotelBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM hotel_bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, strings.Join(hotelBookingColumns, ", "))

	return r.queryMany(ctx, query, userID, limit, offset)
}

func (r *hotelBookingRepository) FindUnpaidBefore(ctx context.Context, before time.Time, limit int) ([]*entity.HotelBooking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM hotel_bookings
		WHERE booking_status = $1 AND payment_status <> $2 AND created_at < $3
		ORDER BY created_at
		LIMIT $4
	`, strings.Join(hotelBookingColumns, ", "))

	return r.queryMany(ctx, query, entity.BookingStatusPending, entity.PaymentStatusCompleted, before, limit)
}

func (r *hotelBookingRepository) queryMany(ctx context.Context, query string, args ...any) ([]*entity.HotelBooking, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query hotel bookings", zap.Error(err))
		return nil, fmt.Errorf("query hotel bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*entity.HotelBooking{}
	for rows.Next() {
		booking, err := scanHotelBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan hotel booking row", zap.Error(err))
			return nil, fmt.Errorf("scan hotel booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hotel booking rows: %w", err)
	}

	return bookings, nil
}

func (r *hotelBookingRepository) FindBookedRoomIDs(ctx context.Context, roomTypeID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) ([]uuid.UUID, error) {
	query, args, err := psql.Select("DISTINCT room_id").
		From(r.table).
		Where("room_type_id = ?", roomTypeID).
		Where(sq.Eq{"booking_status": bookingStatusStrings(statuses)}).
		Where(sq.Lt{"check_in": checkOut}).
		Where(sq.Gt{"check_out": checkIn}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booked rooms query: %w", err)
	}

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find booked rooms",
			zap.Error(err),
			zap.String("room_type_id", roomTypeID.String()),
		)
		return nil, fmt.Errorf("find booked rooms for type %s: %w", roomTypeID.String(), err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan booked room id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booked room ids: %w", err)
	}

	return ids, nil
}
