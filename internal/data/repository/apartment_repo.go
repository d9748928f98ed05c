package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ApartmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Apartment, error)

	// LockByID selects the apartment FOR UPDATE; it must run inside a transaction.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Apartment, error)

	// HasOverlap reports whether a booking in one of statuses overlaps [checkIn, checkOut).
	HasOverlap(ctx context.Context, apartmentID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) (bool, error)
}

type apartmentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewApartmentRepository(db database.PgxIface, log *zap.Logger) ApartmentRepository {
	return &apartmentRepository{
		db:  db,
		log: log.With(zap.String("repository", "apartment")),
	}
}

const apartmentSelect = `
	SELECT id, vendor_id, name, city, price_per_night, max_guests, status, created_at, updated_at
	FROM apartments
	WHERE id = $1
`

func (r *apartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Apartment, error) {
	return r.find(ctx, apartmentSelect, id)
}

func (r *apartmentRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Apartment, error) {
	return r.find(ctx, apartmentSelect+" FOR UPDATE", id)
}

func (r *apartmentRepository) find(ctx context.Context, query string, id uuid.UUID) (*entity.Apartment, error) {
	var apt entity.Apartment
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&apt.ID,
		&apt.VendorID,
		&apt.Name,
		&apt.City,
		&apt.PricePerNight,
		&apt.MaxGuests,
		&apt.Status,
		&apt.CreatedAt,
		&apt.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find apartment",
			zap.Error(err),
			zap.String("apartment_id", id.String()),
		)
		return nil, fmt.Errorf("find apartment %s: %w", id.String(), err)
	}

	return &apt, nil
}

func (r *apartmentRepository) HasOverlap(ctx context.Context, apartmentID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) (bool, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("apartment_bookings").
		Where("apartment_id = ?", apartmentID).
		Where(sq.Eq{"booking_status": bookingStatusStrings(statuses)}).
		Where(sq.Lt{"check_in": checkOut}).
		Where(sq.Gt{"check_out": checkIn}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build apartment overlap query: %w", err)
	}

	var count int
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to check apartment overlap",
			zap.Error(err),
			zap.String("apartment_id", apartmentID.String()),
		)
		return false, fmt.Errorf("check overlap for apartment %s: %w", apartmentID.String(), err)
	}

	return count > 0, nil
}
