package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingIndexEntry is one row of the booking_index view.
type BookingIndexEntry struct {
	ID        uuid.UUID
	Kind      entity.BookingKind
	CreatedAt time.Time
}

type BookingIndexRepository interface {
	// ResolveKind finds which booking table holds id. When several do, the lowest probe_order wins
	// (event, then hotel, then apartment).
	ResolveKind(ctx context.Context, id uuid.UUID) (entity.BookingKind, bool, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]BookingIndexEntry, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type bookingIndexRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingIndexRepository(db database.PgxIface, log *zap.Logger) BookingIndexRepository {
	return &bookingIndexRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_index")),
	}
}

func (r *bookingIndexRepository) ResolveKind(ctx context.Context, id uuid.UUID) (entity.BookingKind, bool, error) {
	query := `
		SELECT kind
		FROM booking_index
		WHERE id = $1
		ORDER BY probe_order
		LIMIT 1
	`

	var kind entity.BookingKind
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.log.Error("Failed to resolve booking kind",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return "", false, fmt.Errorf("resolve booking kind for %s: %w", id.String(), err)
	}

	return kind, true, nil
}

func (r *bookingIndexRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]BookingIndexEntry, error) {
	query := `
		SELECT id, kind, created_at
		FROM booking_index
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list booking index by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list booking index for user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	entries := []BookingIndexEntry{}
	for rows.Next() {
		var e BookingIndexEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.CreatedAt); err != nil {
			r.log.Error("Failed to scan booking index row", zap.Error(err))
			return nil, fmt.Errorf("scan booking index row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking index rows: %w", err)
	}

	return entries, nil
}

func (r *bookingIndexRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM booking_index WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count booking index by user",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count booking index for user %s: %w", userID.String(), err)
	}

	return count, nil
}
