package repository

import (
	"context"
	"fmt"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationRepository interface {
	// Claim inserts the marker and reports whether this caller created it.
	Claim(ctx context.Context, bookingID uuid.UUID, kind entity.NotificationKind) (bool, error)
	Release(ctx context.Context, bookingID uuid.UUID, kind entity.NotificationKind) error
}

type notificationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewNotificationRepository(db database.PgxIface, log *zap.Logger) NotificationRepository {
	return &notificationRepository{
		db:  db,
		log: log.With(zap.String("repository", "notification")),
	}
}

func (r *notificationRepository) Claim(ctx context.Context, bookingID uuid.UUID, kind entity.NotificationKind) (bool, error) {
	query := `
		INSERT INTO booking_notifications (booking_id, kind, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (booking_id, kind) DO NOTHING
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID, kind)
	if err != nil {
		r.log.Error("Failed to claim notification",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("kind", string(kind)),
		)
		return false, fmt.Errorf("claim %s for booking %s: %w", kind, bookingID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *notificationRepository) Release(ctx context.Context, bookingID uuid.UUID, kind entity.NotificationKind) error {
	query := `DELETE FROM booking_notifications WHERE booking_id = $1 AND kind = $2`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID, kind); err != nil {
		r.log.Error("Failed to release notification",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("kind", string(kind)),
		)
		return fmt.Errorf("release %s for booking %s: %w", kind, bookingID.String(), err)
	}

	return nil
}
