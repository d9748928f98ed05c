package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace-booking/internal/data/entity"
	"marketplace-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type EventRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)

	// ClaimTickets adds quantity to tickets_sold only if capacity allows it.
	ClaimTickets(ctx context.Context, eventID uuid.UUID, quantity int) (bool, error)
	ReleaseTickets(ctx context.Context, eventID uuid.UUID, quantity int) error
}

type eventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewEventRepository(db database.PgxIface, log *zap.Logger) EventRepository {
	return &eventRepository{
		db:  db,
		log: log.With(zap.String("repository", "event")),
	}
}

func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	query := `
		SELECT id, vendor_id, title, venue, event_date, ticket_price, capacity, tickets_sold, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	var event entity.Event
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.VendorID,
		&event.Title,
		&event.Venue,
		&event.EventDate,
		&event.TicketPrice,
		&event.Capacity,
		&event.TicketsSold,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find event by ID",
			zap.Error(err),
			zap.String("event_id", id.String()),
		)
		return nil, fmt.Errorf("find event by ID %s: %w", id.String(), err)
	}

	return &event, nil
}

func (r *eventRepository) ClaimTickets(ctx context.Context, eventID uuid.UUID, quantity int) (bool, error) {
	query := `
		UPDATE events
		SET tickets_sold = tickets_sold + $2, updated_at = NOW()
		WHERE id = $1 AND tickets_sold + $2 <= capacity
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, eventID, quantity)
	if err != nil {
		r.log.Error("Failed to claim event tickets",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
			zap.Int("quantity", quantity),
		)
		return false, fmt.Errorf("claim %d tickets for event %s: %w", quantity, eventID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *eventRepository) ReleaseTickets(ctx context.Context, eventID uuid.UUID, quantity int) error {
	query := `
		UPDATE events
		SET tickets_sold = GREATEST(tickets_sold - $2, 0), updated_at = NOW()
		WHERE id = $1
	`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, eventID, quantity); err != nil {
		r.log.Error("Failed to release event tickets",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
			zap.Int("quantity", quantity),
		)
		return fmt.Errorf("release %d tickets for event %s: %w", quantity, eventID.String(), err)
	}

	return nil
}
