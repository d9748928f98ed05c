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

type RoomTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RoomType, error)
}

type roomTypeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRoomTypeRepository(db database.PgxIface, log *zap.Logger) RoomTypeRepository {
	return &roomTypeRepository{
		db:  db,
		log: log.With(zap.String("repository", "room_type")),
	}
}

func (r *roomTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RoomType, error) {
	query := `
		SELECT rt.id, rt.hotel_id, h.name, rt.name, rt.base_price, rt.max_guests, rt.created_at, rt.updated_at
		FROM room_types rt
		JOIN hotels h ON h.id = rt.hotel_id
		WHERE rt.id = $1
	`

	var rt entity.RoomType
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&rt.ID,
		&rt.HotelID,
		&rt.HotelName,
		&rt.Name,
		&rt.BasePrice,
		&rt.MaxGuests,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find room type by ID",
			zap.Error(err),
			zap.String("room_type_id", id.String()),
		)
		return nil, fmt.Errorf("find room type by ID %s: %w", id.String(), err)
	}

	return &rt, nil
}

type RoomRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	FindByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]*entity.Room, error)

	// ReserveIfAvailable flips the room to reserved only if it is still available and no booking
	// in one of statuses overlaps [checkIn, checkOut).
	ReserveIfAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) (bool, error)
	// Release returns a reserved room to available.
	Release(ctx context.Context, roomID uuid.UUID) (bool, error)
}

type roomRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRoomRepository(db database.PgxIface, log *zap.Logger) RoomRepository {
	return &roomRepository{
		db:  db,
		log: log.With(zap.String("repository", "room")),
	}
}

var roomColumns = []string{"r.id", "r.room_type_id", "r.room_number", "r.status", "r.created_at", "r.updated_at"}

func scanRoom(row pgx.Row) (*entity.Room, error) {
	var room entity.Room
	err := row.Scan(
		&room.ID,
		&room.RoomTypeID,
		&room.RoomNumber,
		&room.Status,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	query, args, err := psql.Select(roomColumns...).From("rooms r").Where("r.id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find room query: %w", err)
	}

	room, err := scanRoom(database.Conn(ctx, r.db).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find room by ID",
			zap.Error(err),
			zap.String("room_id", id.String()),
		)
		return nil, fmt.Errorf("find room by ID %s: %w", id.String(), err)
	}

	return room, nil
}

func (r *roomRepository) FindByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]*entity.Room, error) {
	query, args, err := psql.Select(roomColumns...).
		From("rooms r").
		Where("r.room_type_id = ?", roomTypeID).
		OrderBy("r.room_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rooms by type query: %w", err)
	}

	return r.queryRooms(ctx, query, args, roomTypeID)
}

func (r *roomRepository) queryRooms(ctx context.Context, query string, args []any, roomTypeID uuid.UUID) ([]*entity.Room, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query rooms",
			zap.Error(err),
			zap.String("room_type_id", roomTypeID.String()),
		)
		return nil, fmt.Errorf("query rooms for type %s: %w", roomTypeID.String(), err)
	}
	defer rows.Close()

	rooms := []*entity.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			r.log.Error("Failed to scan room row", zap.Error(err))
			return nil, fmt.Errorf("scan room row: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room rows: %w", err)
	}

	return rooms, nil
}

func (r *roomRepository) ReserveIfAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, statuses []entity.BookingStatus) (bool, error) {
	query := `
		UPDATE rooms
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		  AND NOT EXISTS (
			SELECT 1 FROM hotel_bookings hb
			WHERE hb.room_id = rooms.id
			  AND hb.booking_status = ANY($4)
			  AND hb.check_in < $6
			  AND hb.check_out > $5
		  )
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		roomID,
		entity.RoomStatusReserved,
		entity.RoomStatusAvailable,
		bookingStatusStrings(statuses),
		checkIn,
		checkOut,
	)
	if err != nil {
		r.log.Error("Failed to reserve room",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
		)
		return false, fmt.Errorf("reserve room %s: %w", roomID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *roomRepository) Release(ctx context.Context, roomID uuid.UUID) (bool, error) {
	query := `
		UPDATE rooms
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, roomID, entity.RoomStatusAvailable, entity.RoomStatusReserved)
	if err != nil {
		r.log.Error("Failed to release room",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
		)
		return false, fmt.Errorf("release room %s: %w", roomID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func bookingStatusStrings(statuses []entity.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
