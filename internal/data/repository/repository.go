package repository

import (
	"marketplace-booking/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

// psql builds postgres statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repository struct {
	RoomType         RoomTypeRepository
	Room             RoomRepository
	Apartment        ApartmentRepository
	Event            EventRepository
	HotelBooking     HotelBookingRepository
	ApartmentBooking ApartmentBookingRepository
	EventBooking     EventBookingRepository
	BookingIndex     BookingIndexRepository
	Payment          PaymentRepository
	Notification     NotificationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		RoomType:         NewRoomTypeRepository(db, log),
		Room:             NewRoomRepository(db, log),
		Apartment:        NewApartmentRepository(db, log),
		Event:            NewEventRepository(db, log),
		HotelBooking:     NewHotelBookingRepository(db, log),
		ApartmentBooking: NewApartmentBookingRepository(db, log),
		EventBooking:     NewEventBookingRepository(db, log),
		BookingIndex:     NewBookingIndexRepository(db, log),
		Payment:          NewPaymentRepository(db, log),
		Notification:     NewNotificationRepository(db, log),
	}
}
