package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const NotificationConfirmationEmail NotificationKind = "confirmation_email"

// BookingNotification marks a notification as claimed for a booking so it is sent once.
type BookingNotification struct {
	BookingID uuid.UUID        `db:"booking_id"`
	Kind      NotificationKind `db:"kind"`
	CreatedAt time.Time        `db:"created_at"`
}
