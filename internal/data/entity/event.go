package entity

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	Base
	VendorID    uuid.UUID `db:"vendor_id"`
	Title       string    `db:"title"`
	Venue       string    `db:"venue"`
	EventDate   time.Time `db:"event_date"`
	TicketPrice float64   `db:"ticket_price"`
	Capacity    int       `db:"capacity"`
	TicketsSold int       `db:"tickets_sold"`
}

func (e *Event) TicketsLeft() int {
	left := e.Capacity - e.TicketsSold
	if left < 0 {
		return 0
	}
	return left
}
