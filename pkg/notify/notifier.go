// Package notify delivers booking confirmation messages to the email service,
// either over HTTP or through a RabbitMQ exchange.
package notify

import (
	"context"

	"go.uber.org/zap"
)

type ConfirmationMessage struct {
	BookingID   string  `json:"bookingId"`
	BookingType string  `json:"bookingType"`
	GuestName   string  `json:"guestName"`
	GuestEmail  string  `json:"guestEmail"`
	TotalAmount float64 `json:"totalAmount"`
	Currency    string  `json:"currency"`
	Reference   string  `json:"reference,omitempty"`
}

type Notifier interface {
	SendConfirmation(ctx context.Context, msg ConfirmationMessage) error
}

// LogNotifier only logs. Used when no email service is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) SendConfirmation(_ context.Context, msg ConfirmationMessage) error {
	n.log.Info("Confirmation email skipped, no email service configured",
		zap.String("booking_id", msg.BookingID),
		zap.String("booking_type", msg.BookingType),
	)
	return nil
}
