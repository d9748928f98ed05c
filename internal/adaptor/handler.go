package adaptor

import (
	"errors"
	"net/http"
	"time"

	"marketplace-booking/internal/usecase"
	"marketplace-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Availability *AvailabilityHandler
	Draft        *DraftHandler
	Payment      *PaymentHandler
	Order        *OrderHandler
	Booking      *BookingHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	loc := utils.LoadLocation(config.App.TimeZone)

	return &Handler{
		Availability: NewAvailabilityHandler(service.Availability, loc, log),
		Draft:        NewDraftHandler(service.Draft, loc, log),
		Payment:      NewPaymentHandler(service.Payment, log),
		Order:        NewOrderHandler(service.Confirmation, log),
		Booking:      NewBookingHandler(service.Booking, log),
	}
}

// respondServiceError maps usecase errors onto the response envelope.
func respondServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validationErr *usecase.ValidationError

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed",
			zap.Any("errors", validationErr.Fields),
			zap.String("operation", operation))
		utils.ResponseUnprocessable(w, "Validation failed", validationErr.Fields)

	case errors.Is(err, usecase.ErrInvalidBookingID):
		log.Warn("Invalid input for "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)

	case errors.Is(err, usecase.ErrBookingNotFound):
		utils.ResponseNotFound(w, "Booking not found")

	case errors.Is(err, usecase.ErrDraftNotFound):
		utils.ResponseNotFound(w, "Draft not found or expired")

	case errors.Is(err, usecase.ErrResourceNotFound):
		utils.ResponseNotFound(w, "Listing not found")

	case errors.Is(err, usecase.ErrUnitNoLongerAvailable):
		log.Warn(operation+" failed - unit taken",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, "This unit is no longer available, please choose other dates")

	case errors.Is(err, usecase.ErrSubmitInProgress):
		utils.ResponseConflict(w, "Your booking is already being processed")

	case errors.Is(err, usecase.ErrInvalidStep):
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrPaymentMethodUnavailable):
		utils.ResponseUnprocessable(w, "Validation failed", map[string]string{"payment_method": err.Error()})

	case errors.Is(err, usecase.ErrPaymentInitFailed):
		log.Error(operation+" failed - payment provider",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadGateway(w, "Payment initialization failed, please try again")

	case errors.Is(err, usecase.ErrInvalidSignature):
		log.Warn(operation+" rejected - bad signature", zap.String("operation", operation))
		utils.ResponseUnauthorized(w, "Invalid signature")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// parseDateParam parses an optional YYYY-MM-DD value. Empty input yields nil.
func parseDateParam(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
