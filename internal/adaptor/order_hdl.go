package adaptor

import (
	"net/http"

	"marketplace-booking/internal/dto/response"
	"marketplace-booking/internal/usecase"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service usecase.ConfirmationService
	log     *zap.Logger
}

func NewOrderHandler(service usecase.ConfirmationService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.With(zap.String("handler", "order")),
	}
}

// Confirmation handles GET /api/orders/{id}/confirmation
func (h *OrderHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	confirmation, err := h.service.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.log, err, "resolve order confirmation")
		return
	}

	utils.ResponseSuccess(w, "success", confirmationToResponse(confirmation))
}

func confirmationToResponse(c *usecase.Confirmation) response.ConfirmationResponse {
	resp := response.ConfirmationResponse{
		Type:    c.Kind,
		Booking: response.BookingToResponse(c.Booking),
		Payment: response.PaymentToResponse(c.Payment),
	}

	if c.RoomType != nil {
		resp.Listing.HotelName = c.RoomType.HotelName
		resp.Listing.RoomTypeName = c.RoomType.Name
	}
	if c.Room != nil {
		resp.Listing.RoomNumber = c.Room.RoomNumber
	}
	if c.Apartment != nil {
		resp.Listing.Apartment = c.Apartment.Name
		resp.Listing.City = c.Apartment.City
	}
	if c.Event != nil {
		resp.Listing.EventTitle = c.Event.Title
		resp.Listing.Venue = c.Event.Venue
	}

	return resp
}
