package wire

import (
	"marketplace-booking/internal/adaptor"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAvailability(
	r chi.Router,
	availabilityHandler *adaptor.AvailabilityHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/availability", func(r chi.Router) {
		// GET /api/availability/rooms?room_type_id&check_in&check_out
		r.Get("/rooms", availabilityHandler.Rooms)

		// GET /api/availability/apartments/{id}?check_in&check_out
		r.Get("/apartments/{id}", availabilityHandler.Apartment)

		// GET /api/availability/events/{id}?quantity
		r.Get("/events/{id}", availabilityHandler.Event)
	})
}
