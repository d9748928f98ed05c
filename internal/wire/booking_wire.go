package wire

import (
	"marketplace-booking/internal/adaptor"
	"marketplace-booking/pkg/middleware"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	verifier *middleware.TokenVerifier,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier, log))

		// GET /api/user/bookings?kind&page&per_page - customer's booking history
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})
}
