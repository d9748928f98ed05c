package wire

import (
	"marketplace-booking/internal/adaptor"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireOrder(
	r chi.Router,
	orderHandler *adaptor.OrderHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// GET /api/orders/{id}/confirmation - public, the booking id is the capability
	r.Get("/api/orders/{id}/confirmation", orderHandler.Confirmation)
}
