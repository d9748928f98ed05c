package wire

import (
	"marketplace-booking/internal/adaptor"
	"marketplace-booking/pkg/middleware"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// roles allowed to trigger confirmation emails
var notificationRoles = []string{"admin", "service"}

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	verifier *middleware.TokenVerifier,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/payments", func(r chi.Router) {
		// POST /api/payments/verify - re-query the provider for a reference
		r.Post("/verify", paymentHandler.Verify)

		// GET /api/payments/callback - provider return URL
		r.Get("/callback", paymentHandler.Callback)

		// POST /api/payments/webhook/paystack - signed server-to-server notification
		r.Post("/webhook/paystack", paymentHandler.PaystackWebhook)
	})

	// POST /api/notifications/confirmation - resend trigger used by the email service
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier, log))
		r.Use(middleware.RequireRole(log, notificationRoles...))

		r.Post("/api/notifications/confirmation", paymentHandler.SendConfirmation)
	})
}
