package wire

import (
	"marketplace-booking/internal/adaptor"
	"marketplace-booking/pkg/middleware"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireDraft(
	r chi.Router,
	draftHandler *adaptor.DraftHandler,
	verifier *middleware.TokenVerifier,
	config *utils.Config,
	log *zap.Logger,
) {
	// guests may check out, a valid token only attaches the user
	r.Route("/api/drafts", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(verifier, log))

		r.Post("/", draftHandler.Create)
		r.Get("/{id}", draftHandler.Get)
		r.Put("/{id}/dates", draftHandler.SetDates)
		r.Put("/{id}/contact", draftHandler.SetContact)
		r.Post("/{id}/back", draftHandler.Back)
		r.Post("/{id}/submit", draftHandler.Submit)
	})
}
