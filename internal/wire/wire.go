package wire

import (
	"net/http"

	"marketplace-booking/internal/adaptor"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/internal/usecase"
	"marketplace-booking/pkg/metrics"
	"marketplace-booking/pkg/middleware"
	"marketplace-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and the services background workers need.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes.
func Wiring(repo *repository.Repository, deps usecase.Dependencies, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, deps, config, logger)
	handler := adaptor.NewHandler(service, config, logger)
	verifier := middleware.NewTokenVerifier(config.Auth.JWTSecret)

	router := setupRouter(handler, verifier, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	verifier *middleware.TokenVerifier,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(corsHandler(config.App.CORSOrigins))
	r.Use(metrics.Middleware(config.App.Name))

	wireAvailability(r, handler.Availability, config, logger)
	wireDraft(r, handler.Draft, verifier, config, logger)
	wirePayment(r, handler.Payment, verifier, config, logger)
	wireOrder(r, handler.Order, config, logger)
	wireBooking(r, handler.Booking, verifier, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	metricsPath := config.Observability.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.Handle(metricsPath, promhttp.Handler())

	return r
}

// corsHandler lets the storefront origins call the API with credentials. Without a configured
// list any origin may call it, but never with credentials.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Paystack-Signature"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           300,
	})
}
