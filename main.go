package main

import (
	"context"
	"log"
	"time"

	"marketplace-booking/cmd"
	"marketplace-booking/internal/data/entity"
	"marketplace-booking/internal/data/repository"
	"marketplace-booking/internal/usecase"
	"marketplace-booking/internal/wire"
	"marketplace-booking/pkg/database"
	"marketplace-booking/pkg/gateway"
	"marketplace-booking/pkg/notify"
	"marketplace-booking/pkg/obs"
	"marketplace-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("env", config.App.Env),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if config.Observability.OTELEnabled {
		shutdownTracer, err := obs.InitTracer(ctx, config.App.Name, config.Observability.OTELEndpoint, config.App.Env)
		if err != nil {
			logger.Warn("Tracing disabled, exporter init failed", zap.Error(err))
		} else {
			defer shutdownTracer(context.Background())
		}
	}

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	notifier, closeNotifier := buildNotifier(config.Notification, logger)
	defer closeNotifier()

	paystack, nowPayments := buildGateways(config.Payment, logger)

	deps := usecase.Dependencies{
		Tx: database.NewTxManager(db),
		Gateways: map[entity.PaymentProvider]gateway.Gateway{
			entity.PaymentProviderPaystack:    paystack,
			entity.PaymentProviderNowPayments: nowPayments,
		},
		Webhook:  paystack,
		Notifier: notifier,
		Drafts:   usecase.NewMemoryDraftStore(time.Duration(config.Booking.DraftTTLMinutes) * time.Minute),
		Clock:    usecase.SystemClock(),
	}

	app := wire.Wiring(repos, deps, config, logger)

	go app.Service.Expiry.Run(ctx)

	err = cmd.APIServer(app.Router, config.App.Port, logger, func(ctx context.Context) {
		stopWorkers()
		app.Service.Payment.Wait()
	})
	if err != nil {
		logger.Error("Server exited with error", zap.Error(err))
	}
}

func buildGateways(config utils.PaymentConfig, logger *zap.Logger) (*gateway.Paystack, *gateway.NowPayments) {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	openFor := time.Duration(config.BreakerOpenSeconds) * time.Second

	paystack := gateway.NewPaystack(gateway.PaystackConfig{
		SecretKey: config.PaystackSecret,
		BaseURL:   config.PaystackBaseURL,
		Timeout:   timeout,
	}, gateway.NewBreaker("paystack", config.BreakerMaxFailures, openFor, logger), logger)

	nowPayments := gateway.NewNowPayments(gateway.NowPaymentsConfig{
		APIKey:      config.NowPaymentsKey,
		BaseURL:     config.NowPaymentsBaseURL,
		PayCurrency: config.CryptoPayCurrency,
		NGNPerUSD:   config.CryptoNGNPerUSD,
		Timeout:     timeout,
	}, gateway.NewBreaker("nowpayments", config.BreakerMaxFailures, openFor, logger), logger)

	return paystack, nowPayments
}

func buildNotifier(config utils.NotificationConfig, logger *zap.Logger) (notify.Notifier, func()) {
	switch config.Driver {
	case "amqp":
		pub, err := notify.NewPublisher(config.AMQPURL, config.Exchange, config.RoutingKey)
		if err != nil {
			logger.Error("RabbitMQ unavailable, confirmation emails will only be logged", zap.Error(err))
			return notify.NewLogNotifier(logger), func() {}
		}
		return pub, func() {
			if err := pub.Close(); err != nil {
				logger.Warn("Failed to close RabbitMQ publisher", zap.Error(err))
			}
		}
	case "http":
		if config.EmailServiceURL != "" {
			return notify.NewHTTPNotifier(config.EmailServiceURL, 10*time.Second), func() {}
		}
	}
	return notify.NewLogNotifier(logger), func() {}
}
