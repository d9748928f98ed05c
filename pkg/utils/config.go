package utils

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Payment       PaymentConfig
	Notification  NotificationConfig
	Booking       BookingConfig
	Observability ObservabilityConfig
}

type AppConfig struct {
	Name        string
	Env         string
	Port        string
	Debug       bool
	LogPath     string
	BaseURL     string
	TimeZone    string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type AuthConfig struct {
	JWTSecret string
}

type PaymentConfig struct {
	PaystackSecret     string
	PaystackBaseURL    string
	NowPaymentsKey     string
	NowPaymentsBaseURL string
	CallbackURL        string
	Currency           string
	CryptoMinAmount    float64
	CryptoNGNPerUSD    float64
	CryptoPayCurrency  string
	TimeoutSeconds     int
	BreakerMaxFailures uint32
	BreakerOpenSeconds int
}

type NotificationConfig struct {
	Driver          string
	EmailServiceURL string
	AMQPURL         string
	Exchange        string
	RoutingKey      string
}

type BookingConfig struct {
	HoldMinutes          int
	SettlementMinutes    int
	SweepIntervalSeconds int
	DraftTTLMinutes      int
}

type ObservabilityConfig struct {
	MetricsPath  string
	OTELEnabled  bool
	OTELEndpoint string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "marketplace-booking")
	viper.SetDefault("APP_ENV", "dev")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("APP_BASE_URL", "http://localhost:3000")
	viper.SetDefault("APP_TIMEZONE", "Africa/Lagos")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	viper.SetDefault("NOWPAYMENTS_BASE_URL", "https://api.nowpayments.io")
	viper.SetDefault("PAYMENT_CURRENCY", "NGN")
	viper.SetDefault("CRYPTO_MIN_AMOUNT", 50000)
	viper.SetDefault("CRYPTO_NGN_PER_USD", 1500)
	viper.SetDefault("CRYPTO_PAY_CURRENCY", "usdttrc20")
	viper.SetDefault("PAYMENT_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PAYMENT_BREAKER_MAX_FAILURES", 5)
	viper.SetDefault("PAYMENT_BREAKER_OPEN_SECONDS", 30)
	viper.SetDefault("NOTIFY_DRIVER", "http")
	viper.SetDefault("NOTIFY_EXCHANGE", "booking.exchange")
	viper.SetDefault("NOTIFY_ROUTING_KEY", "booking.confirmed")
	viper.SetDefault("RESERVATION_HOLD_MINUTES", 30)
	viper.SetDefault("RESERVATION_SETTLEMENT_MINUTES", 1440)
	viper.SetDefault("RESERVATION_SWEEP_SECONDS", 60)
	viper.SetDefault("DRAFT_TTL_MINUTES", 30)
	viper.SetDefault("METRICS_PATH", "/metrics")
	viper.SetDefault("OTEL_ENABLED", false)
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	// .env is optional in containers, the environment wins anyway
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Env:         viper.GetString("APP_ENV"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			BaseURL:     viper.GetString("APP_BASE_URL"),
			TimeZone:    viper.GetString("APP_TIMEZONE"),
			CORSOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("JWT_SECRET"),
		},
		Payment: PaymentConfig{
			PaystackSecret:     viper.GetString("PAYSTACK_SECRET_KEY"),
			PaystackBaseURL:    viper.GetString("PAYSTACK_BASE_URL"),
			NowPaymentsKey:     viper.GetString("NOWPAYMENTS_API_KEY"),
			NowPaymentsBaseURL: viper.GetString("NOWPAYMENTS_BASE_URL"),
			CallbackURL:        viper.GetString("PAYMENT_CALLBACK_URL"),
			Currency:           viper.GetString("PAYMENT_CURRENCY"),
			CryptoMinAmount:    viper.GetFloat64("CRYPTO_MIN_AMOUNT"),
			CryptoNGNPerUSD:    viper.GetFloat64("CRYPTO_NGN_PER_USD"),
			CryptoPayCurrency:  viper.GetString("CRYPTO_PAY_CURRENCY"),
			TimeoutSeconds:     viper.GetInt("PAYMENT_TIMEOUT_SECONDS"),
			BreakerMaxFailures: viper.GetUint32("PAYMENT_BREAKER_MAX_FAILURES"),
			BreakerOpenSeconds: viper.GetInt("PAYMENT_BREAKER_OPEN_SECONDS"),
		},
		Notification: NotificationConfig{
			Driver:          viper.GetString("NOTIFY_DRIVER"),
			EmailServiceURL: viper.GetString("EMAIL_SERVICE_URL"),
			AMQPURL:         viper.GetString("RABBIT_URL"),
			Exchange:        viper.GetString("NOTIFY_EXCHANGE"),
			RoutingKey:      viper.GetString("NOTIFY_ROUTING_KEY"),
		},
		Booking: BookingConfig{
			HoldMinutes:          viper.GetInt("RESERVATION_HOLD_MINUTES"),
			SettlementMinutes:    viper.GetInt("RESERVATION_SETTLEMENT_MINUTES"),
			SweepIntervalSeconds: viper.GetInt("RESERVATION_SWEEP_SECONDS"),
			DraftTTLMinutes:      viper.GetInt("DRAFT_TTL_MINUTES"),
		},
		Observability: ObservabilityConfig{
			MetricsPath:  viper.GetString("METRICS_PATH"),
			OTELEnabled:  viper.GetBool("OTEL_ENABLED"),
			OTELEndpoint: viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	if config.Payment.CallbackURL == "" {
		config.Payment.CallbackURL = config.App.BaseURL + "/payment/callback"
	}

	return config, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
