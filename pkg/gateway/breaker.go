package gateway

import (
	"errors"
	"fmt"
	"time"

	"marketplace-booking/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const metricsService = "marketplace-booking"

// Breaker wraps gobreaker and mirrors its state into Prometheus.
type Breaker struct {
	*gobreaker.CircuitBreaker
	name string
}

func NewBreaker(name string, maxFailures uint32, openTimeout time.Duration, log *zap.Logger) *Breaker {
	if maxFailures == 0 {
		maxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(metricsService, cbName).Set(stateValue(to))

			log.Info("Circuit breaker state changed",
				zap.String("circuit", cbName),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	metrics.CircuitBreakerState.WithLabelValues(metricsService, name).Set(0)

	return &Breaker{CircuitBreaker: cb, name: name}
}

// Execute runs fn through the breaker and counts failures.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	result, err := b.CircuitBreaker.Execute(fn)
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(metricsService, b.name).Inc()
		return nil, formatBreakerError(b.name, err)
	}
	return result, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	}
	return 0
}

func formatBreakerError(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("circuit breaker %s is open: %w", name, err)
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker %s: too many requests in half-open state: %w", name, err)
	}
	return err
}
