package feed

import (
	"context"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/series"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerProvider wraps a Provider with circuit breaker functionality so a
// flaky data source fails fast instead of stalling a sweep.
type BreakerProvider struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// Compile-time check that BreakerProvider satisfies Provider.
var _ Provider = (*BreakerProvider)(nil)

// BreakerSettings configures circuit breaker behavior.
type BreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewBreakerProvider wraps provider with sensible defaults.
func NewBreakerProvider(provider Provider, logger *logrus.Logger) *BreakerProvider {
	return NewBreakerProviderWithSettings(provider, logger, BreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewBreakerProviderWithSettings wraps provider with custom settings.
func NewBreakerProviderWithSettings(provider Provider, logger *logrus.Logger, settings BreakerSettings) *BreakerProvider {
	gbSettings := gobreaker.Settings{
		Name:        "PriceFeedCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Circuit breaker state changed")
			}
		},
	}

	return &BreakerProvider{
		provider: provider,
		breaker:  gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// Prices wraps the underlying provider call with the circuit breaker.
func (b *BreakerProvider) Prices(ctx context.Context, symbol string, start, end time.Time) (*series.Series, error) {
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.provider.Prices(ctx, symbol, start, end)
	})
	if err != nil {
		return nil, err
	}
	s, _ := res.(*series.Series)
	return s, nil
}
