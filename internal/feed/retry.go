package feed

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/series"
	"github.com/sirupsen/logrus"
)

// RetryConfig tunes the retry loop around a flaky provider.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig is a conservative three-attempt policy.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
}

// RetryProvider wraps a Provider with backoff-and-jitter retries on
// transient failures. Permanent failures, including missing data, return
// immediately.
type RetryProvider struct {
	provider Provider
	logger   *logrus.Logger
	config   RetryConfig
}

// Compile-time check that RetryProvider satisfies Provider.
var _ Provider = (*RetryProvider)(nil)

// NewRetryProvider wraps provider; omit config to use the default policy.
func NewRetryProvider(provider Provider, logger *logrus.Logger, config ...RetryConfig) *RetryProvider {
	cfg := DefaultRetryConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RetryProvider{provider: provider, logger: logger, config: cfg}
}

// Prices retries the underlying provider on transient errors.
func (p *RetryProvider) Prices(ctx context.Context, symbol string, start, end time.Time) (*series.Series, error) {
	var lastErr error
	backoff := p.config.InitialBackoff

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("price fetch canceled: %w", err)
		}

		s, err := p.provider.Prices(ctx, symbol, start, end)
		if err == nil {
			return s, nil
		}
		lastErr = err

		if !isTransientError(err) || attempt == p.config.MaxRetries {
			break
		}

		p.logger.WithError(err).WithFields(logrus.Fields{
			"symbol":  symbol,
			"attempt": attempt + 1,
			"backoff": backoff,
		}).Warn("Transient price feed error, retrying")

		select {
		case <-time.After(backoff):
			backoff = nextBackoff(backoff, p.config.MaxBackoff)
		case <-ctx.Done():
			return nil, fmt.Errorf("price fetch canceled during backoff: %w", ctx.Err())
		}
	}

	return nil, lastErr
}

// nextBackoff grows the delay by half with a random jitter, capped.
func nextBackoff(current, max time.Duration) time.Duration {
	backoff := time.Duration(float64(current) * 1.5)
	if backoff > max {
		backoff = max
	}

	maxJitter := int64(backoff / 4)
	if maxJitter > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(maxJitter)); err == nil {
			backoff += time.Duration(jitter.Int64())
		}
	}
	return backoff
}

// isTransientError matches the failure modes worth retrying. Missing data
// is permanent.
func isTransientError(err error) bool {
	if err == nil || errors.Is(err, ErrNoData) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"rate limit",
		"429",
		"502",
		"503",
		"504",
		"network",
		"dns",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
