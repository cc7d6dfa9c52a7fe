package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/series"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, symbol, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(body), 0o600))
}

func TestCSVProvider_Prices(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "SPY", `date,close
2024-01-02,470.00
2024-01-03,468.50
2024-01-03,999.99
2024-01-04,472.25
2024-01-05,473.10
`)

	p := NewCSVProvider(dir)
	s, err := p.Prices(context.Background(),
		"spy",
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Equal(t, 2, s.Len())
	assert.Equal(t, 468.50, s.Value(0), "duplicate dates keep the first row")
	assert.Equal(t, 472.25, s.Value(1))
}

func TestCSVProvider_MissingSymbol(t *testing.T) {
	p := NewCSVProvider(t.TempDir())
	_, err := p.Prices(context.Background(), "QQQ",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "QQQ")
}

func TestCSVProvider_EmptyWindow(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "SPY", "date,close\n2024-01-02,470.00\n")

	p := NewCSVProvider(dir)
	_, err := p.Prices(context.Background(), "SPY",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCSVProvider_BadDate(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "SPY", "date,close\n01/02/2024,470.00\n")

	p := NewCSVProvider(dir)
	_, err := p.Prices(context.Background(), "SPY",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

type stubProvider struct {
	s     *series.Series
	err   error
	calls int
}

func (p *stubProvider) Prices(context.Context, string, time.Time, time.Time) (*series.Series, error) {
	p.calls++
	return p.s, p.err
}

func TestRetryProvider_PermanentErrorNotRetried(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	missing := &stubProvider{err: &RangeError{Symbol: "SPY", Start: start, End: start}}

	rp := NewRetryProvider(missing, nil, RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})
	_, err := rp.Prices(context.Background(), "SPY", start, start)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 1, missing.calls, "missing data is not transient")
}

func TestRetryProvider_TransientErrorRetried(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	flaky := &stubProvider{err: errors.New("connection reset by peer")}

	rp := NewRetryProvider(flaky, nil, RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})
	_, err := rp.Prices(context.Background(), "SPY", start, start)
	require.Error(t, err)
	assert.Equal(t, 3, flaky.calls, "initial attempt plus two retries")
}

func TestBreakerProvider_PassThrough(t *testing.T) {
	dates := []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	s, err := series.New(dates, []float64{470})
	require.NoError(t, err)

	bp := NewBreakerProvider(&stubProvider{s: s}, nil)
	got, err := bp.Prices(context.Background(), "SPY", dates[0], dates[0])
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestBreakerProvider_TripsOpen(t *testing.T) {
	failing := &stubProvider{err: errors.New("boom")}
	bp := NewBreakerProviderWithSettings(failing, nil, BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var err error
	for i := 0; i < 5; i++ {
		_, err = bp.Prices(context.Background(), "SPY", start, start)
	}
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
