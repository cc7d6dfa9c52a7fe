package filter

import (
	"testing"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAllows_NilAndZeroConfig(t *testing.T) {
	var nilCfg *Config
	assert.True(t, nilCfg.Allows(day(2024, time.March, 1), day(2024, time.March, 31), "SPY"))

	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Allows(day(2024, time.March, 1), day(2024, time.March, 31), "SPY"))
}

func TestAllows_SkipWeekdays(t *testing.T) {
	cfg := &Config{SkipWeekdays: []string{"Monday", "fri"}}
	require.NoError(t, cfg.Validate())

	monday := day(2024, time.March, 4)
	friday := day(2024, time.March, 8)
	tuesday := day(2024, time.March, 5)

	expiry := day(2024, time.April, 5)
	assert.False(t, cfg.Allows(monday, expiry, "SPY"))
	assert.False(t, cfg.Allows(friday, expiry, "SPY"))
	assert.True(t, cfg.Allows(tuesday, expiry, "SPY"))
}

func TestAllows_MaxDaysBeforeExpiry(t *testing.T) {
	cfg := &Config{MaxDaysBeforeExpiry: 30}
	require.NoError(t, cfg.Validate())

	entry := day(2024, time.March, 1)
	assert.True(t, cfg.Allows(entry, entry.AddDate(0, 0, 30), "SPY"))
	assert.False(t, cfg.Allows(entry, entry.AddDate(0, 0, 45), "SPY"))
}

func TestAllows_EarningsBuffer(t *testing.T) {
	cfg := &Config{
		EarningsBufferDays: 3,
		EarningsCalendar:   map[string][]string{"spy": {"2024-03-10"}},
	}
	require.NoError(t, cfg.Validate())

	expiry := day(2024, time.April, 10)
	assert.False(t, cfg.Allows(day(2024, time.March, 9), expiry, "SPY"), "inside buffer")
	assert.False(t, cfg.Allows(day(2024, time.March, 13), expiry, "SPY"), "buffer is symmetric")
	assert.True(t, cfg.Allows(day(2024, time.March, 20), expiry, "SPY"))
	assert.True(t, cfg.Allows(day(2024, time.March, 9), expiry, "QQQ"), "other tickers unaffected")
}

func TestValidate_Errors(t *testing.T) {
	assert.Error(t, (&Config{SkipWeekdays: []string{"smarch"}}).Validate())
	assert.Error(t, (&Config{MaxDaysBeforeExpiry: -1}).Validate())
	assert.Error(t, (&Config{
		EarningsBufferDays: 2,
		EarningsCalendar:   map[string][]string{"SPY": {"03/10/2024"}},
	}).Validate())
}

func TestApply_PrunesTrades(t *testing.T) {
	cfg := &Config{SkipWeekdays: []string{"monday"}}
	require.NoError(t, cfg.Validate())

	trades := []models.TradeRecord{
		{Open: day(2024, time.March, 4), Expiry: day(2024, time.April, 5)}, // Monday
		{Open: day(2024, time.March, 5), Expiry: day(2024, time.April, 5)},
	}

	kept := cfg.Apply(trades, "SPY")
	require.Len(t, kept, 1)
	assert.Equal(t, day(2024, time.March, 5), kept[0].Open)
}
