package models

import (
	"testing"

	"github.com/eddiefleurent/schrute_bucks/internal/pricing"
	"github.com/stretchr/testify/assert"
)

func TestLegCurrentPrice_AppliesSkew(t *testing.T) {
	leg := &Leg{Strike: 95, Type: pricing.Put, Direction: Short, Quantity: 1}

	got := leg.CurrentPrice(100, 30.0/365.25, 0.03, 0.20)
	want := pricing.Price(100, 95, 30.0/365.25, 0.03, pricing.SkewAdjustedVol(0.20, 95, 100), pricing.Put)
	assert.InDelta(t, want, got, 1e-12)

	// Below-spot strike carries less vol than the base, so the skewed price
	// is below the unskewed one.
	unskewed := pricing.Price(100, 95, 30.0/365.25, 0.03, 0.20, pricing.Put)
	assert.Less(t, got, unskewed)
}

func TestLegCurrentValue_SignAndScale(t *testing.T) {
	short := &Leg{Strike: 95, Type: pricing.Put, Direction: Short, Quantity: 2}
	long := &Leg{Strike: 95, Type: pricing.Put, Direction: Long, Quantity: 2}

	sv := short.CurrentValue(100, 0.1, 0.03, 0.2)
	lv := long.CurrentValue(100, 0.1, 0.03, 0.2)

	assert.Negative(t, sv, "short leg value is a liability")
	assert.Positive(t, lv)
	assert.InDelta(t, -sv, lv, 1e-9)

	price := short.CurrentPrice(100, 0.1, 0.03, 0.2)
	assert.InDelta(t, -price*SharesPerContract*2, sv, 1e-9)
}

func TestLegNoise_PerturbsPrice(t *testing.T) {
	base := &Leg{Strike: 95, Type: pricing.Put, Direction: Short, Quantity: 1}
	noisy := &Leg{Strike: 95, Type: pricing.Put, Direction: Short, Quantity: 1,
		Noise: func() float64 { return 0.01 }}

	clean := base.CurrentPrice(100, 0.1, 0.03, 0.2)
	bumped := noisy.CurrentPrice(100, 0.1, 0.03, 0.2)
	assert.InDelta(t, clean*1.01, bumped, 1e-12)
}

func TestLegEntryValue(t *testing.T) {
	leg := &Leg{Strike: 95, Type: pricing.Put, Direction: Short, Quantity: 3, EntryPrice: 1.5}
	assert.InDelta(t, -1.5*SharesPerContract*3, leg.EntryValue(), 1e-12)
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, Long.Valid())
	assert.True(t, Short.Valid())
	assert.False(t, Direction(0).Valid())
	assert.False(t, Direction(2).Valid())
}
