// Package models provides the data structures for simulated option trades:
// legs, multi-leg positions and their close lifecycle, and trade records.
package models

import (
	"github.com/eddiefleurent/schrute_bucks/internal/pricing"
)

// SharesPerContract is the share multiplier of a standard option contract.
const SharesPerContract = 100.0

// Direction is the side of a leg: +1 long, -1 short.
type Direction int

const (
	// Long is a bought contract.
	Long Direction = 1
	// Short is a sold contract.
	Short Direction = -1
)

// Valid returns true if the Direction is one of the defined constants.
func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// NoiseFunc returns a small signed fraction applied multiplicatively to a
// model price to emulate micro-slippage at execution. Implementations must
// be deterministic under a fixed seed; a nil NoiseFunc disables the jitter
// entirely, which is what tests should use.
type NoiseFunc func() float64

// Leg is a single option contract within a position.
//
// EntryPrice is the per-share price recorded when the owning position is
// constructed; zero means "not yet priced" and the position will derive it
// from the pricing model. It must not be changed afterwards.
type Leg struct {
	Strike     float64
	Type       pricing.OptionType
	Direction  Direction
	Quantity   int
	EntryPrice float64

	// Noise perturbs model prices on every valuation; nil disables it.
	Noise NoiseFunc `json:"-"`
}

// CurrentPrice returns the model price per share of this leg at the given
// market state, with the moneyness skew applied to the base volatility.
func (l *Leg) CurrentPrice(s, t, r, sigma float64) float64 {
	vol := pricing.SkewAdjustedVol(sigma, l.Strike, s)
	price := pricing.Price(s, l.Strike, t, r, vol, l.Type)
	if l.Noise != nil {
		price *= 1 + l.Noise()
	}
	return price
}

// CurrentValue returns the signed dollar exposure of this leg:
// direction * price per share * 100 * quantity. Negative for short legs,
// representing a liability.
func (l *Leg) CurrentValue(s, t, r, sigma float64) float64 {
	return float64(l.Direction) * l.CurrentPrice(s, t, r, sigma) * SharesPerContract * float64(l.Quantity)
}

// EntryValue returns the signed dollar value of this leg at its recorded
// entry price.
func (l *Leg) EntryValue() float64 {
	return float64(l.Direction) * l.EntryPrice * SharesPerContract * float64(l.Quantity)
}
