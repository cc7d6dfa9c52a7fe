// Package pricing implements the closed-form option valuation model used by
// the simulator: Black-Scholes with a moneyness-linear volatility skew.
package pricing

import "math"

// OptionType identifies the contract type of a single option.
type OptionType string

const (
	// Put is a put option.
	Put OptionType = "put"
	// Call is a call option.
	Call OptionType = "call"
)

// Valid returns true if the OptionType is one of the defined constants.
func (t OptionType) Valid() bool {
	return t == Put || t == Call
}

// epsilon is the threshold below which volatility or time-to-expiry is
// treated as zero and the option collapses to discounted intrinsic value.
const epsilon = 1e-8

// DefaultSkewSlope is the slope of the moneyness-linear volatility skew.
// The exact value is a calibration parameter, not a market law; use
// SkewedVol to price with a different slope.
const DefaultSkewSlope = 0.4

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// Price returns the Black-Scholes price per share of a European option.
// S is the spot price, K the strike, T the time to expiry in years, r the
// risk-free rate and sigma the annualized volatility. When sigma or T is
// near zero the discounted intrinsic value is returned. The result is
// never negative.
func Price(s, k, t, r, sigma float64, typ OptionType) float64 {
	discK := k * math.Exp(-r*t)
	if sigma < epsilon || t < epsilon {
		if typ == Put {
			return math.Max(0, discK-s)
		}
		return math.Max(0, s-discK)
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	var price float64
	switch typ {
	case Put:
		price = discK*normCDF(-d2) - s*normCDF(-d1)
	case Call:
		price = s*normCDF(d1) - discK*normCDF(d2)
	default:
		price = 0
	}
	return math.Max(0, price)
}

// SkewedVol adjusts a base volatility for strike moneyness with an explicit
// slope: sigma * (1 + slope*(K-S)/S). With a positive slope, strikes below
// spot price at a lower vol than strikes above it.
func SkewedVol(sigma, k, s, slope float64) float64 {
	return sigma * (1 + slope*((k-s)/s))
}

// SkewAdjustedVol applies the default skew slope.
func SkewAdjustedVol(sigma, k, s float64) float64 {
	return SkewedVol(sigma, k, s, DefaultSkewSlope)
}
