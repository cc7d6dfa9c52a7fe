// Package sizing maps available capital and an allocation target to an
// integer contract quantity for a candidate set of legs.
package sizing

import (
	"github.com/eddiefleurent/schrute_bucks/internal/models"
	"github.com/eddiefleurent/schrute_bucks/internal/pricing"
)

// Policy selects how a sub-one-contract allocation is handled. Two sizing
// conventions exist in the wild; rather than silently preferring one, the
// choice is explicit configuration.
type Policy string

const (
	// PolicyMinOne always opens at least one contract when the legs carry
	// positive risk, even if the allocation target cannot cover it.
	PolicyMinOne Policy = "min_one"
	// PolicyStrict opens nothing when the allocation target is below the
	// estimated risk of a single contract.
	PolicyStrict Policy = "strict"
)

// Valid returns true if the Policy is one of the defined constants.
func (p Policy) Valid() bool {
	return p == PolicyMinOne || p == PolicyStrict
}

// fallbackRiskPerContract stands in for the per-contract risk estimate when
// the candidate legs contain no short put to anchor it.
const fallbackRiskPerContract = 1000.0

// Sizer computes contract quantities under a fixed policy.
type Sizer struct {
	Policy Policy
}

// Size returns the contract quantity for the candidate legs given total
// capital and an allocation fraction (0.02 = 2%). It returns 0 when there
// are no legs or the risk estimate is not positive; otherwise the result
// is non-negative, and at least 1 under PolicyMinOne.
func (z Sizer) Size(capital, allocationPct float64, legs []*models.Leg) int {
	if len(legs) == 0 {
		return 0
	}
	risk := RiskPerContract(legs)
	if risk <= 0 {
		return 0
	}

	target := capital * allocationPct
	n := int(target / risk)
	if n < 0 {
		n = 0
	}
	if n < 1 && z.Policy != PolicyStrict {
		n = 1
	}
	return n
}

// RiskPerContract estimates the dollar risk of one contract of the
// candidate legs: 100x the highest short put strike (the assignment value
// of the riskiest short put), or a fixed fallback when no short put exists.
func RiskPerContract(legs []*models.Leg) float64 {
	maxStrike := 0.0
	found := false
	for _, leg := range legs {
		if leg.Direction == models.Short && leg.Type == pricing.Put && leg.Strike > maxStrike {
			maxStrike = leg.Strike
			found = true
		}
	}
	if !found {
		return fallbackRiskPerContract
	}
	return maxStrike * models.SharesPerContract
}
