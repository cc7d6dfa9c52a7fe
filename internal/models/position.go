package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// CloseReason records which exit rule closed a position. A position closes
// exactly once: expiry dominates the PnL rules on the same day, and the
// profit target is evaluated before the stop loss.
type CloseReason string

const (
	// CloseReasonExpired means the position reached its expiration date.
	CloseReasonExpired CloseReason = "expired"
	// CloseReasonProfitTarget means the running PnL reached the profit target.
	CloseReasonProfitTarget CloseReason = "profit_target"
	// CloseReasonStopLoss means the running PnL breached the stop loss.
	CloseReasonStopLoss CloseReason = "stop_loss"
)

// Valid returns true if the CloseReason is one of the defined constants.
func (r CloseReason) Valid() bool {
	switch r {
	case CloseReasonExpired, CloseReasonProfitTarget, CloseReasonStopLoss:
		return true
	default:
		return false
	}
}

// nearZeroCredit is the threshold below which the initial credit is too
// small for the PnL exit rules to be numerically meaningful.
const nearZeroCredit = 1e-6

// daysPerYear converts calendar days into year fractions for pricing.
const daysPerYear = 365.25

// minTimeToExpiry keeps the entry-time year fraction strictly positive.
const minTimeToExpiry = 1e-6

// Position is one strategy instance: an aggregate of legs opened on the
// same day, marked to market once per simulated day until one of the exit
// rules closes it.
type Position struct {
	ID         string    `json:"id"`
	OpenDate   time.Time `json:"open_date"`
	ExpiryDate time.Time `json:"expiry_date"`
	Legs       []*Leg    `json:"legs"`

	// ProfitTargetPct is the profit target as a fraction of initial credit
	// (0.5 closes at 50% of max profit). StopLossMult is the loss threshold
	// as a multiple of initial credit.
	ProfitTargetPct float64 `json:"profit_target_pct"`
	StopLossMult    float64 `json:"stop_loss_mult"`

	// EntryValue is the signed sum of leg values at entry; negative for net
	// premium received. InitialCredit is its absolute value, always >= 0.
	EntryValue    float64 `json:"entry_value"`
	InitialCredit float64 `json:"initial_credit"`

	Closed      bool        `json:"closed"`
	CloseDate   time.Time   `json:"close_date,omitempty"`
	PnL         float64     `json:"pnl"`
	CloseReason CloseReason `json:"close_reason,omitempty"`
}

// NewPosition creates a position from its legs and the market state on the
// open date. Legs whose EntryPrice is unset are priced from the model
// (skew-adjusted) at the entry state; the aggregate entry value and initial
// credit are fixed here and never recomputed.
func NewPosition(openDate, expiryDate time.Time, legs []*Leg, profitTargetPct, stopLossMult, entryS, entrySigma, entryR float64) *Position {
	tEntry := math.Max(minTimeToExpiry, float64(daysBetween(openDate, expiryDate))/daysPerYear)

	p := &Position{
		ID:              uuid.NewString(),
		OpenDate:        openDate,
		ExpiryDate:      expiryDate,
		Legs:            legs,
		ProfitTargetPct: profitTargetPct,
		StopLossMult:    stopLossMult,
	}

	for _, leg := range legs {
		if leg.EntryPrice == 0 {
			leg.EntryPrice = leg.CurrentPrice(entryS, tEntry, entryR, entrySigma)
		}
		p.EntryValue += leg.EntryValue()
	}
	p.InitialCredit = math.Abs(p.EntryValue)

	return p
}

// HasNearZeroCredit reports whether the initial credit is too small for the
// profit-target and stop-loss checks to behave; such positions only close
// at expiry.
func (p *Position) HasNearZeroCredit() bool {
	return p.InitialCredit < nearZeroCredit
}

// Contracts returns the total contract count across all legs.
func (p *Position) Contracts() int {
	total := 0
	for _, leg := range p.Legs {
		total += leg.Quantity
	}
	return total
}

// CurrentValue returns the mark-to-market dollar value of the position at
// the given market state, or 0 once closed.
func (p *Position) CurrentValue(s float64, today time.Time, r, sigma float64) float64 {
	if p.Closed {
		return 0
	}

	remaining := daysBetween(today, p.ExpiryDate)
	tRemaining := 0.0
	if remaining > 0 {
		tRemaining = float64(remaining) / daysPerYear
	}

	value := 0.0
	for _, leg := range p.Legs {
		value += leg.CurrentValue(s, tRemaining, r, sigma)
	}
	return value
}

// CurrentPnL returns the unrealized PnL at the given market state, or the
// realized PnL once closed.
func (p *Position) CurrentPnL(s float64, today time.Time, r, sigma float64) float64 {
	if p.Closed {
		return p.PnL
	}
	return p.CurrentValue(s, today, r, sigma) - p.EntryValue
}

// UpdateAndMaybeClose marks the position to market for one simulated day
// and applies the exit rules. Expiry is checked first and dominates the
// PnL rules; the profit target is checked before the stop loss, and both
// lock the realized PnL at exactly the threshold value rather than the raw
// mark. Calling it on a closed position is a no-op.
func (p *Position) UpdateAndMaybeClose(s float64, today time.Time, r, sigma float64) {
	if p.Closed {
		return
	}

	if !today.Before(p.ExpiryDate) {
		// Final PnL at expiry is the intrinsic-value mark (T=0).
		pnl := p.CurrentPnL(s, p.ExpiryDate, r, sigma)
		closeDate := today
		if p.ExpiryDate.Before(today) {
			closeDate = p.ExpiryDate
		}
		p.close(closeDate, CloseReasonExpired, pnl)
		return
	}

	runningPnL := p.CurrentPnL(s, today, r, sigma)

	if p.HasNearZeroCredit() {
		return
	}

	if target := p.ProfitTargetPct * p.InitialCredit; runningPnL >= target {
		p.close(today, CloseReasonProfitTarget, target)
		return
	}
	if stop := -p.StopLossMult * p.InitialCredit; runningPnL <= stop {
		p.close(today, CloseReasonStopLoss, stop)
	}
}

func (p *Position) close(date time.Time, reason CloseReason, pnl float64) {
	if p.Closed {
		return
	}
	p.Closed = true
	p.CloseDate = date
	p.CloseReason = reason
	p.PnL = pnl
}

// daysBetween returns whole calendar days from one date to another,
// truncating both to UTC midnight.
func daysBetween(from, to time.Time) int {
	f := from.UTC().Truncate(24 * time.Hour)
	t := to.UTC().Truncate(24 * time.Hour)
	return int(t.Sub(f).Hours() / 24)
}
