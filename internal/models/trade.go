package models

import (
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/pricing"
)

// TradeRecord is the immutable summary of a closed position. Strike fields
// are zero when the position had no leg on that side.
type TradeRecord struct {
	Open   time.Time `json:"open"`
	Close  time.Time `json:"close"`
	Expiry time.Time `json:"expiry"`

	// ShortStrike is the primary short strike: the lowest short put strike,
	// or the highest short call strike when no short put exists. LongStrike
	// mirrors that for the hedge side. With more than two legs this is a
	// lossy reporting simplification.
	ShortStrike float64 `json:"k_short"`
	LongStrike  float64 `json:"k_long"`

	Contracts   int         `json:"contracts"`
	Credit      float64     `json:"credit"`
	PnL         float64     `json:"pnl"`
	CloseReason CloseReason `json:"close_reason"`
}

// Summary converts the position into its trade record. The contract count
// reported is the quantity of the first leg; the simulator sizes all legs
// of a position uniformly.
func (p *Position) Summary() TradeRecord {
	rec := TradeRecord{
		Open:        p.OpenDate,
		Close:       p.CloseDate,
		Expiry:      p.ExpiryDate,
		Credit:      p.InitialCredit,
		PnL:         p.PnL,
		CloseReason: p.CloseReason,
	}
	if len(p.Legs) > 0 {
		rec.Contracts = p.Legs[0].Quantity
	}
	rec.ShortStrike = primaryStrike(p.Legs, Short)
	rec.LongStrike = primaryStrike(p.Legs, Long)
	return rec
}

// primaryStrike picks the reported strike for one side of the position:
// the extreme strike among that side's legs, oriented by whether the side
// holds puts (puts report toward the downside, calls toward the upside).
func primaryStrike(legs []*Leg, dir Direction) float64 {
	var sided []*Leg
	hasPut := false
	for _, leg := range legs {
		if leg.Direction != dir {
			continue
		}
		sided = append(sided, leg)
		if leg.Type == pricing.Put {
			hasPut = true
		}
	}
	if len(sided) == 0 {
		return 0
	}

	// Short puts report the lowest strike, short calls the highest; the
	// long (hedge) side mirrors that.
	wantMin := hasPut
	if dir == Long {
		wantMin = !hasPut
	}

	strike := sided[0].Strike
	for _, leg := range sided[1:] {
		if wantMin && leg.Strike < strike || !wantMin && leg.Strike > strike {
			strike = leg.Strike
		}
	}
	return strike
}
