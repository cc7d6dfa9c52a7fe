// Package filter implements the post-hoc calendar filter applied to a
// completed trade list. The simulation engine itself never filters entries;
// callers prune the trades it returns.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/models"
)

// Config holds the calendar rules. The zero value allows everything.
type Config struct {
	// SkipWeekdays lists weekday names ("monday", "fri") whose entries are
	// rejected.
	SkipWeekdays []string `yaml:"skip_weekdays,omitempty"`
	// MaxDaysBeforeExpiry rejects entries opened more than this many
	// calendar days before expiry; 0 disables the rule.
	MaxDaysBeforeExpiry int `yaml:"max_days_before_expiry,omitempty"`
	// EarningsBufferDays rejects entries within this many days of a known
	// earnings date for the ticker; 0 disables the rule.
	EarningsBufferDays int `yaml:"earnings_buffer_days,omitempty"`
	// EarningsCalendar maps tickers to ISO earnings dates.
	EarningsCalendar map[string][]string `yaml:"earnings_calendar,omitempty"`

	skip     map[time.Weekday]bool
	earnings map[string][]time.Time
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Validate parses the rule strings and rejects unknown weekday names or
// malformed earnings dates. It must be called before Allows.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	c.skip = make(map[time.Weekday]bool, len(c.SkipWeekdays))
	for _, name := range c.SkipWeekdays {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("filters: unknown weekday %q", name)
		}
		c.skip[wd] = true
	}
	if c.MaxDaysBeforeExpiry < 0 {
		return fmt.Errorf("filters: max_days_before_expiry must be >= 0")
	}
	if c.EarningsBufferDays < 0 {
		return fmt.Errorf("filters: earnings_buffer_days must be >= 0")
	}
	c.earnings = make(map[string][]time.Time, len(c.EarningsCalendar))
	for ticker, dates := range c.EarningsCalendar {
		key := strings.ToUpper(strings.TrimSpace(ticker))
		for _, ds := range dates {
			d, err := time.Parse("2006-01-02", ds)
			if err != nil {
				return fmt.Errorf("filters: bad earnings date %q for %s: %w", ds, key, err)
			}
			c.earnings[key] = append(c.earnings[key], d)
		}
	}
	return nil
}

// Allows reports whether a trade entered on entry with the given expiry
// passes every configured rule. A nil Config allows everything.
func (c *Config) Allows(entry, expiry time.Time, ticker string) bool {
	if c == nil {
		return true
	}

	if c.skip[entry.Weekday()] {
		return false
	}

	if c.MaxDaysBeforeExpiry > 0 {
		dte := int(expiry.Sub(entry).Hours() / 24)
		if dte > c.MaxDaysBeforeExpiry {
			return false
		}
	}

	if c.EarningsBufferDays > 0 {
		for _, ed := range c.earnings[strings.ToUpper(ticker)] {
			diff := entry.Sub(ed).Hours() / 24
			if diff < 0 {
				diff = -diff
			}
			if int(diff) <= c.EarningsBufferDays {
				return false
			}
		}
	}

	return true
}

// Apply returns the trades whose entry passes the filter.
func (c *Config) Apply(trades []models.TradeRecord, ticker string) []models.TradeRecord {
	if c == nil {
		return trades
	}
	allowed := make([]models.TradeRecord, 0, len(trades))
	for _, tr := range trades {
		if c.Allows(tr.Open, tr.Expiry, ticker) {
			allowed = append(allowed, tr)
		}
	}
	return allowed
}
