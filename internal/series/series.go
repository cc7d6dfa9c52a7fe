// Package series provides an immutable date-indexed float series, the
// shared shape of price, volatility, equity and benchmark curves.
package series

import (
	"fmt"
	"sort"
	"time"
)

// Series is an ordered sequence of (date, value) pairs with strictly
// ascending, unique dates. It is read-only after construction and safe to
// share across concurrent simulation runs.
type Series struct {
	dates  []time.Time
	values []float64
}

// New builds a series from parallel date/value slices, validating that the
// dates are strictly ascending with no duplicates. The slices are copied.
func New(dates []time.Time, values []float64) (*Series, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("series: %d dates but %d values", len(dates), len(values))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			return nil, fmt.Errorf("series: dates not strictly ascending at index %d (%s >= %s)",
				i, dates[i-1].Format("2006-01-02"), dates[i].Format("2006-01-02"))
		}
	}
	s := &Series{
		dates:  make([]time.Time, len(dates)),
		values: make([]float64, len(values)),
	}
	copy(s.dates, dates)
	copy(s.values, values)
	return s, nil
}

// Len returns the number of points.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.dates)
}

// Empty reports whether the series has no points.
func (s *Series) Empty() bool { return s.Len() == 0 }

// Date returns the date at index i.
func (s *Series) Date(i int) time.Time { return s.dates[i] }

// Value returns the value at index i.
func (s *Series) Value(i int) float64 { return s.values[i] }

// Dates returns a copy of the date index.
func (s *Series) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Values returns a copy of the values.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// First returns the first (date, value) pair; the series must be non-empty.
func (s *Series) First() (time.Time, float64) { return s.dates[0], s.values[0] }

// Last returns the last (date, value) pair; the series must be non-empty.
func (s *Series) Last() (time.Time, float64) {
	n := len(s.dates) - 1
	return s.dates[n], s.values[n]
}

// SearchDate returns the index of the first point whose date is on or after
// t, or Len() when every point is earlier.
func (s *Series) SearchDate(t time.Time) int {
	return sort.Search(len(s.dates), func(i int) bool {
		return !s.dates[i].Before(t)
	})
}

// At returns the value at exactly date t.
func (s *Series) At(t time.Time) (float64, bool) {
	i := s.SearchDate(t)
	if i < len(s.dates) && s.dates[i].Equal(t) {
		return s.values[i], true
	}
	return 0, false
}

// Slice returns the sub-series with start <= date <= end. The result shares
// no state with the receiver; slicing a nil or empty series returns an
// empty one.
func (s *Series) Slice(start, end time.Time) *Series {
	if s.Len() == 0 {
		return &Series{}
	}
	lo := s.SearchDate(start)
	hi := s.SearchDate(end.Add(1))
	if lo >= hi {
		return &Series{}
	}
	out, _ := New(s.dates[lo:hi], s.values[lo:hi])
	return out
}
