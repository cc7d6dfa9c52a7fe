package series

import "math"

// TradingDaysPerYear is the annualization factor for daily returns.
const TradingDaysPerYear = 252

// DefaultVolWindow is the rolling window, in trading days, used when
// deriving volatility from a price series.
const DefaultVolWindow = 21

// volFloor clips the derived volatility so option prices never collapse to
// pure intrinsic value during calm stretches.
const volFloor = 0.05

// RealizedVol derives an annualized volatility series from prices: the
// rolling sample standard deviation of daily log returns, annualized by
// sqrt(252). Windows with fewer than window/2 returns yield no estimate;
// gaps are filled forward then backward, and the result is floored at 5%.
// The returned series shares the price series' date index.
func RealizedVol(prices *Series, window int) *Series {
	n := prices.Len()
	if window < 2 {
		window = 2
	}
	minPeriods := window / 2
	if minPeriods < 2 {
		minPeriods = 2
	}

	// Log returns; index 0 has none.
	rets := make([]float64, n)
	valid := make([]bool, n)
	for i := 1; i < n; i++ {
		prev, cur := prices.Value(i-1), prices.Value(i)
		if prev > 0 && cur > 0 {
			rets[i] = math.Log(cur / prev)
			valid[i] = true
		}
	}

	vols := make([]float64, n)
	have := make([]bool, n)
	for i := 0; i < n; i++ {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		var sum, sumSq float64
		count := 0
		for j := lo; j <= i; j++ {
			if !valid[j] {
				continue
			}
			sum += rets[j]
			sumSq += rets[j] * rets[j]
			count++
		}
		if count < minPeriods || count < 2 {
			continue
		}
		mean := sum / float64(count)
		variance := (sumSq - float64(count)*mean*mean) / float64(count-1)
		if variance < 0 {
			variance = 0
		}
		vols[i] = math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear)
		have[i] = true
	}

	// Forward fill, then backward fill the leading gap.
	lastIdx := -1
	for i := 0; i < n; i++ {
		if have[i] {
			lastIdx = i
		} else if lastIdx >= 0 {
			vols[i] = vols[lastIdx]
			have[i] = true
		}
	}
	firstIdx := -1
	for i := 0; i < n; i++ {
		if have[i] {
			firstIdx = i
			break
		}
	}
	for i := 0; i < n; i++ {
		if !have[i] {
			if firstIdx >= 0 {
				vols[i] = vols[firstIdx]
			} else {
				vols[i] = volFloor
			}
		}
		if vols[i] < volFloor {
			vols[i] = volFloor
		}
	}

	out, _ := New(prices.Dates(), vols)
	return out
}
