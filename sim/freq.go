package sim

import (
	"log"
	"math"
)

// Freq defines the type of frequency
type Freq float64

// FreqOf returns the frequency of something that happens once every period.
func FreqOf(period VTimeInSec) Freq {
	if period <= 0 || math.IsInf(float64(period), 0) ||
		math.IsNaN(float64(period)) {
		log.Panicf("invalid period %v", period)
	}

	return Freq(1.0 / period)
}

// NthTick returns the time of the n-th tick counted from the origin, rounded
// to the time grid. Ticks of different frequencies that meet are exactly
// equal.
func (f Freq) NthTick(origin VTimeInSec, n int64) VTimeInSec {
	return OnGrid(origin + VTimeInSec(float64(n)/float64(f)))
}
