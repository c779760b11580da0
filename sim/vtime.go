package sim

import "math"

// TimeTolerance is the relative tolerance used when two simulated times are
// compared.
const TimeTolerance = 1e-9

func timeSlack(a, b VTimeInSec) float64 {
	scale := math.Max(1, math.Max(math.Abs(float64(a)), math.Abs(float64(b))))
	return TimeTolerance * scale
}

// Before returns true if t happens strictly before u.
func (t VTimeInSec) Before(u VTimeInSec) bool {
	return float64(u-t) > timeSlack(t, u)
}

// SameTime returns true if the two times are equal within the tolerance.
func SameTime(a, b VTimeInSec) bool {
	return math.Abs(float64(a-b)) <= timeSlack(a, b)
}

// TimeResolution is the grid that OnGrid rounds times to.
const TimeResolution = 1e-12

// OnGrid rounds t to a multiple of TimeResolution. Times computed in different
// ways that land on the same grid point become exactly equal.
func OnGrid(t VTimeInSec) VTimeInSec {
	return VTimeInSec(math.Round(float64(t)/TimeResolution) * TimeResolution)
}
