package covermatch

import "math"

// autoscaleFactors are the unit multipliers the rescale heuristic may apply.
var autoscaleFactors = [...]float64{1, 10, 100}

// autoscaleValue multiplies value by whichever factor brings it closest to
// the reference median, tolerating user input given in an ambiguous unit
// ("500" vs "50000"). A zero or non-finite median leaves the value
// unchanged. The transform is idempotent for a fixed catalog only in the
// sense that the returned value, fed back in, picks factor 1 when already
// nearest the median.
func autoscaleValue(value, median float64) (scaled, factor float64) {
	if median == 0 || math.IsNaN(median) || math.IsInf(median, 0) {
		return value, 1
	}

	scaled, factor = value, autoscaleFactors[0]
	best := math.Abs(median - value*autoscaleFactors[0])
	for _, f := range autoscaleFactors[1:] {
		cand := value * f
		if diff := math.Abs(median - cand); diff < best {
			scaled, factor, best = cand, f, diff
		}
	}
	return scaled, factor
}
