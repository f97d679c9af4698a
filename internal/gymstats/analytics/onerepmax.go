package analytics

import "math"

// EstimateOneRepMax uses the Epley formula. A single rep is its own max,
// anything else is rounded to a whole number.
func EstimateOneRepMax(weight float64, reps int) float64 {
	if reps == 1 {
		return weight
	}
	return math.Round(weight * (1 + float64(reps)/30))
}
