package analysis

import "math"

// LevelDB returns linear as dBFS. Zero maps to -Inf and negative input
// to NaN. Builds tagged fastmath trade accuracy for speed.
func LevelDB(linear float64) float64 {
	switch {
	case linear < 0 || math.IsNaN(linear):
		return math.NaN()
	case linear == 0:
		return math.Inf(-1)
	}

	return 20 * log10(linear)
}
