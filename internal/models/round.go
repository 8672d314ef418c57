package models

import "math"

// Rounding helpers shared by tracker snapshots and persisted records.
// Storage keeps volumes at 6 decimals, percentages at 2, display at 1.

func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
