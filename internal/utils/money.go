package utils

import "math"

// Round2 rounds a price to two decimal places. Prices are normalized with
// this before they are written; the database column is DECIMAL(10,2).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
