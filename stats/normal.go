package stats

import "math"

// CumulativeNormal approximates the standard normal CDF with the
// Abramowitz-Stegun 26.2.17 polynomial (absolute error below 7.5e-8).
func CumulativeNormal(x float64) float64 {
	if x < 0 {
		return 1 - CumulativeNormal(-x)
	}
	k := 1 / (1 + 0.2316419*x)
	poly := ((((1.330274429*k-1.821255978)*k+1.781477937)*k-0.356563782)*k + 0.319381530) * k
	return 1 - 0.398942280401*math.Exp(-x*x/2)*poly
}

// NormalPDF is the standard normal density.
func NormalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
