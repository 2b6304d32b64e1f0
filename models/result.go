package models

import "gonum.org/v1/gonum/floats"

// VaRResult pairs the loss at the requested percentile with the worst loss seen
type VaRResult struct {
	FinalVaR   float64 `json:"final_var"`
	MaximumVaR float64 `json:"maximum_var"`
}

type BacktestResult struct {
	AcceptableExceptions int       `json:"acceptable_exceptions"`
	ObservedExceptions   int       `json:"observed_exceptions"`
	Estimates            []float64 `json:"estimates"`
	ActualLosses         []float64 `json:"actual_losses"`
}

// Passed reports whether the model stayed within its exception budget.
func (r BacktestResult) Passed() bool {
	return r.ObservedExceptions <= r.AcceptableExceptions
}

// StressResult holds the simulated value and loss for each day.
type StressResult struct {
	Values []float64 `json:"values"`
	Losses []float64 `json:"losses"`
}

func (r StressResult) MinValue() float64 { return minOf(r.Values) }
func (r StressResult) MaxValue() float64 { return maxOf(r.Values) }
func (r StressResult) MinLoss() float64  { return minOf(r.Losses) }
func (r StressResult) MaxLoss() float64  { return maxOf(r.Losses) }

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Min(xs)
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Max(xs)
}
