package stats

import (
	"math"

	"github.com/bcdannyboy/varisk/models"
	"gonum.org/v1/gonum/floats"
)

// DailyReturns computes log returns from prices ordered newest first:
// returns[i] = ln(prices[i]/prices[i+1]).
func DailyReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, models.InvalidInput("prices", len(prices), "need at least two prices")
	}
	returns := make([]float64, len(prices)-1)
	for i := 0; i < len(prices)-1; i++ {
		if prices[i] <= 0 || prices[i+1] <= 0 {
			return nil, models.InvalidInput("price", math.Min(prices[i], prices[i+1]), "prices must be positive")
		}
		returns[i] = math.Log(prices[i] / prices[i+1])
	}
	return returns, nil
}

// ReturnsOverHorizon sums every window of `horizon` consecutive log returns,
// yielding len(returns)-horizon+1 multi-day returns.
func ReturnsOverHorizon(returns []float64, horizon int) ([]float64, error) {
	if horizon < 1 {
		return nil, models.InvalidInput("horizon", horizon, "horizon must be at least one day")
	}
	if horizon > len(returns) {
		return nil, models.InvalidInput("horizon", horizon, "horizon exceeds %d available returns", len(returns))
	}
	out := make([]float64, len(returns)-horizon+1)
	for i := range out {
		out[i] = floats.Sum(returns[i : i+horizon])
	}
	return out, nil
}

// RoundTwoDP rounds half away from zero to two decimal places.
func RoundTwoDP(x float64) float64 {
	return math.Round(x*100) / 100
}
