package probability

import (
	"context"
	"math"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/stats"
	"gonum.org/v1/gonum/floats"
)

// Estimator computes the (final, maximum) VaR pair for a setup
type Estimator interface {
	Estimate(ctx context.Context, setup models.Setup) (models.VaRResult, error)
}

// BacktestEstimator produces one VaR estimate per test day for a single
// position. returns are newest first; estimate k covers test day
// returns[days-1-k] and may only use returns[days-k:].
type BacktestEstimator interface {
	EstimateForBacktest(ctx context.Context, setup models.Setup, returns []float64, days int) ([]float64, error)
}

var zScores = map[int]float64{
	99: 2.33,
	98: 2.05,
	97: 1.88,
	96: 1.75,
	95: 1.65,
	90: 1.29,
	85: 1.04,
	80: 0.84,
	75: 0.68,
}

// ZScore looks up the one-sided normal quantile for a confidence level.
func ZScore(confidence int) (float64, error) {
	z, ok := zScores[confidence]
	if !ok {
		return 0, models.UnsupportedConfidence(confidence)
	}
	return z, nil
}

// history returns the slice of newest-first returns that precedes test day k.
func history(returns []float64, days, k int) []float64 {
	return returns[days-k:]
}

func checkBacktestWindow(returns []float64, days, minHistory int) error {
	if days < 1 {
		return models.InvalidInput("days", days, "need at least one test day")
	}
	if len(returns)-days < minHistory {
		return models.InsufficientData("returns", len(returns), "need %d returns before a %d day test window", minHistory, days)
	}
	return nil
}

// horizonReturns maps every position to its newest-first returns summed over
// the horizon.
func horizonReturns(positions []models.Position, horizon int) ([][]float64, error) {
	out := make([][]float64, len(positions))
	for i, pos := range positions {
		r, err := stats.DailyReturns(pos.Prices)
		if err != nil {
			return nil, err
		}
		if out[i], err = stats.ReturnsOverHorizon(r, horizon); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func dailyReturns(positions []models.Position) ([][]float64, error) {
	out := make([][]float64, len(positions))
	for i, pos := range positions {
		r, err := stats.DailyReturns(pos.Prices)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// scenarioValues prices the positions under each joint historical return,
// aligned by index and cut to the shortest series.
func scenarioValues(investments []float64, returns [][]float64) []float64 {
	n := math.MaxInt
	for _, r := range returns {
		if len(r) < n {
			n = len(r)
		}
	}
	values := make([]float64, n)
	for i := range values {
		for k, inv := range investments {
			values[i] += inv * math.Exp(returns[k][i])
		}
	}
	return values
}

// valueDistribution summarizes simulated or historical values by their
// percentile and their minimum.
type valueDistribution struct {
	AtPercentile float64
	Min          float64
}

func summarize(values []float64, confidence int) (valueDistribution, error) {
	p, err := stats.Percentile(values, float64(confidence))
	if err != nil {
		return valueDistribution{}, err
	}
	return valueDistribution{AtPercentile: p, Min: floats.Min(values)}, nil
}
