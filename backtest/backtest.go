package backtest

import (
	"context"
	"fmt"
	"math"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/probability"
	"github.com/bcdannyboy/varisk/stats"
	"go.uber.org/zap"
)

const DefaultDays = 100

// Config selects the estimators a backtest can run and how long it looks back.
type Config struct {
	Days       int
	Estimators map[models.Model]probability.BacktestEstimator
	// Progress, when set, is called once per evaluated test day.
	Progress func()
	Logger   *zap.Logger
}

// Run compares a model's VaR estimate for each of the last cfg.Days days with
// the loss realized over the setup horizon starting that day. Test days run
// oldest first, so Estimates[k] and ActualLosses[k] belong to the same day.
func Run(ctx context.Context, setup models.Setup, cfg Config) (models.BacktestResult, error) {
	if cfg.Days <= 0 {
		cfg.Days = DefaultDays
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := setup.Validate(); err != nil {
		return models.BacktestResult{}, err
	}
	if err := setup.Portfolio.RequireSingleAsset(); err != nil {
		return models.BacktestResult{}, err
	}
	estimator, ok := cfg.Estimators[setup.Model]
	if !ok {
		return models.BacktestResult{}, models.UnknownModel(string(setup.Model))
	}

	pos := setup.Portfolio.Positions[0]
	returns, err := stats.DailyReturns(pos.Prices)
	if err != nil {
		return models.BacktestResult{}, err
	}
	days, h := cfg.Days, setup.Horizon
	if h > days {
		return models.BacktestResult{}, models.InvalidInput("horizon", h, "horizon is longer than the %d day test window", days)
	}
	if len(returns) <= days {
		return models.BacktestResult{}, models.InsufficientData("returns", len(returns), "need history older than the %d day test window", days)
	}

	estimates, err := estimator.EstimateForBacktest(ctx, setup, returns, days)
	if err != nil {
		return models.BacktestResult{}, fmt.Errorf("estimating %s backtest: %w", setup.Model, err)
	}

	realized, err := stats.ReturnsOverHorizon(returns[:days], h)
	if err != nil {
		return models.BacktestResult{}, err
	}

	result := models.BacktestResult{
		AcceptableExceptions: AcceptableExceptions(days, setup.Confidence),
		Estimates:            estimates,
	}
	// Only days with a complete horizon ahead of them can be scored.
	scored := days - (h - 1)
	result.ActualLosses = make([]float64, scored)
	for k := 0; k < scored; k++ {
		r := realized[days-k-h]
		loss := pos.Investment - pos.Investment*math.Exp(r)
		result.ActualLosses[k] = loss
		if loss > estimates[k] {
			result.ObservedExceptions++
			logger.Debug("backtest exception", zap.Int("day", k), zap.Float64("loss", loss), zap.Float64("var", estimates[k]))
		}
		if cfg.Progress != nil {
			cfg.Progress()
		}
	}

	logger.Info("backtest complete",
		zap.String("model", string(setup.Model)),
		zap.Int("days", days),
		zap.Int("acceptable", result.AcceptableExceptions),
		zap.Int("observed", result.ObservedExceptions))
	return result, nil
}

// AcceptableExceptions is floor(days·(1 − confidence/100)).
func AcceptableExceptions(days, confidence int) int {
	// Integer arithmetic keeps 100·(1-0.99) from landing just under 1.
	return days * (100 - confidence) / 100
}
