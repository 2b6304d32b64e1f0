package probability

import (
	"context"
	"math"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/stats"
	"github.com/bcdannyboy/varisk/volatility"
	"go.uber.org/zap"
)

// ModelBuilding is the variance-covariance estimator
type ModelBuilding struct {
	// Volatility feeds the single-position estimate.
	Volatility volatility.Estimator
	// Backtest is used for the per-day volatilities while backtesting.
	Backtest volatility.Estimator
	Logger   *zap.Logger
}

func NewModelBuilding(vol volatility.Estimator, params volatility.Params, logger *zap.Logger) *ModelBuilding {
	if vol == nil {
		vol = volatility.NewEWMA(params)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelBuilding{Volatility: vol, Backtest: volatility.NewGARCH(params), Logger: logger}
}

func (m *ModelBuilding) Estimate(ctx context.Context, setup models.Setup) (models.VaRResult, error) {
	if err := setup.Validate(); err != nil {
		return models.VaRResult{}, err
	}
	p := setup.Portfolio
	if len(p.Options) > 0 || len(p.Positions) == 0 {
		return models.VaRResult{}, models.UnsupportedPortfolioShape(len(p.Positions), len(p.Options))
	}
	z, err := ZScore(setup.Confidence)
	if err != nil {
		return models.VaRResult{}, err
	}

	var sigma float64
	if len(p.Positions) == 1 {
		returns, err := stats.DailyReturns(p.Positions[0].Prices)
		if err != nil {
			return models.VaRResult{}, err
		}
		vol, err := m.Volatility.Volatility(returns)
		if err != nil {
			return models.VaRResult{}, err
		}
		sigma = vol * p.Positions[0].Investment
		m.Logger.Debug("model building volatility", zap.String("estimator", m.Volatility.Name()), zap.Float64("volatility", vol))
	} else {
		returns, err := dailyReturns(p.Positions)
		if err != nil {
			return models.VaRResult{}, err
		}
		cov, err := stats.CovarianceMatrix(returns)
		if err != nil {
			return models.VaRResult{}, err
		}
		sigma = math.Sqrt(stats.PortfolioVariance(cov, p.Investments()))
	}

	v := ScaledVaR(z, sigma, setup.Horizon)
	m.Logger.Debug("model building VaR", zap.Int("confidence", setup.Confidence), zap.Int("horizon", setup.Horizon), zap.Float64("var", v))
	return models.VaRResult{FinalVaR: v, MaximumVaR: v}, nil
}

// ScaledVaR is z times the one-day standard deviation of value, scaled by √horizon.
func ScaledVaR(z, sigma float64, horizon int) float64 {
	return z * sigma * math.Sqrt(float64(horizon))
}

// EstimateForBacktest uses the backtest volatility model over an expanding
// window of returns older than each test day.
func (m *ModelBuilding) EstimateForBacktest(ctx context.Context, setup models.Setup, returns []float64, days int) ([]float64, error) {
	if err := setup.Portfolio.RequireSingleAsset(); err != nil {
		return nil, err
	}
	z, err := ZScore(setup.Confidence)
	if err != nil {
		return nil, err
	}
	if err := checkBacktestWindow(returns, days, 2); err != nil {
		return nil, err
	}
	investment := setup.Portfolio.Positions[0].Investment
	estimates := make([]float64, days)
	for k := range estimates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vol, err := m.Backtest.Volatility(history(returns, days, k))
		if err != nil {
			return nil, err
		}
		estimates[k] = ScaledVaR(z, vol*investment, setup.Horizon)
	}
	return estimates, nil
}
