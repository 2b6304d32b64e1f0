package probability

import (
	"context"
	"math"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/pricing"
	"github.com/bcdannyboy/varisk/stats"
	"go.uber.org/zap"
)

// HistoricalSimulation revalues the portfolio under every historical return
type HistoricalSimulation struct {
	Pricing pricing.Dispatcher
	Logger  *zap.Logger
}

func NewHistoricalSimulation(d pricing.Dispatcher, logger *zap.Logger) *HistoricalSimulation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoricalSimulation{Pricing: d, Logger: logger}
}

func (h *HistoricalSimulation) Estimate(ctx context.Context, setup models.Setup) (models.VaRResult, error) {
	if err := setup.Validate(); err != nil {
		return models.VaRResult{}, err
	}
	if setup.Portfolio.IsSingleAsset() {
		pos := setup.Portfolio.Positions[0]
		returns, err := stats.DailyReturns(pos.Prices)
		if err != nil {
			return models.VaRResult{}, err
		}
		rh, err := stats.ReturnsOverHorizon(returns, setup.Horizon)
		if err != nil {
			return models.VaRResult{}, err
		}
		return h.oneAsset(pos.Investment, rh, setup.Confidence)
	}
	return h.portfolio(ctx, setup)
}

// oneAsset applies investment·(1 - e^r) to the percentile and worst return.
func (h *HistoricalSimulation) oneAsset(investment float64, returns []float64, confidence int) (models.VaRResult, error) {
	dist, err := summarize(returns, confidence)
	if err != nil {
		return models.VaRResult{}, err
	}
	h.Logger.Debug("historical percentile return", zap.Float64("return", dist.AtPercentile), zap.Int("observations", len(returns)))
	return models.VaRResult{
		FinalVaR:   investment - investment*math.Exp(dist.AtPercentile),
		MaximumVaR: investment - investment*math.Exp(dist.Min),
	}, nil
}

func (h *HistoricalSimulation) portfolio(ctx context.Context, setup models.Setup) (models.VaRResult, error) {
	p := setup.Portfolio
	initial := p.AssetsValue()
	var final, worst float64

	if len(p.Positions) > 0 {
		returns, err := horizonReturns(p.Positions, setup.Horizon)
		if err != nil {
			return models.VaRResult{}, err
		}
		dist, err := summarize(scenarioValues(p.Investments(), returns), setup.Confidence)
		if err != nil {
			return models.VaRResult{}, err
		}
		final, worst = dist.AtPercentile, dist.Min
	}

	for _, opt := range p.Options {
		if err := ctx.Err(); err != nil {
			return models.VaRResult{}, err
		}
		value, err := h.Pricing.InitialValue(opt)
		if err != nil {
			return models.VaRResult{}, err
		}
		initial += value
		dist, err := h.repriceOption(opt, setup.Confidence, setup.Horizon)
		if err != nil {
			return models.VaRResult{}, err
		}
		final += dist.AtPercentile
		worst += dist.Min
	}

	h.Logger.Debug("historical portfolio values",
		zap.Float64("initial", initial), zap.Float64("final", final), zap.Float64("worst", worst))
	return models.VaRResult{FinalVaR: initial - final, MaximumVaR: initial - worst}, nil
}

// repriceOption values the option leg along its underlying's history. Day i
// moves the underlying by the i-th horizon return and runs maturity down by i
// days; the walk stops at the first expired state.
func (h *HistoricalSimulation) repriceOption(opt models.Option, confidence, horizon int) (valueDistribution, error) {
	returns, err := stats.DailyReturns(opt.Underlying)
	if err != nil {
		return valueDistribution{}, err
	}
	rh, err := stats.ReturnsOverHorizon(returns, horizon)
	if err != nil {
		return valueDistribution{}, err
	}
	price, err := h.Pricing.PricerFor(opt)
	if err != nil {
		return valueDistribution{}, err
	}

	states := optionStates(opt.State(), rh)
	values := make([]float64, 0, len(states))
	for _, state := range states {
		v, err := price(opt, state)
		if err != nil {
			return valueDistribution{}, err
		}
		values = append(values, v*opt.Shares)
	}
	return summarize(values, confidence)
}

// optionStates lists the repricing states for each historical return. Every
// state starts from the inception state: day i applies only returns[i] to the
// inception price and removes i days of maturity. Prices do not compound
// across days. The list ends before the first expired state.
func optionStates(start models.OptionState, returns []float64) []models.OptionState {
	states := make([]models.OptionState, 0, len(returns))
	for i, r := range returns {
		state := start.Roll(r, i)
		if state.Expired() {
			break
		}
		states = append(states, state)
	}
	return states
}

// EstimateForBacktest applies the one-asset rule to the horizon returns older
// than each test day.
func (h *HistoricalSimulation) EstimateForBacktest(ctx context.Context, setup models.Setup, returns []float64, days int) ([]float64, error) {
	if err := setup.Portfolio.RequireSingleAsset(); err != nil {
		return nil, err
	}
	if err := checkBacktestWindow(returns, days, setup.Horizon); err != nil {
		return nil, err
	}
	investment := setup.Portfolio.Positions[0].Investment
	estimates := make([]float64, days)
	for k := range estimates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rh, err := stats.ReturnsOverHorizon(history(returns, days, k), setup.Horizon)
		if err != nil {
			return nil, err
		}
		res, err := h.oneAsset(investment, rh, setup.Confidence)
		if err != nil {
			return nil, err
		}
		estimates[k] = res.FinalVaR
	}
	return estimates, nil
}
