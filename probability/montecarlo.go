package probability

import (
	"context"
	"math"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/pricing"
	"github.com/bcdannyboy/varisk/simulation"
	"github.com/bcdannyboy/varisk/stats"
	"github.com/bcdannyboy/varisk/volatility"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// optionStreamOffset keeps option substreams apart from the path substreams.
const optionStreamOffset = 1 << 30

type MonteCarloConfig struct {
	Simulations int    `mapstructure:"simulations"`
	Seed        uint64 `mapstructure:"seed"`
	Workers     int    `mapstructure:"workers"`
}

// MonteCarloSimulation estimates VaR from simulated price paths
type MonteCarloSimulation struct {
	Config     MonteCarloConfig
	Volatility volatility.Estimator
	Backtest   volatility.Estimator
	Pricing    pricing.Dispatcher
	Logger     *zap.Logger
}

func NewMonteCarloSimulation(cfg MonteCarloConfig, vol volatility.Estimator, params volatility.Params, d pricing.Dispatcher, logger *zap.Logger) *MonteCarloSimulation {
	if cfg.Simulations <= 0 {
		cfg.Simulations = pricing.DefaultSimulations
	}
	if vol == nil {
		vol = volatility.NewEWMA(params)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MonteCarloSimulation{
		Config:     cfg,
		Volatility: vol,
		Backtest:   volatility.NewGARCH(params),
		Pricing:    d,
		Logger:     logger,
	}
}

func (m *MonteCarloSimulation) runner() simulation.Runner {
	return simulation.NewRunner(m.Config.Seed, m.Config.Workers)
}

func (m *MonteCarloSimulation) Estimate(ctx context.Context, setup models.Setup) (models.VaRResult, error) {
	if err := setup.Validate(); err != nil {
		return models.VaRResult{}, err
	}
	if setup.Portfolio.IsSingleAsset() {
		pos := setup.Portfolio.Positions[0]
		returns, err := stats.DailyReturns(pos.Prices)
		if err != nil {
			return models.VaRResult{}, err
		}
		vol, err := m.Volatility.Volatility(returns)
		if err != nil {
			return models.VaRResult{}, err
		}
		m.Logger.Debug("monte carlo volatility", zap.String("estimator", m.Volatility.Name()), zap.Float64("volatility", vol))
		return m.oneAsset(ctx, pos.Investment, vol, setup.Confidence, setup.Horizon)
	}
	return m.portfolio(ctx, setup)
}

// oneAsset simulates the position value directly. The maximum VaR is the
// lowest value reached on any day of any path.
func (m *MonteCarloSimulation) oneAsset(ctx context.Context, investment, vol float64, confidence, horizon int) (models.VaRResult, error) {
	n := m.Config.Simulations
	finals := make([]float64, n)
	lows := make([]float64, n)
	err := m.runner().Run(ctx, n, func(rng *rand.Rand, sim int) error {
		path := make([]float64, horizon)
		simulation.PricePath(rng, investment, vol, path)
		finals[sim] = path[horizon-1]
		lows[sim] = floats.Min(path)
		return nil
	})
	if err != nil {
		return models.VaRResult{}, err
	}
	dist, err := summarize(finals, confidence)
	if err != nil {
		return models.VaRResult{}, err
	}
	return models.VaRResult{
		FinalVaR:   investment - dist.AtPercentile,
		MaximumVaR: investment - floats.Min(lows),
	}, nil
}

func (m *MonteCarloSimulation) portfolio(ctx context.Context, setup models.Setup) (models.VaRResult, error) {
	p := setup.Portfolio
	initial := p.AssetsValue()
	var final, worst float64

	if len(p.Positions) > 0 {
		dist, err := m.correlatedPositions(ctx, p, setup.Confidence, setup.Horizon)
		if err != nil {
			return models.VaRResult{}, err
		}
		final, worst = dist.AtPercentile, dist.Min
	}

	cfg := pricing.MonteCarloConfig{Simulations: m.Config.Simulations, Days: setup.Horizon}
	for i, opt := range p.Options {
		value, err := m.Pricing.InitialValue(opt)
		if err != nil {
			return models.VaRResult{}, err
		}
		initial += value

		scenario, err := m.Pricing.ScenarioFor(opt)
		if err != nil {
			return models.VaRResult{}, err
		}
		rng := simulation.Substream(m.Config.Seed, optionStreamOffset+i)
		res, err := scenario(rng, opt, opt.State(), cfg)
		if err != nil {
			return models.VaRResult{}, err
		}
		final += res.Value * opt.Shares
		worst += res.Min * opt.Shares
	}

	m.Logger.Debug("monte carlo portfolio values",
		zap.Float64("initial", initial), zap.Float64("final", final), zap.Float64("worst", worst))
	return models.VaRResult{FinalVaR: initial - final, MaximumVaR: initial - worst}, nil
}

// correlatedPositions draws daily return vectors correlated through the
// Cholesky factor of the return covariance and compounds them over the
// horizon. Each path records its final value and its lowest value.
func (m *MonteCarloSimulation) correlatedPositions(ctx context.Context, p models.Portfolio, confidence, horizon int) (valueDistribution, error) {
	returns, err := dailyReturns(p.Positions)
	if err != nil {
		return valueDistribution{}, err
	}
	cov, err := stats.CovarianceMatrix(returns)
	if err != nil {
		return valueDistribution{}, err
	}
	l, err := stats.CholeskyLower(cov)
	if err != nil {
		return valueDistribution{}, err
	}

	investments := p.Investments()
	assets := len(investments)
	n := m.Config.Simulations
	finals := make([]float64, n)
	lows := make([]float64, n)

	err = m.runner().Run(ctx, n, func(rng *rand.Rand, sim int) error {
		z := mat.NewVecDense(assets, nil)
		step := mat.NewVecDense(assets, nil)
		cum := make([]float64, assets)
		low := math.Inf(1)
		var value float64
		for day := 0; day < horizon; day++ {
			simulation.CorrelatedDraw(rng, l, z, step)
			value = 0
			for k := range cum {
				cum[k] += step.AtVec(k)
				value += investments[k] * math.Exp(cum[k])
			}
			low = math.Min(low, value)
		}
		finals[sim] = value
		lows[sim] = low
		return nil
	})
	if err != nil {
		return valueDistribution{}, err
	}

	dist, err := summarize(finals, confidence)
	if err != nil {
		return valueDistribution{}, err
	}
	dist.Min = floats.Min(lows)
	return dist, nil
}

// EstimateForBacktest simulates the single position with the backtest
// volatility of the returns older than each test day. Every day reuses the
// same seed so estimates differ only through the volatility.
func (m *MonteCarloSimulation) EstimateForBacktest(ctx context.Context, setup models.Setup, returns []float64, days int) ([]float64, error) {
	if err := setup.Portfolio.RequireSingleAsset(); err != nil {
		return nil, err
	}
	if err := checkBacktestWindow(returns, days, 2); err != nil {
		return nil, err
	}
	investment := setup.Portfolio.Positions[0].Investment
	estimates := make([]float64, days)
	for k := range estimates {
		vol, err := m.Backtest.Volatility(history(returns, days, k))
		if err != nil {
			return nil, err
		}
		res, err := m.oneAsset(ctx, investment, vol, setup.Confidence, setup.Horizon)
		if err != nil {
			return nil, err
		}
		estimates[k] = res.FinalVaR
	}
	return estimates, nil
}
