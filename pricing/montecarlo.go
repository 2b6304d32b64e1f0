package pricing

import (
	"math"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/simulation"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultSimulations = 1000
	DefaultDays        = 10
)

type MonteCarloConfig struct {
	Simulations int `mapstructure:"simulations"`
	Days        int `mapstructure:"days"`
}

func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{Simulations: DefaultSimulations, Days: DefaultDays}
}

func (c MonteCarloConfig) withDefaults() MonteCarloConfig {
	if c.Simulations <= 0 {
		c.Simulations = DefaultSimulations
	}
	if c.Days <= 0 {
		c.Days = DefaultDays
	}
	return c
}

// MonteCarloResult is the discounted mean value of an option across paths and
// its discounted low value, used as the option's worst case.
type MonteCarloResult struct {
	Value float64
	Min   float64
}

// Discount brings x back over `days` trading days at annual rate r:
// x / (1+r)^(days/252).
func Discount(x, r float64, days int) float64 {
	return x / math.Pow(1+r, float64(days)/models.TradingDays)
}

func discountPeriod(ttm, days int) int {
	period := ttm - days
	if period < 1 {
		return ttm
	}
	return period
}

// MonteCarloPayoff simulates price paths and values the option on its
// exercise payoff at the last simulated day. Min is the smallest payoff seen.
func MonteCarloPayoff(rng *rand.Rand, opt models.Option, state models.OptionState, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if err := checkType(opt.Type); err != nil {
		return MonteCarloResult{}, err
	}
	cfg = cfg.withDefaults()
	payoffs := make([]float64, cfg.Simulations)
	path := make([]float64, cfg.Days)
	for sim := range payoffs {
		simulation.PricePath(rng, state.StockPrice, opt.DailyVolatility, path)
		payoffs[sim] = opt.Intrinsic(path[cfg.Days-1])
	}
	period := discountPeriod(state.TimeToMaturity, cfg.Days)
	return MonteCarloResult{
		Value: Discount(stat.Mean(payoffs, nil), opt.Interest, period),
		Min:   Discount(floats.Min(payoffs), opt.Interest, period),
	}, nil
}

// MonteCarloBlackScholes reprices a European option with Black-Scholes on
// every simulated day as maturity runs down.
func MonteCarloBlackScholes(rng *rand.Rand, opt models.Option, state models.OptionState, cfg MonteCarloConfig) (MonteCarloResult, error) {
	return monteCarloRepricing(rng, opt, state, cfg, func(s float64, ttm int) (float64, error) {
		return BlackScholesMerton(opt.Type, s, opt.Strike, float64(ttm)/models.TradingDays, opt.Interest, opt.DividendYield, opt.AnnualVolatility())
	})
}

// MonteCarloLattice reprices an option on the binomial lattice on every
// simulated day as maturity runs down.
func MonteCarloLattice(rng *rand.Rand, opt models.Option, state models.OptionState, cfg MonteCarloConfig) (MonteCarloResult, error) {
	return monteCarloRepricing(rng, opt, state, cfg, func(s float64, ttm int) (float64, error) {
		if ttm < 1 {
			return opt.Intrinsic(s), nil
		}
		return BinomialDividend(opt.Type, opt.Style, s, opt.Strike, float64(ttm)/models.TradingDays, opt.AnnualVolatility(), opt.Interest, opt.DividendYield)
	})
}

func monteCarloRepricing(rng *rand.Rand, opt models.Option, state models.OptionState, cfg MonteCarloConfig, price func(s float64, ttm int) (float64, error)) (MonteCarloResult, error) {
	if err := checkType(opt.Type); err != nil {
		return MonteCarloResult{}, err
	}
	cfg = cfg.withDefaults()
	finals := make([]float64, cfg.Simulations)
	mins := make([]float64, cfg.Simulations)
	path := make([]float64, cfg.Days)
	for sim := range finals {
		simulation.PricePath(rng, state.StockPrice, opt.DailyVolatility, path)
		low := math.Inf(1)
		for day, s := range path {
			ttm := state.TimeToMaturity - day
			if ttm < 0 {
				ttm = 0
			}
			v, err := price(s, ttm)
			if err != nil {
				return MonteCarloResult{}, err
			}
			low = math.Min(low, v)
			finals[sim] = v
		}
		mins[sim] = low
	}
	period := discountPeriod(state.TimeToMaturity, cfg.Days)
	return MonteCarloResult{
		Value: Discount(stat.Mean(finals, nil), opt.Interest, period),
		Min:   Discount(stat.Mean(mins, nil), opt.Interest, period),
	}, nil
}

func checkType(t models.OptionType) error {
	if t != models.Call && t != models.Put {
		return models.UnsupportedOptionType(t)
	}
	return nil
}
