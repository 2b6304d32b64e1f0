package pricing

import (
	"github.com/bcdannyboy/varisk/models"
	"golang.org/x/exp/rand"
)

// PriceFunc values an option at one state without mutating it.
type PriceFunc func(opt models.Option, state models.OptionState) (float64, error)

// ScenarioFunc produces a simulated value and worst case for an option.
type ScenarioFunc func(rng *rand.Rand, opt models.Option, state models.OptionState, cfg MonteCarloConfig) (MonteCarloResult, error)

// Dispatcher selects a pricer per option style. Each style maps to exactly one
// pricer for both calls and puts:
//
//	European: Black-Scholes     / Monte Carlo with Black-Scholes repricing
//	American: binomial lattice  / Monte Carlo with lattice repricing
//	Bermudan: Monte Carlo payoff / Monte Carlo payoff
type Dispatcher struct {
	MonteCarlo MonteCarloConfig
	// Rand drives the Bermudan payoff pricer.
	Rand *rand.Rand
}

func NewDispatcher(cfg MonteCarloConfig, rng *rand.Rand) Dispatcher {
	return Dispatcher{MonteCarlo: cfg.withDefaults(), Rand: rng}
}

// PricerFor returns the closed-form or lattice pricer for opt's style.
func (d Dispatcher) PricerFor(opt models.Option) (PriceFunc, error) {
	if err := checkType(opt.Type); err != nil {
		return nil, err
	}
	switch opt.Style {
	case models.European:
		return blackScholesPrice, nil
	case models.American:
		return binomialPrice, nil
	case models.Bermudan:
		return d.monteCarloPrice, nil
	}
	return nil, models.UnsupportedOptionStyle(opt.Style)
}

// ScenarioFor returns the simulation pricer for opt's style.
func (d Dispatcher) ScenarioFor(opt models.Option) (ScenarioFunc, error) {
	if err := checkType(opt.Type); err != nil {
		return nil, err
	}
	switch opt.Style {
	case models.European:
		return MonteCarloBlackScholes, nil
	case models.American:
		return MonteCarloLattice, nil
	case models.Bermudan:
		return MonteCarloPayoff, nil
	}
	return nil, models.UnsupportedOptionStyle(opt.Style)
}

// Price values opt at state with the pricer for its style.
func (d Dispatcher) Price(opt models.Option, state models.OptionState) (float64, error) {
	price, err := d.PricerFor(opt)
	if err != nil {
		return 0, err
	}
	return price(opt, state)
}

// InitialValue is the value of the whole option leg at inception.
func (d Dispatcher) InitialValue(opt models.Option) (float64, error) {
	p, err := d.Price(opt, opt.State())
	if err != nil {
		return 0, err
	}
	return p * opt.Shares, nil
}

func blackScholesPrice(opt models.Option, state models.OptionState) (float64, error) {
	return BlackScholesMerton(opt.Type, state.StockPrice, opt.Strike, opt.YearsToMaturity(state), opt.Interest, opt.DividendYield, opt.AnnualVolatility())
}

func binomialPrice(opt models.Option, state models.OptionState) (float64, error) {
	if state.TimeToMaturity < 1 {
		return opt.Intrinsic(state.StockPrice), nil
	}
	return BinomialDividend(opt.Type, opt.Style, state.StockPrice, opt.Strike, opt.YearsToMaturity(state), opt.AnnualVolatility(), opt.Interest, opt.DividendYield)
}

func (d Dispatcher) monteCarloPrice(opt models.Option, state models.OptionState) (float64, error) {
	if state.TimeToMaturity < 1 {
		return opt.Intrinsic(state.StockPrice), nil
	}
	if d.Rand == nil {
		return 0, models.InvalidInput("rand", nil, "Monte Carlo pricing needs a random source")
	}
	res, err := MonteCarloPayoff(d.Rand, opt, state, d.MonteCarlo)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}
