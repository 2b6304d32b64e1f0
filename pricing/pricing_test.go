package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackScholes(t *testing.T) {
	S, X, T, r, v := 80.0, 100.0, 0.5, 0.07, 0.03*math.Sqrt(252)

	call, err := BlackScholes(models.Call, S, X, T, r, v)
	require.NoError(t, err)
	put, err := BlackScholes(models.Put, S, X, T, r, v)
	require.NoError(t, err)

	assert.InDelta(t, 5.29, call, 0.01)
	assert.InDelta(t, 21.85, put, 0.01)
	assert.InDelta(t, S-X*math.Exp(-r*T), call-put, 1e-6)

	_, err = BlackScholes(models.OptionType(7), S, X, T, r, v)
	assert.True(t, errors.Is(err, models.ErrUnsupportedOptionType))
}

func TestBlackScholesAtExpiryIsIntrinsic(t *testing.T) {
	p, err := BlackScholes(models.Put, 90, 100, 0, 0.05, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 10.0, p)
}

func TestBlackScholesMertonDividendYield(t *testing.T) {
	S, X, T, r, q, v := 930.0, 900.0, 2.0/12, 0.08, 0.03, 0.2

	call, err := BlackScholesMerton(models.Call, S, X, T, r, q, v)
	require.NoError(t, err)
	put, err := BlackScholesMerton(models.Put, S, X, T, r, q, v)
	require.NoError(t, err)
	assert.InDelta(t, 51.83, call, 0.01)
	assert.InDelta(t, S*math.Exp(-q*T)-X*math.Exp(-r*T), call-put, 1e-6)

	noYield, err := BlackScholesMerton(models.Call, S, X, T, r, 0, v)
	require.NoError(t, err)
	plain, err := BlackScholes(models.Call, S, X, T, r, v)
	require.NoError(t, err)
	assert.Equal(t, plain, noYield)

	iv, err := ImpliedVolatility(call, models.Call, S, X, T, r, q)
	require.NoError(t, err)
	assert.InDelta(t, v, iv, 1e-4)
}

func TestGreeks(t *testing.T) {
	call, err := CalculateGreeks(models.Call, 100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)
	put, err := CalculateGreeks(models.Put, 100, 100, 1, 0.05, 0.2)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, call.Delta-put.Delta, 1e-9)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
	assert.InDelta(t, call.Vega, put.Vega, 1e-12)
	assert.Greater(t, call.Rho, 0.0)
	assert.Less(t, put.Rho, 0.0)
	assert.InDelta(t, 10.45, call.Price, 0.01)
}

func TestImpliedVolatilityRecoversInput(t *testing.T) {
	price, err := BlackScholes(models.Call, 100, 110, 0.25, 0.03, 0.35)
	require.NoError(t, err)

	iv, err := ImpliedVolatility(price, models.Call, 100, 110, 0.25, 0.03, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, iv, 1e-4)

	_, err = ImpliedVolatility(0.5, models.Put, 50, 100, 1, 0.01, 0)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestBinomialAmericanPut(t *testing.T) {
	S, X, T, sigma, r := 50.0, 50.0, 5.0/12.0, 0.4, 0.1

	american, err := Binomial(models.Put, models.American, S, X, T, sigma, r)
	require.NoError(t, err)
	european, err := Binomial(models.Put, models.European, S, X, T, sigma, r)
	require.NoError(t, err)
	bermudan, err := Binomial(models.Put, models.Bermudan, S, X, T, sigma, r)
	require.NoError(t, err)

	// 4.1835 only comes out of a European tree that discounts the up branch alone; early exercise gives 4.2949.
	assert.InDelta(t, 4.2949, american, 1e-4)
	assert.InDelta(t, 4.0874, european, 1e-4)
	assert.GreaterOrEqual(t, american, european)
	assert.Equal(t, american, bermudan)

	bs, err := BlackScholes(models.Put, S, X, T, r, sigma)
	require.NoError(t, err)
	assert.InDelta(t, bs, european, 0.02)
}

func TestAmericanNeverBelowEuropean(t *testing.T) {
	for _, typ := range []models.OptionType{models.Call, models.Put} {
		for _, strike := range []float64{40, 50, 60} {
			am, err := Binomial(typ, models.American, 50, strike, 0.5, 0.3, 0.05)
			require.NoError(t, err)
			eu, err := Binomial(typ, models.European, 50, strike, 0.5, 0.3, 0.05)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, am, eu-1e-12, "%s strike %v", typ, strike)
		}
	}
}

func TestLatticeInstability(t *testing.T) {
	_, err := Binomial(models.Call, models.European, 50, 50, 1, 0.001, 5)
	assert.True(t, errors.Is(err, models.ErrLatticeInstability))

	_, err = Binomial(models.Call, models.European, 50, 50, 0.001, 0.3, 0.05)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestCRRWithDividendYield(t *testing.T) {
	american, err := CRR(models.Put, models.American, 1500, 1480, 1, 0.18, 0.04, 0.025, 2)
	require.NoError(t, err)
	assert.InDelta(t, 78.41, american, 0.01)

	european, err := CRR(models.Put, models.European, 1500, 1480, 1, 0.18, 0.04, 0.025, 2)
	require.NoError(t, err)
	assert.InDelta(t, 76.87, european, 0.01)

	_, err = CRR(models.Put, models.Bermudan, 1500, 1480, 1, 0.18, 0.04, 0.025, 2)
	assert.True(t, errors.Is(err, models.ErrUnsupportedOptionStyle))
}

func TestDispatcherUsesDividendYield(t *testing.T) {
	d := NewDispatcher(MonteCarloConfig{Simulations: 200, Days: 5}, simulation.NewRand(3))
	tests := []struct {
		style    models.OptionStyle
		plain    float64
		dividend float64
	}{
		{models.American, 6.7219, 5.5975},
		{models.European, 6.7475, 5.4982},
	}
	for _, tt := range tests {
		opt := testOption(tt.style, models.Call)
		plain, err := d.Price(opt, opt.State())
		require.NoError(t, err)
		opt.DividendYield = 0.1
		dividend, err := d.Price(opt, opt.State())
		require.NoError(t, err)

		assert.InDelta(t, tt.plain, plain, 1e-4, "%s", tt.style)
		assert.InDelta(t, tt.dividend, dividend, 1e-4, "%s", tt.style)
	}

	am := testOption(models.American, models.Call)
	plain, err := MonteCarloLattice(simulation.NewRand(8), am, am.State(), MonteCarloConfig{Simulations: 50, Days: 3})
	require.NoError(t, err)
	am.DividendYield = 0.1
	dividend, err := MonteCarloLattice(simulation.NewRand(8), am, am.State(), MonteCarloConfig{Simulations: 50, Days: 3})
	require.NoError(t, err)
	assert.Less(t, dividend.Value, plain.Value)
}

func testOption(style models.OptionStyle, typ models.OptionType) models.Option {
	return models.Option{
		Style:             style,
		Type:              typ,
		Strike:            100,
		InitialStockPrice: 100,
		TimeToMaturity:    60,
		DailyVolatility:   0.02,
		Interest:          0.05,
		Shares:            10,
	}
}

func TestDispatcherSelectsPricerPerStyle(t *testing.T) {
	d := NewDispatcher(MonteCarloConfig{Simulations: 500, Days: 10}, simulation.NewRand(3))

	eu := testOption(models.European, models.Put)
	price, err := d.Price(eu, eu.State())
	require.NoError(t, err)
	bs, _ := BlackScholes(models.Put, 100, 100, 60.0/252, 0.05, 0.02*math.Sqrt(252))
	assert.Equal(t, bs, price)

	am := testOption(models.American, models.Put)
	amPrice, err := d.Price(am, am.State())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, amPrice, price)

	berm := testOption(models.Bermudan, models.Call)
	bermPrice, err := d.Price(berm, berm.State())
	require.NoError(t, err)
	assert.Greater(t, bermPrice, 0.0)

	value, err := d.InitialValue(eu)
	require.NoError(t, err)
	assert.InDelta(t, price*10, value, 1e-9)

	_, err = d.Price(testOption(models.OptionStyle(9), models.Call), models.OptionState{StockPrice: 100, TimeToMaturity: 5})
	assert.True(t, errors.Is(err, models.ErrUnsupportedOptionStyle))

	_, err = d.ScenarioFor(testOption(models.European, models.OptionType(4)))
	assert.True(t, errors.Is(err, models.ErrUnsupportedOptionType))
}

func TestExpiredStatePricesAtIntrinsic(t *testing.T) {
	d := NewDispatcher(DefaultMonteCarloConfig(), simulation.NewRand(1))
	for _, style := range []models.OptionStyle{models.European, models.American, models.Bermudan} {
		opt := testOption(style, models.Call)
		p, err := d.Price(opt, models.OptionState{StockPrice: 112, TimeToMaturity: 0})
		require.NoError(t, err)
		assert.InDelta(t, 12.0, p, 1e-12, style.String())
	}
}

func TestMonteCarloPricers(t *testing.T) {
	cfg := MonteCarloConfig{Simulations: 400, Days: 5}
	opt := testOption(models.European, models.Call)

	payoff, err := MonteCarloPayoff(simulation.NewRand(5), opt, opt.State(), cfg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, payoff.Value, payoff.Min)

	again, err := MonteCarloPayoff(simulation.NewRand(5), opt, opt.State(), cfg)
	require.NoError(t, err)
	assert.Equal(t, payoff, again)

	bs, err := MonteCarloBlackScholes(simulation.NewRand(5), opt, opt.State(), cfg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bs.Value, bs.Min)
	assert.Greater(t, bs.Value, 0.0)

	am := testOption(models.American, models.Put)
	lat, err := MonteCarloLattice(simulation.NewRand(5), am, am.State(), cfg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, lat.Value, lat.Min)
}

func TestDiscount(t *testing.T) {
	assert.InDelta(t, 1000/1.1, Discount(1000, 0.1, 252), 1e-9)
	assert.Equal(t, 5.0, Discount(5, 0.1, 0))
}
