package models

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	cases := map[string]Model{
		"MB":                     ModelBuilding,
		"model building":         ModelBuilding,
		" hs ":                   HistoricalSimulation,
		"Historical Simulation":  HistoricalSimulation,
		"mc":                     MonteCarlo,
		"Monte Carlo Simulation": MonteCarlo,
	}
	for in, want := range cases {
		got, err := ParseModel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseModel("garch")
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestErrorMatchesOnCode(t *testing.T) {
	err := fmt.Errorf("loading: %w", InvalidInput("horizon", 0, "bad horizon"))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrInsufficientData))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "horizon", e.Param)
	assert.Equal(t, "INVALID_INPUT: bad horizon (horizon=0)", e.Error())
}

func TestSetupValidate(t *testing.T) {
	position := Position{Symbol: "A", Investment: 1000, Prices: PriceSeries{2, 1}}
	option := Option{Symbol: "A", Strike: 100, InitialStockPrice: 100, TimeToMaturity: 20, DailyVolatility: 0.01, Shares: 1}
	valid := Setup{Confidence: 99, Horizon: 1, Model: HistoricalSimulation, Portfolio: Portfolio{Positions: []Position{position}}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Setup)
		want   error
	}{
		{"confidence", func(s *Setup) { s.Confidence = 93 }, ErrUnsupportedConfidence},
		{"horizon", func(s *Setup) { s.Horizon = 0 }, ErrInvalidInput},
		{"empty", func(s *Setup) { s.Portfolio = Portfolio{} }, ErrInvalidInput},
		{"investment", func(s *Setup) { s.Portfolio.Positions = []Position{{Symbol: "A"}} }, ErrInvalidInput},
		{"shares", func(s *Setup) {
			o := option
			o.Shares = 0
			s.Portfolio.Options = []Option{o}
		}, ErrInvalidInput},
		{"volatility", func(s *Setup) {
			o := option
			o.DailyVolatility = 0
			s.Portfolio.Options = []Option{o}
		}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			s.Portfolio.Positions = append([]Position(nil), valid.Portfolio.Positions...)
			tt.mutate(&s)
			assert.True(t, errors.Is(s.Validate(), tt.want))
		})
	}
}

func TestPortfolioShape(t *testing.T) {
	p := Portfolio{Positions: []Position{{Investment: 100}, {Investment: 50}}}
	assert.Equal(t, []float64{100, 50}, p.Investments())
	assert.Equal(t, 150.0, p.AssetsValue())
	assert.False(t, p.IsSingleAsset())
	assert.True(t, errors.Is(p.RequireSingleAsset(), ErrUnsupportedPortfolioShape))

	p.Positions = p.Positions[:1]
	assert.NoError(t, p.RequireSingleAsset())
}

func TestOptionStateRoll(t *testing.T) {
	o := Option{Type: Put, Strike: 100, InitialStockPrice: 100, TimeToMaturity: 10, DailyVolatility: 0.01}
	s := o.State().Roll(math.Log(0.9), 3)
	assert.InDelta(t, 90, s.StockPrice, 1e-9)
	assert.Equal(t, 7, s.TimeToMaturity)
	assert.False(t, s.Expired())
	assert.True(t, o.State().Roll(0, 11).Expired())

	assert.InDelta(t, 10, o.Intrinsic(s.StockPrice), 1e-9)
	assert.InDelta(t, 7.0/252, o.YearsToMaturity(s), 1e-12)
	assert.InDelta(t, 0.01*math.Sqrt(252), o.AnnualVolatility(), 1e-12)
}

func TestResults(t *testing.T) {
	r := StressResult{Values: []float64{1000, 960, 480}, Losses: []float64{0, 40, 520}}
	assert.Equal(t, 480.0, r.MinValue())
	assert.Equal(t, 1000.0, r.MaxValue())
	assert.Equal(t, 0.0, r.MinLoss())
	assert.Equal(t, 520.0, r.MaxLoss())
	assert.Equal(t, 0.0, StressResult{}.MaxLoss())

	assert.True(t, BacktestResult{AcceptableExceptions: 1, ObservedExceptions: 1}.Passed())
	assert.False(t, BacktestResult{AcceptableExceptions: 1, ObservedExceptions: 2}.Passed())
}
