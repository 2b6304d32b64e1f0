package stress

import (
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/simulation"
	"github.com/bcdannyboy/varisk/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantShocks(days int, s float64) []float64 {
	out := make([]float64, days)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestRunFallingMarket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shocks = constantShocks(cfg.Days, -0.04)

	res, err := Run(1000, cfg)
	require.NoError(t, err)
	require.Len(t, res.Values, DefaultDays)

	assert.Equal(t, 1000.0, res.Values[0])
	assert.Equal(t, 0.0, res.Losses[0])
	assert.Equal(t, res.Values[24]*0.5, res.Values[25])
	assert.InDelta(t, 187.71, res.Values[25], 1e-9)
	assert.InDelta(t, 9.14, res.MinValue(), 1e-9)
	assert.InDelta(t, 990.86, res.MaxLoss(), 1e-9)
	assert.Equal(t, 1000.0, res.MaxValue())
	assert.Equal(t, 0.0, res.MinLoss())
}

func TestRunLossesDeriveFromValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rand = simulation.NewRand(11)

	res, err := Run(1000, cfg)
	require.NoError(t, err)
	for day := range res.Values {
		assert.InDelta(t, 1000-res.Values[day], res.Losses[day], 0.005+1e-9, "day %d", day)
		if day != cfg.CrashDay && res.Losses[day] < -0.01 {
			assert.Greater(t, res.Values[day], 1000.0)
		}
	}
	assert.Equal(t, res.Values[cfg.CrashDay-1]*DefaultCrashFactor, res.Values[cfg.CrashDay])
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	a := DefaultConfig()
	a.Rand = simulation.NewRand(5)
	b := DefaultConfig()
	b.Rand = simulation.NewRand(5)

	ra, err := Run(2500, a)
	require.NoError(t, err)
	rb, err := Run(2500, b)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
}

func TestDefaultShocks(t *testing.T) {
	allowed := map[float64]bool{}
	for k := -4; k <= 4; k++ {
		allowed[float64(k)/100] = true
	}

	shocks := DefaultShocks(simulation.NewRand(1), 1000)
	require.Len(t, shocks, 1000)
	seenNegative, seenPositive := false, false
	for _, s := range shocks {
		assert.True(t, allowed[s], "unexpected shock %v", s)
		seenNegative = seenNegative || s < 0
		seenPositive = seenPositive || s > 0
	}
	assert.True(t, seenNegative)
	assert.True(t, seenPositive)
}

func TestRunValidation(t *testing.T) {
	cases := map[string]struct {
		initial float64
		mutate  func(*Config)
	}{
		"non-positive initial": {0, func(*Config) {}},
		"too few days":         {1000, func(c *Config) { c.Days = 1 }},
		"crash day too late":   {1000, func(c *Config) { c.CrashDay = c.Days }},
		"crash day zero":       {1000, func(c *Config) { c.CrashDay = 0 }},
		"short shocks":         {1000, func(c *Config) { c.Shocks = constantShocks(10, 0.01) }},
		"no random source":     {1000, func(c *Config) { c.Rand = nil }},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Shocks = constantShocks(cfg.Days, 0.01)
			if name == "no random source" {
				cfg.Shocks = nil
			}
			tc.mutate(&cfg)
			_, err := Run(tc.initial, cfg)
			assert.True(t, errors.Is(err, models.ErrInvalidInput))
		})
	}
}

func TestJumpDiffusionShocks(t *testing.T) {
	calm := JumpDiffusion{Sigma: 0.2}
	shocks := calm.Shocks(simulation.NewRand(3), 5000)
	require.Len(t, shocks, 5000)
	for _, s := range shocks {
		assert.Greater(t, s, -0.2)
		assert.Less(t, s, 0.2)
	}

	// Every day jumps by e^-0.1 when the intensity covers each step.
	crashy := JumpDiffusion{Lambda: 252, Mu: -0.1}
	for _, s := range crashy.Shocks(simulation.NewRand(3), 50) {
		assert.InDelta(t, math.Exp(-0.1)-1, s, 1e-12)
	}

	cfg := DefaultConfig()
	cfg.Shocks = JumpDiffusion{Sigma: 0.3, Lambda: 10, Mu: -0.05, Delta: 0.02}.Shocks(simulation.NewRand(9), cfg.Days)
	res, err := Run(1000, cfg)
	require.NoError(t, err)
	assert.Equal(t, res.Values[cfg.CrashDay-1]*0.5, res.Values[cfg.CrashDay])
}

func TestCalibrateJumps(t *testing.T) {
	returns := make([]float64, 0, 252)
	for i := 0; i < 246; i++ {
		if i%2 == 0 {
			returns = append(returns, 0.01)
		} else {
			returns = append(returns, -0.01)
		}
	}
	returns = append(returns, -0.2, -0.2, -0.2, -0.1, -0.1, -0.1)

	m, err := CalibrateJumps(returns, 3)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, m.Lambda, 1e-9)
	assert.InDelta(t, -0.15, m.Mu, 1e-9)
	assert.InDelta(t, math.Sqrt(0.003), m.Delta, 1e-9)
	assert.InDelta(t, 0.01*math.Sqrt(246.0/245)*math.Sqrt(252), m.Sigma, 1e-9)

	_, err = CalibrateJumps(returns[:246], 3)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
	_, err = CalibrateJumps(returns, 0)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestRunKeepsCrashValueUnrounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shocks = make([]float64, cfg.Days)
	cfg.Shocks[1] = -0.00885

	res, err := Run(1000, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 991.15, res.Values[24], 1e-9)
	assert.Equal(t, res.Values[24]*0.5, res.Values[25])
	assert.InDelta(t, 495.575, res.Values[25], 1e-9)
	assert.Equal(t, stats.RoundTwoDP(1000-res.Values[25]), res.Losses[25])
}
