package volatility

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bcdannyboy/varisk/marketdata"
	"github.com/bcdannyboy/varisk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleReturns = []float64{0.01, -0.02, 0.015, 0.003, -0.007}

func TestEWMA(t *testing.T) {
	vol, err := NewEWMA(DefaultParams()).Volatility(sampleReturns)
	require.NoError(t, err)
	assert.InDelta(t, 0.08600806508694402, vol, 1e-12)
}

func TestGARCH(t *testing.T) {
	vol, err := NewGARCH(DefaultParams()).Volatility(sampleReturns)
	require.NoError(t, err)
	assert.InDelta(t, 0.07786529511598862, vol, 1e-12)
}

func TestParameterSetsSideBySide(t *testing.T) {
	slow := DefaultParams()
	slow.Lambda = 0.97

	base, err := NewEWMA(DefaultParams()).Volatility(sampleReturns)
	require.NoError(t, err)
	alt, err := NewEWMA(slow).Volatility(sampleReturns)
	require.NoError(t, err)

	assert.InDelta(t, 0.09283375971611835, alt, 1e-12)
	assert.NotEqual(t, base, alt)
}

func TestEstimatorsRejectShortInput(t *testing.T) {
	for _, est := range []Estimator{NewEWMA(DefaultParams()), NewGARCH(DefaultParams()), StandardDeviation{}} {
		_, err := est.Volatility([]float64{0.01})
		assert.True(t, errors.Is(err, models.ErrInsufficientData), est.Name())
	}
}

func TestStandardDeviation(t *testing.T) {
	vol, err := StandardDeviation{}.Volatility(sampleReturns)
	require.NoError(t, err)
	assert.InDelta(t, 0.013989281611290838, vol, 1e-12)
}

func TestByName(t *testing.T) {
	est, err := ByName("garch", DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "garch", est.Name())

	est, err = ByName("", DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "ewma", est.Name())

	_, err = ByName("heston", DefaultParams())
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func flatBars(n int) []marketdata.Quote {
	bars := make([]marketdata.Quote, n)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = marketdata.Quote{
			Date:  day.AddDate(0, 0, i),
			Open:  100,
			High:  100 * math.Exp(0.01),
			Low:   100 * math.Exp(-0.01),
			Close: 100,
		}
	}
	return bars
}

func TestRangeVolatility(t *testing.T) {
	bars := flatBars(30)

	pk, err := RangeVolatility("parkinson", bars, 21)
	require.NoError(t, err)
	assert.InDelta(t, 0.02/(2*math.Sqrt(math.Ln2)), pk, 1e-12)

	gk, err := RangeVolatility("garman_klass", bars, 21)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.5*0.0004), gk, 1e-12)

	rs, err := RangeVolatility("rogers_satchell", bars, 21)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.0002), rs, 1e-12)

	yz, err := RangeVolatility("yang_zhang", bars, 21)
	require.NoError(t, err)
	assert.Greater(t, yz, 0.0)

	_, err = RangeVolatility("parkinson", bars, 31)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
	_, err = RangeVolatility("close_to_close", bars, 21)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}
