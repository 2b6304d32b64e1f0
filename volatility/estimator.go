package volatility

import (
	"math"
	"strings"

	"github.com/bcdannyboy/varisk/models"
	"gonum.org/v1/gonum/stat"
)

// Estimator turns a newest-first daily return series into a daily volatility
type Estimator interface {
	Name() string
	Volatility(returns []float64) (float64, error)
}

// EWMA is the exponentially weighted moving average variance model.
type EWMA struct {
	Params Params
}

func NewEWMA(p Params) EWMA { return EWMA{Params: p} }

func (EWMA) Name() string { return "ewma" }

func (e EWMA) Volatility(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return 0, models.InsufficientData("returns", len(returns), "EWMA needs at least two returns")
	}
	lambda := e.Params.Lambda
	n := len(returns)
	variance := lambda*e.Params.FirstDayVariance + (1-lambda)*e.Params.FirstDayReturn*e.Params.FirstDayReturn
	for t := n - 2; t >= 0; t-- {
		r := returns[t+1]
		variance = lambda*variance + (1-lambda)*r*r
	}
	return math.Sqrt(variance), nil
}

// GARCH is GARCH(1,1) with fixed weights and the sample variance of the window
// as the long-run variance.
type GARCH struct {
	Params Params
}

func NewGARCH(p Params) GARCH { return GARCH{Params: p} }

func (GARCH) Name() string { return "garch" }

func (g GARCH) Volatility(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return 0, models.InsufficientData("returns", len(returns), "GARCH needs at least two returns")
	}
	p := g.Params
	longRun := stat.Variance(returns, nil)
	n := len(returns)
	variance := p.Gamma*longRun + p.Alpha*p.FirstDayReturn*p.FirstDayReturn + p.Beta*p.FirstDayVariance
	for t := n - 2; t >= 0; t-- {
		r := returns[t+1]
		variance = p.Gamma*longRun + p.Alpha*r*r + p.Beta*variance
	}
	return math.Sqrt(variance), nil
}

// StandardDeviation is the plain sample standard deviation of daily returns.
type StandardDeviation struct{}

func (StandardDeviation) Name() string { return "stdev" }

func (StandardDeviation) Volatility(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return 0, models.InsufficientData("returns", len(returns), "standard deviation needs at least two returns")
	}
	return stat.StdDev(returns, nil), nil
}

// ByName resolves a configured estimator name.
func ByName(name string, p Params) (Estimator, error) {
	switch strings.ToLower(name) {
	case "", "ewma":
		return NewEWMA(p), nil
	case "garch":
		return NewGARCH(p), nil
	case "stdev", "standard_deviation":
		return StandardDeviation{}, nil
	}
	return nil, models.InvalidInput("volatility", name, "unknown volatility estimator")
}
