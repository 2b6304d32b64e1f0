package pricing

import (
	"math"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/stats"
	"gonum.org/v1/gonum/optimize"
)

const (
	maxIterations = 100
	epsilon       = 1e-8
)

// BlackScholes prices a European option. T is in years, r and v are annual.
func BlackScholes(t models.OptionType, S, X, T, r, v float64) (float64, error) {
	return BlackScholesMerton(t, S, X, T, r, 0, v)
}

// BlackScholesMerton is BlackScholes on a stock paying a continuous annual
// dividend yield q.
func BlackScholesMerton(t models.OptionType, S, X, T, r, q, v float64) (float64, error) {
	if t != models.Call && t != models.Put {
		return 0, models.UnsupportedOptionType(t)
	}
	if T <= 0 {
		return intrinsic(t, S, X), nil
	}
	d1, d2 := d1d2(S, X, T, r, q, v)
	fwd := S * math.Exp(-q*T)
	if t == models.Call {
		return fwd*stats.CumulativeNormal(d1) - X*math.Exp(-r*T)*stats.CumulativeNormal(d2), nil
	}
	return X*math.Exp(-r*T)*stats.CumulativeNormal(-d2) - fwd*stats.CumulativeNormal(-d1), nil
}

func d1d2(S, X, T, r, q, v float64) (float64, float64) {
	d1 := (math.Log(S/X) + (r-q+v*v/2)*T) / (v * math.Sqrt(T))
	return d1, d1 - v*math.Sqrt(T)
}

func intrinsic(t models.OptionType, S, X float64) float64 {
	if t == models.Call {
		return math.Max(S-X, 0)
	}
	return math.Max(X-S, 0)
}

// Greeks holds the Black-Scholes price and sensitivities
type Greeks struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

func CalculateGreeks(t models.OptionType, S, X, T, r, v float64) (Greeks, error) {
	return greeks(t, S, X, T, r, 0, v)
}

func greeks(t models.OptionType, S, X, T, r, q, v float64) (Greeks, error) {
	price, err := BlackScholesMerton(t, S, X, T, r, q, v)
	if err != nil {
		return Greeks{}, err
	}
	if T <= 0 {
		return Greeks{Price: price}, nil
	}
	d1, d2 := d1d2(S, X, T, r, q, v)
	disc := X * math.Exp(-r*T)
	carry := math.Exp(-q * T)

	g := Greeks{
		Price: price,
		Gamma: carry * stats.NormalPDF(d1) / (S * v * math.Sqrt(T)),
		Vega:  S * carry * stats.NormalPDF(d1) * math.Sqrt(T),
	}
	decay := -(S * carry * stats.NormalPDF(d1) * v) / (2 * math.Sqrt(T))
	if t == models.Call {
		g.Delta = carry * stats.CumulativeNormal(d1)
		g.Theta = decay - r*disc*stats.CumulativeNormal(d2) + q*S*carry*stats.CumulativeNormal(d1)
		g.Rho = T * disc * stats.CumulativeNormal(d2)
	} else {
		g.Delta = carry * (stats.CumulativeNormal(d1) - 1)
		g.Theta = decay + r*disc*stats.CumulativeNormal(-d2) - q*S*carry*stats.CumulativeNormal(-d1)
		g.Rho = -T * disc * stats.CumulativeNormal(-d2)
	}
	return g, nil
}

// ImpliedVolatility solves for the annual volatility that reproduces target
// on a stock with dividend yield q.
// Newton steps on vega come first; a Nelder-Mead search on the squared
// pricing error takes over when vega vanishes or Newton does not converge.
func ImpliedVolatility(target float64, t models.OptionType, S, X, T, r, q float64) (float64, error) {
	if target <= 0 || T <= 0 {
		return 0, models.InvalidInput("target", target, "implied volatility needs a positive price and maturity")
	}
	if target < intrinsic(t, S*math.Exp(-q*T), X*math.Exp(-r*T)) {
		return 0, models.InvalidInput("target", target, "price is below the discounted intrinsic value")
	}

	sigma := 0.5
	for i := 0; i < maxIterations; i++ {
		g, err := greeks(t, S, X, T, r, q, sigma)
		if err != nil {
			return 0, err
		}
		diff := g.Price - target
		if math.Abs(diff) < epsilon {
			return sigma, nil
		}
		if g.Vega < epsilon {
			break
		}
		sigma = sigma - diff/g.Vega
		if sigma <= 0 {
			sigma = 0.0001
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if x[0] <= 0 {
				return math.Inf(1)
			}
			price, _ := BlackScholesMerton(t, S, X, T, r, q, x[0])
			return (price - target) * (price - target)
		},
	}
	result, err := optimize.Minimize(problem, []float64{0.3}, nil, &optimize.NelderMead{})
	if err != nil {
		return 0, models.InvalidInput("target", target, "implied volatility did not converge: %v", err)
	}
	return result.X[0], nil
}
