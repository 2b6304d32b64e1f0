package pricing

import (
	"math"

	"github.com/bcdannyboy/varisk/models"
)

// Binomial prices on a recombining tree with one step per trading day:
// floor(T·252) steps of dt = T/steps. T is in years, sigma and r are annual.
// American and Bermudan nodes may exercise early.
func Binomial(t models.OptionType, style models.OptionStyle, S, X, T, sigma, r float64) (float64, error) {
	return BinomialDividend(t, style, S, X, T, sigma, r, 0)
}

// BinomialDividend is Binomial on a stock paying a continuous annual dividend
// yield q.
func BinomialDividend(t models.OptionType, style models.OptionStyle, S, X, T, sigma, r, q float64) (float64, error) {
	days := int(math.Floor(T * models.TradingDays))
	if days < 1 {
		return 0, models.InvalidInput("maturity", T, "lattice needs at least one trading day")
	}
	return lattice(t, style, S, X, T, sigma, r, q, days)
}

// CRR is the Cox-Ross-Rubinstein lattice with a continuous dividend yield q
// and an explicit number of steps. Only European and American styles apply.
func CRR(t models.OptionType, style models.OptionStyle, S, X, T, sigma, r, q float64, steps int) (float64, error) {
	if style != models.European && style != models.American {
		return 0, models.UnsupportedOptionStyle(style)
	}
	if steps < 1 {
		return 0, models.InvalidInput("steps", steps, "lattice needs at least one step")
	}
	return lattice(t, style, S, X, T, sigma, r, q, steps)
}

func lattice(t models.OptionType, style models.OptionStyle, S, X, T, sigma, r, q float64, steps int) (float64, error) {
	if t != models.Call && t != models.Put {
		return 0, models.UnsupportedOptionType(t)
	}
	earlyExercise := false
	switch style {
	case models.European:
	case models.American, models.Bermudan:
		earlyExercise = true
	default:
		return 0, models.UnsupportedOptionStyle(style)
	}

	dt := T / float64(steps)
	u := math.Exp(sigma * math.Sqrt(dt))
	d := 1 / u
	if u < 1 || math.IsNaN(u) {
		return 0, models.LatticeInstability("u", u)
	}
	p := (math.Exp((r-q)*dt) - d) / (u - d)
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, models.LatticeInstability("p", p)
	}
	disc := math.Exp(-r * dt)

	// values[j] is the node with j up moves at the current step.
	values := make([]float64, steps+1)
	for j := 0; j <= steps; j++ {
		values[j] = intrinsic(t, S*math.Pow(u, float64(2*j-steps)), X)
	}
	for i := steps - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			v := disc * (p*values[j+1] + (1-p)*values[j])
			if earlyExercise {
				v = math.Max(v, intrinsic(t, S*math.Pow(u, float64(2*j-i)), X))
			}
			values[j] = v
		}
	}
	return values[0], nil
}
