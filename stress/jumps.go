package stress

import (
	"math"

	"github.com/bcdannyboy/varisk/models"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

// JumpDiffusion is a Merton jump-diffusion in annual units: diffusion
// volatility Sigma, jump intensity Lambda per year, and log jump sizes
// drawn from N(Mu, Delta²).
type JumpDiffusion struct {
	Sigma  float64 `mapstructure:"sigma"`
	Lambda float64 `mapstructure:"lambda"`
	Mu     float64 `mapstructure:"mu"`
	Delta  float64 `mapstructure:"delta"`
}

// Shocks draws one simple daily return per day from the jump-diffusion with
// zero drift. Shocks[0] is drawn too so the slice can be fed to Run directly.
func (m JumpDiffusion) Shocks(rng *rand.Rand, days int) []float64 {
	dt := 1.0 / models.TradingDays
	shocks := make([]float64, days)
	for t := range shocks {
		logRet := -0.5*m.Sigma*m.Sigma*dt + m.Sigma*math.Sqrt(dt)*rng.NormFloat64()
		if rng.Float64() < m.Lambda*dt {
			logRet += m.Mu + m.Delta*rng.NormFloat64()
		}
		shocks[t] = math.Exp(logRet) - 1
	}
	return shocks
}

// CalibrateJumps fits a jump-diffusion to daily log returns. Returns further
// than threshold standard deviations from zero count as jumps; the rest set
// the diffusion volatility.
func CalibrateJumps(returns []float64, threshold float64) (JumpDiffusion, error) {
	if len(returns) < 2 {
		return JumpDiffusion{}, models.InsufficientData("returns", len(returns), "need at least two returns")
	}
	if threshold <= 0 {
		return JumpDiffusion{}, models.InvalidInput("threshold", threshold, "jump threshold must be positive")
	}
	cut := threshold * stat.StdDev(returns, nil)

	var jumps, diffusion []float64
	for _, r := range returns {
		if math.Abs(r) > cut {
			jumps = append(jumps, r)
		} else {
			diffusion = append(diffusion, r)
		}
	}
	if len(jumps) < 2 || len(diffusion) < 2 {
		return JumpDiffusion{}, models.InsufficientData("jumps", len(jumps), "need at least two jumps and two ordinary days to calibrate")
	}

	mu, delta := stat.MeanStdDev(jumps, nil)
	return JumpDiffusion{
		Sigma:  stat.StdDev(diffusion, nil) * math.Sqrt(models.TradingDays),
		Lambda: float64(len(jumps)) / float64(len(returns)) * models.TradingDays,
		Mu:     mu,
		Delta:  delta,
	}, nil
}
