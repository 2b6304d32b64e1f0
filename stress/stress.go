package stress

import (
	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/stats"
	"golang.org/x/exp/rand"
)

const (
	DefaultDays        = 100
	DefaultCrashDay    = 25
	DefaultCrashFactor = 0.5
	// maxShockSteps is the largest default daily shock in hundredths.
	maxShockSteps = 4
)

type Config struct {
	Days        int     `mapstructure:"days"`
	CrashDay    int     `mapstructure:"crash_day"`
	CrashFactor float64 `mapstructure:"crash_factor"`
	// Shocks[t] is the return applied on day t. Shocks[0] is ignored. When
	// nil, DefaultShocks draws them from Rand.
	Shocks []float64  `mapstructure:"-"`
	Rand   *rand.Rand `mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{Days: DefaultDays, CrashDay: DefaultCrashDay, CrashFactor: DefaultCrashFactor}
}

// DefaultShocks draws one shock per day from {-0.04, ..., 0.04} in 0.01 steps:
// a magnitude uniform in 0..4 hundredths with a random sign.
func DefaultShocks(rng *rand.Rand, days int) []float64 {
	shocks := make([]float64, days)
	for t := range shocks {
		s := float64(rng.Intn(maxShockSteps+1)) / 100
		if rng.Intn(2) == 0 {
			s = -s
		}
		shocks[t] = s
	}
	return shocks
}

// Run walks the portfolio value forward one day at a time from initial. Every
// day applies its shock except the crash day, which multiplies the previous
// value by CrashFactor. Values and losses are rounded to cents.
func Run(initial float64, cfg Config) (models.StressResult, error) {
	if initial <= 0 {
		return models.StressResult{}, models.InvalidInput("initial", initial, "initial value must be positive")
	}
	if cfg.Days < 2 {
		return models.StressResult{}, models.InvalidInput("days", cfg.Days, "stress test needs at least two days")
	}
	if cfg.CrashDay < 1 || cfg.CrashDay >= cfg.Days {
		return models.StressResult{}, models.InvalidInput("crash_day", cfg.CrashDay, "crash day must fall in [1, %d)", cfg.Days)
	}
	shocks := cfg.Shocks
	if shocks == nil {
		if cfg.Rand == nil {
			return models.StressResult{}, models.InvalidInput("rand", nil, "random shocks need a random source")
		}
		shocks = DefaultShocks(cfg.Rand, cfg.Days)
	}
	if len(shocks) < cfg.Days {
		return models.StressResult{}, models.InvalidInput("shocks", len(shocks), "need a shock for each of %d days", cfg.Days)
	}

	res := models.StressResult{
		Values: make([]float64, cfg.Days),
		Losses: make([]float64, cfg.Days),
	}
	res.Values[0] = initial
	for t := 1; t < cfg.Days; t++ {
		prev := res.Values[t-1]
		if t == cfg.CrashDay {
			res.Values[t] = prev * cfg.CrashFactor
		} else {
			res.Values[t] = stats.RoundTwoDP(prev * (1 + shocks[t]))
		}
		res.Losses[t] = stats.RoundTwoDP(initial - res.Values[t])
	}
	return res, nil
}
