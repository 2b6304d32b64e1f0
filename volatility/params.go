package volatility

// Params holds the fixed weights of the recursive variance models. The GARCH
// weights are not fitted to data.
type Params struct {
	// Lambda is the EWMA decay.
	Lambda float64 `mapstructure:"lambda"`
	// Gamma, Alpha and Beta weight the long-run variance, the squared return and
	// the previous variance in GARCH(1,1).
	Gamma float64 `mapstructure:"gamma"`
	Alpha float64 `mapstructure:"alpha"`
	Beta  float64 `mapstructure:"beta"`
	// FirstDayVariance and FirstDayReturn seed the recursion at the oldest day.
	FirstDayVariance float64 `mapstructure:"first_day_variance"`
	FirstDayReturn   float64 `mapstructure:"first_day_return"`
}

func DefaultParams() Params {
	return Params{
		Lambda:           0.94,
		Gamma:            0.05,
		Alpha:            0.13,
		Beta:             0.90,
		FirstDayVariance: 0.01,
		FirstDayReturn:   0.02,
	}
}
