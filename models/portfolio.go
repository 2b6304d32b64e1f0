package models

// PriceSeries holds daily closes ordered newest first.
type PriceSeries []float64

// NewPriceSeries copies prices so later changes to the input do not leak in.
func NewPriceSeries(prices []float64) PriceSeries {
	out := make(PriceSeries, len(prices))
	copy(out, prices)
	return out
}

type Position struct {
	Symbol     string
	Investment float64
	Prices     PriceSeries
}

type Portfolio struct {
	Positions []Position
	Options   []Option
}

// Investments returns the notional of every position in order.
func (p Portfolio) Investments() []float64 {
	out := make([]float64, len(p.Positions))
	for i, pos := range p.Positions {
		out[i] = pos.Investment
	}
	return out
}

// AssetsValue is the total notional of the non-option positions.
func (p Portfolio) AssetsValue() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.Investment
	}
	return total
}

// IsSingleAsset reports whether the portfolio is exactly one position and no options.
func (p Portfolio) IsSingleAsset() bool {
	return len(p.Positions) == 1 && len(p.Options) == 0
}

// RequireSingleAsset fails with an UnsupportedPortfolioShape error unless IsSingleAsset holds.
func (p Portfolio) RequireSingleAsset() error {
	if !p.IsSingleAsset() {
		return UnsupportedPortfolioShape(len(p.Positions), len(p.Options))
	}
	return nil
}
