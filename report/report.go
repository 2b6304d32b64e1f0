package report

import (
	"fmt"
	"io"
	"time"

	"github.com/bcdannyboy/varisk/models"
	"github.com/shopspring/decimal"
	"github.com/xhhuango/json"
)

// Report is the JSON document written at the end of a run. Amounts are
// rounded to cents.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Model       models.Model    `json:"model"`
	Confidence  int             `json:"confidence"`
	Horizon     int             `json:"horizon"`
	Initial     decimal.Decimal `json:"initial_value"`
	VaR         *VaR            `json:"var,omitempty"`
	Backtest    *Backtest       `json:"backtest,omitempty"`
	Stress      *Stress         `json:"stress,omitempty"`
}

type VaR struct {
	Final   decimal.Decimal `json:"final"`
	Maximum decimal.Decimal `json:"maximum"`
}

type Backtest struct {
	Days       int  `json:"days"`
	Acceptable int  `json:"acceptable_exceptions"`
	Observed   int  `json:"observed_exceptions"`
	Passed     bool `json:"passed"`
}

type Stress struct {
	MinValue decimal.Decimal   `json:"min_value"`
	MaxLoss  decimal.Decimal   `json:"max_loss"`
	Values   []decimal.Decimal `json:"values"`
	Losses   []decimal.Decimal `json:"losses"`
}

func New(setup models.Setup, initial float64, now time.Time) *Report {
	return &Report{
		GeneratedAt: now.UTC(),
		Model:       setup.Model,
		Confidence:  setup.Confidence,
		Horizon:     setup.Horizon,
		Initial:     Money(initial),
	}
}

// Money rounds x half away from zero to two decimal places.
func Money(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(2)
}

func moneySlice(xs []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(xs))
	for i, x := range xs {
		out[i] = Money(x)
	}
	return out
}

func (r *Report) SetVaR(v models.VaRResult) {
	r.VaR = &VaR{Final: Money(v.FinalVaR), Maximum: Money(v.MaximumVaR)}
}

func (r *Report) SetBacktest(b models.BacktestResult) {
	r.Backtest = &Backtest{
		Days:       len(b.Estimates),
		Acceptable: b.AcceptableExceptions,
		Observed:   b.ObservedExceptions,
		Passed:     b.Passed(),
	}
}

func (r *Report) SetStress(s models.StressResult) {
	r.Stress = &Stress{
		MinValue: Money(s.MinValue()),
		MaxLoss:  Money(s.MaxLoss()),
		Values:   moneySlice(s.Values),
		Losses:   moneySlice(s.Losses),
	}
}

func (r *Report) Write(w io.Writer) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
