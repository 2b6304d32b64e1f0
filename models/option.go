package models

import "math"

// TradingDays is the number of trading days in a year
const TradingDays = 252

type OptionStyle int

const (
	European OptionStyle = iota
	American
	Bermudan
)

func (s OptionStyle) String() string {
	switch s {
	case European:
		return "European"
	case American:
		return "American"
	case Bermudan:
		return "Bermudan"
	}
	return "Unknown"
}

type OptionType int

const (
	Call OptionType = iota
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "Call"
	case Put:
		return "Put"
	}
	return "Unknown"
}

// Option is an option leg. It is never mutated; per-day pricing inputs live in OptionState.
type Option struct {
	Symbol            string
	Style             OptionStyle
	Type              OptionType
	Strike            float64
	InitialStockPrice float64
	TimeToMaturity    int // trading days
	DailyVolatility   float64
	Interest          float64 // annual
	DividendYield     float64 // annual, continuous
	Shares            float64
	Underlying        PriceSeries
}

// State returns the pricing inputs at inception.
func (o Option) State() OptionState {
	return OptionState{StockPrice: o.InitialStockPrice, TimeToMaturity: o.TimeToMaturity}
}

// YearsToMaturity converts the remaining trading days of s into years.
func (o Option) YearsToMaturity(s OptionState) float64 {
	return float64(s.TimeToMaturity) / TradingDays
}

// AnnualVolatility scales the daily volatility to a yearly figure.
func (o Option) AnnualVolatility() float64 {
	return o.DailyVolatility * math.Sqrt(TradingDays)
}

// Intrinsic is the immediate exercise value at stock price s.
func (o Option) Intrinsic(s float64) float64 {
	if o.Type == Call {
		return math.Max(s-o.Strike, 0)
	}
	return math.Max(o.Strike-s, 0)
}

// OptionState is the underlying price and remaining maturity on one repricing day
type OptionState struct {
	StockPrice     float64
	TimeToMaturity int
}

// Roll returns the state `day` days after s when the underlying moved by the log return ret.
func (s OptionState) Roll(ret float64, day int) OptionState {
	return OptionState{
		StockPrice:     math.Exp(ret) * s.StockPrice,
		TimeToMaturity: s.TimeToMaturity - day,
	}
}

func (s OptionState) Expired() bool {
	return s.TimeToMaturity < 0
}
