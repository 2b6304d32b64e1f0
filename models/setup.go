package models

import "strings"

type Model string

const (
	ModelBuilding        Model = "MB"
	HistoricalSimulation Model = "HS"
	MonteCarlo           Model = "MC"
)

// ParseModel accepts the short selectors and the spelled-out model names.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "mb", "modelbuilding":
		return ModelBuilding, nil
	case "hs", "historicalsimulation":
		return HistoricalSimulation, nil
	case "mc", "montecarlo", "montecarlosimulation":
		return MonteCarlo, nil
	}
	return "", UnknownModel(s)
}

// SupportedConfidences lists the confidence levels with a z-score.
var SupportedConfidences = []int{75, 80, 85, 90, 95, 96, 97, 98, 99}

// Setup describes one VaR run
type Setup struct {
	Confidence int
	Horizon    int
	Model      Model
	Portfolio  Portfolio
}

func (s Setup) Validate() error {
	supported := false
	for _, c := range SupportedConfidences {
		if c == s.Confidence {
			supported = true
			break
		}
	}
	if !supported {
		return UnsupportedConfidence(s.Confidence)
	}
	if s.Horizon < 1 {
		return InvalidInput("horizon", s.Horizon, "time horizon must be at least one day")
	}
	if len(s.Portfolio.Positions) == 0 && len(s.Portfolio.Options) == 0 {
		return InvalidInput("portfolio", 0, "portfolio is empty")
	}
	for _, pos := range s.Portfolio.Positions {
		if pos.Investment <= 0 {
			return InvalidInput("investment", pos.Investment, "position %s must have a positive investment", pos.Symbol)
		}
	}
	for _, opt := range s.Portfolio.Options {
		switch {
		case opt.Shares <= 0:
			return InvalidInput("shares", opt.Shares, "option %s must hold a positive number of shares", opt.Symbol)
		case opt.Strike <= 0 || opt.InitialStockPrice <= 0:
			return InvalidInput("strike", opt.Strike, "option %s needs positive strike and stock price", opt.Symbol)
		case opt.TimeToMaturity < 0:
			return InvalidInput("maturity", opt.TimeToMaturity, "option %s has already expired", opt.Symbol)
		case opt.DailyVolatility <= 0:
			return InvalidInput("volatility", opt.DailyVolatility, "option %s needs a positive volatility", opt.Symbol)
		}
	}
	return nil
}
