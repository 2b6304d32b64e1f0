package config

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/bcdannyboy/varisk/marketdata"
	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/pricing"
	"github.com/bcdannyboy/varisk/stats"
	"github.com/bcdannyboy/varisk/stress"
	"github.com/bcdannyboy/varisk/tradier"
	"github.com/bcdannyboy/varisk/volatility"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

const defaultRangeDays = 30

// OptionQuoter looks up the market price of an option contract.
type OptionQuoter interface {
	GetQuote(ctx context.Context, symbol string) (tradier.Quote, error)
}

// Sources are the collaborators a setup is built from.
type Sources struct {
	Provider marketdata.Provider
	// Quoter is optional; options with a contract need it.
	Quoter OptionQuoter
	db     *sql.DB
}

func (s Sources) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NewSources wires the configured market data provider, wrapped in the SQLite
// quote cache when one is configured.
func NewSources(ctx context.Context, d DataConfig, logger *zap.Logger) (Sources, error) {
	var src Sources
	switch strings.ToLower(d.Provider) {
	case "", "yahoo":
		src.Provider = marketdata.NewYahooClient(logger)
	case "tradier":
		if d.TradierKey == "" {
			return Sources{}, models.InvalidInput("data.tradier_key", "", "tradier provider needs TRADIER_KEY")
		}
		client := tradier.NewClient(d.TradierKey)
		src.Provider, src.Quoter = client, client
	case "csv":
		src.Provider = marketdata.CSVProvider{Dir: d.Dir}
	default:
		return Sources{}, models.InvalidInput("data.provider", d.Provider, "unknown market data provider")
	}
	if src.Quoter == nil && d.TradierKey != "" {
		src.Quoter = tradier.NewClient(d.TradierKey)
	}

	if d.Cache != "" {
		db, err := marketdata.OpenSQLite(d.Cache)
		if err != nil {
			return Sources{}, fmt.Errorf("failed to open quote cache: %w", err)
		}
		cache, err := marketdata.NewCache(ctx, db, src.Provider, logger)
		if err != nil {
			db.Close()
			return Sources{}, err
		}
		src.Provider, src.db = cache, db
	}
	return src, nil
}

// BuildSetup fetches prices for every position and option underlying and
// assembles the validated setup.
func BuildSetup(ctx context.Context, c *Config, src Sources, logger *zap.Logger) (models.Setup, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	model, err := models.ParseModel(c.Model)
	if err != nil {
		return models.Setup{}, err
	}
	b := builder{
		cfg:    c,
		src:    src,
		logger: logger,
		prices: map[string]models.PriceSeries{},
		quotes: map[string][]marketdata.Quote{},
	}

	var portfolio models.Portfolio
	for _, p := range c.Positions {
		prices, err := b.pricesFor(ctx, p.Symbol, p.PriceFile)
		if err != nil {
			return models.Setup{}, err
		}
		portfolio.Positions = append(portfolio.Positions, models.Position{
			Symbol:     strings.ToUpper(p.Symbol),
			Investment: p.Investment,
			Prices:     prices,
		})
	}
	for _, o := range c.Options {
		opt, err := b.option(ctx, o)
		if err != nil {
			return models.Setup{}, err
		}
		portfolio.Options = append(portfolio.Options, opt)
	}

	setup := models.Setup{Confidence: c.Confidence, Horizon: c.Horizon, Model: model, Portfolio: portfolio}
	if err := setup.Validate(); err != nil {
		return models.Setup{}, err
	}
	return setup, nil
}

type builder struct {
	cfg    *Config
	src    Sources
	logger *zap.Logger
	prices map[string]models.PriceSeries
	quotes map[string][]marketdata.Quote
}

func (b *builder) pricesFor(ctx context.Context, symbol, file string) (models.PriceSeries, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return marketdata.ParseClosingPrices(f)
	}

	symbol = strings.ToUpper(symbol)
	if prices, ok := b.prices[symbol]; ok {
		return prices, nil
	}
	if b.src.Provider == nil {
		return nil, models.InvalidInput("provider", nil, "no market data provider for %s", symbol)
	}
	start, end, err := b.cfg.Data.Range()
	if err != nil {
		return nil, err
	}
	quotes, err := b.src.Provider.GetQuotes(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	prices := marketdata.ClosingPrices(quotes)
	if len(prices) < 2 {
		return nil, models.InsufficientData("prices", len(prices), "only %d prices for %s", len(prices), symbol)
	}
	b.logger.Info("loaded prices", zap.String("symbol", symbol), zap.Int("days", len(prices)))
	b.prices[symbol] = prices
	b.quotes[symbol] = quotes
	return prices, nil
}

func (b *builder) option(ctx context.Context, o OptionConfig) (models.Option, error) {
	style, err := ParseStyle(o.Style)
	if err != nil {
		return models.Option{}, err
	}
	typ, err := ParseType(o.Type)
	if err != nil {
		return models.Option{}, err
	}
	underlying := o.Underlying
	if underlying == "" {
		underlying = o.Symbol
	}
	prices, err := b.pricesFor(ctx, underlying, "")
	if err != nil {
		return models.Option{}, err
	}

	opt := models.Option{
		Symbol:            strings.ToUpper(o.Symbol),
		Style:             style,
		Type:              typ,
		Strike:            o.Strike,
		InitialStockPrice: o.StockPrice,
		TimeToMaturity:    o.MaturityDays,
		DailyVolatility:   o.Volatility,
		Interest:          o.Interest,
		DividendYield:     o.DividendYield,
		Shares:            o.Shares,
		Underlying:        prices,
	}
	if opt.InitialStockPrice == 0 {
		opt.InitialStockPrice = prices[0]
	}
	if opt.DailyVolatility == 0 {
		if opt.DailyVolatility, err = b.optionVolatility(ctx, o, opt); err != nil {
			return models.Option{}, fmt.Errorf("option %s: %w", opt.Symbol, err)
		}
	}
	return opt, nil
}

// optionVolatility uses, in order: a range estimator over the underlying's
// bars, the volatility implied by a market price, and the configured
// estimator over the underlying's returns.
func (b *builder) optionVolatility(ctx context.Context, o OptionConfig, opt models.Option) (float64, error) {
	if o.RangeEstimator != "" {
		days := o.RangeDays
		if days == 0 {
			days = defaultRangeDays
		}
		underlying := o.Underlying
		if underlying == "" {
			underlying = o.Symbol
		}
		return volatility.RangeVolatility(o.RangeEstimator, b.quotes[strings.ToUpper(underlying)], days)
	}

	price := o.MarketPrice
	if price == 0 && o.Contract != "" {
		if b.src.Quoter == nil {
			return 0, models.InvalidInput("contract", o.Contract, "quoting a contract needs a Tradier key")
		}
		q, err := b.src.Quoter.GetQuote(ctx, o.Contract)
		if err != nil {
			return 0, err
		}
		price = q.Mid()
	}
	if price > 0 {
		iv, err := pricing.ImpliedVolatility(price, opt.Type, opt.InitialStockPrice, opt.Strike, opt.YearsToMaturity(opt.State()), opt.Interest, opt.DividendYield)
		if err != nil {
			return 0, err
		}
		b.logger.Debug("implied volatility", zap.String("symbol", opt.Symbol), zap.Float64("annual", iv))
		return iv / math.Sqrt(models.TradingDays), nil
	}

	est, err := volatility.ByName(b.cfg.Volatility, b.cfg.VolatilityParams)
	if err != nil {
		return 0, err
	}
	returns, err := stats.DailyReturns(opt.Underlying)
	if err != nil {
		return 0, err
	}
	return est.Volatility(returns)
}

// StressShocks draws the daily shocks for the stress test. Nil means the
// default uniform shocks.
func StressShocks(s StressConfig, p models.Portfolio, rng *rand.Rand) ([]float64, error) {
	if !strings.EqualFold(s.Shocks, "jump") {
		return nil, nil
	}
	days := s.Days
	if days == 0 {
		days = stress.DefaultDays
	}
	jumps := s.Jumps
	if jumps == (stress.JumpDiffusion{}) {
		if len(p.Positions) == 0 {
			return nil, models.InvalidInput("stress.jumps", nil, "calibrating jumps needs a position")
		}
		returns, err := stats.DailyReturns(p.Positions[0].Prices)
		if err != nil {
			return nil, err
		}
		if jumps, err = stress.CalibrateJumps(returns, s.JumpThreshold); err != nil {
			return nil, err
		}
	}
	return jumps.Shocks(rng, days), nil
}
