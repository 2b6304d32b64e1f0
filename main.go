package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcdannyboy/varisk/backtest"
	"github.com/bcdannyboy/varisk/config"
	"github.com/bcdannyboy/varisk/logger"
	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/pricing"
	"github.com/bcdannyboy/varisk/probability"
	"github.com/bcdannyboy/varisk/report"
	"github.com/bcdannyboy/varisk/simulation"
	"github.com/bcdannyboy/varisk/stress"
	"github.com/bcdannyboy/varisk/volatility"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"
)

// optionSeedMask decorrelates the Bermudan pricer stream from the path streams.
const optionSeedMask = 0x5bd1e995

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %s\n", err)
		os.Exit(1)
	}
	path := os.Getenv("VARISK_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg := config.MustLoad(path)

	level := cfg.LogLevel
	if l := os.Getenv("VARISK_LOG_LEVEL"); l != "" {
		level = l
	}
	log, err := logger.New(level, cfg.Production)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %s\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	src, err := config.NewSources(ctx, cfg.Data, log)
	if err != nil {
		return err
	}
	defer src.Close()

	setup, err := config.BuildSetup(ctx, cfg, src, log)
	if err != nil {
		return fmt.Errorf("building portfolio: %w", err)
	}

	e, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	initial, err := e.initialValue(setup.Portfolio)
	if err != nil {
		return err
	}
	rep := report.New(setup, initial, time.Now())

	res, err := e.estimators[setup.Model].Estimate(ctx, setup)
	if err != nil {
		return fmt.Errorf("estimating %s VaR: %w", setup.Model, err)
	}
	rep.SetVaR(res)
	fmt.Fprintf(os.Stderr, "%s VaR at %d%% over %d day(s): final %.2f, maximum %.2f\n",
		setup.Model, setup.Confidence, setup.Horizon, res.FinalVaR, res.MaximumVaR)

	switch {
	case cfg.Backtest.Enabled && !setup.Portfolio.IsSingleAsset():
		log.Warn("backtest skipped, it needs a single position without options")
	case cfg.Backtest.Enabled:
		bt, err := e.backtest(ctx, setup, cfg.Backtest.Days)
		if err != nil {
			return err
		}
		rep.SetBacktest(bt)
		fmt.Fprintf(os.Stderr, "Backtest: %d exceptions observed, %d acceptable\n", bt.ObservedExceptions, bt.AcceptableExceptions)
	}

	if cfg.Stress.Enabled {
		rng := simulation.NewRand(cfg.Stress.Seed)
		shocks, err := config.StressShocks(cfg.Stress, setup.Portfolio, rng)
		if err != nil {
			return fmt.Errorf("stress shocks: %w", err)
		}
		st, err := stress.Run(initial, stress.Config{
			Days:        cfg.Stress.Days,
			CrashDay:    cfg.Stress.CrashDay,
			CrashFactor: cfg.Stress.CrashFactor,
			Shocks:      shocks,
			Rand:        rng,
		})
		if err != nil {
			return fmt.Errorf("stress test: %w", err)
		}
		rep.SetStress(st)
		fmt.Fprintf(os.Stderr, "Stress: minimum value %.2f, maximum loss %.2f\n", st.MinValue(), st.MaxLoss())
	}

	var out io.Writer = os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := rep.Write(out); err != nil {
		return err
	}
	if cfg.Output != "" {
		fmt.Fprintf(os.Stderr, "Successfully wrote report to %s\n", cfg.Output)
	}
	return nil
}

type engine struct {
	pricing    pricing.Dispatcher
	estimators map[models.Model]probability.Estimator
	backtests  map[models.Model]probability.BacktestEstimator
	log        *zap.Logger
}

func newEngine(cfg *config.Config, log *zap.Logger) (*engine, error) {
	vol, err := volatility.ByName(cfg.Volatility, cfg.VolatilityParams)
	if err != nil {
		return nil, err
	}
	d := pricing.NewDispatcher(
		pricing.MonteCarloConfig{Simulations: cfg.OptionSimulations},
		simulation.NewRand(cfg.MonteCarlo.Seed^optionSeedMask),
	)
	mb := probability.NewModelBuilding(vol, cfg.VolatilityParams, log)
	hs := probability.NewHistoricalSimulation(d, log)
	mc := probability.NewMonteCarloSimulation(cfg.MonteCarlo, vol, cfg.VolatilityParams, d, log)
	return &engine{
		pricing: d,
		estimators: map[models.Model]probability.Estimator{
			models.ModelBuilding:        mb,
			models.HistoricalSimulation: hs,
			models.MonteCarlo:           mc,
		},
		backtests: map[models.Model]probability.BacktestEstimator{
			models.ModelBuilding:        mb,
			models.HistoricalSimulation: hs,
			models.MonteCarlo:           mc,
		},
		log: log,
	}, nil
}

// initialValue is the notional of the positions plus the priced option legs.
func (e *engine) initialValue(p models.Portfolio) (float64, error) {
	total := p.AssetsValue()
	for _, opt := range p.Options {
		v, err := e.pricing.InitialValue(opt)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func (e *engine) backtest(ctx context.Context, setup models.Setup, days int) (models.BacktestResult, error) {
	if days <= 0 {
		days = backtest.DefaultDays
	}
	scored := days - (setup.Horizon - 1)
	if scored < 1 {
		scored = 1
	}

	p := mpb.NewWithContext(ctx, mpb.WithOutput(os.Stderr), mpb.WithWidth(60))
	bar := p.AddBar(int64(scored),
		mpb.PrependDecorators(decor.Name(fmt.Sprintf("backtest %s ", setup.Model))),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
	)
	res, err := backtest.Run(ctx, setup, backtest.Config{
		Days:       days,
		Estimators: e.backtests,
		Progress:   bar.Increment,
		Logger:     e.log,
	})
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()
	if err != nil {
		return models.BacktestResult{}, fmt.Errorf("backtest: %w", err)
	}
	return res, nil
}
