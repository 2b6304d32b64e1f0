package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/bcdannyboy/varisk/models"
	"github.com/bcdannyboy/varisk/probability"
	"github.com/bcdannyboy/varisk/stress"
	"github.com/bcdannyboy/varisk/volatility"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

type Config struct {
	Confidence       int                          `mapstructure:"confidence"`
	Horizon          int                          `mapstructure:"horizon"`
	Model            string                       `mapstructure:"model"`
	Volatility       string                       `mapstructure:"volatility"`
	VolatilityParams volatility.Params            `mapstructure:"volatility_params"`
	MonteCarlo       probability.MonteCarloConfig `mapstructure:"monte_carlo"`
	// OptionSimulations sizes the per-option Monte Carlo pricers.
	OptionSimulations int              `mapstructure:"option_simulations"`
	Data              DataConfig       `mapstructure:"data"`
	Positions         []PositionConfig `mapstructure:"positions"`
	Options           []OptionConfig   `mapstructure:"options"`
	Backtest          BacktestConfig   `mapstructure:"backtest"`
	Stress            StressConfig     `mapstructure:"stress"`
	LogLevel          string           `mapstructure:"log_level"`
	Production        bool             `mapstructure:"production"`
	// Output is the report path; empty writes to stdout.
	Output string `mapstructure:"output"`
}

type DataConfig struct {
	// Provider is one of yahoo, tradier or csv.
	Provider   string `mapstructure:"provider"`
	Dir        string `mapstructure:"dir"`
	Cache      string `mapstructure:"cache"`
	Start      string `mapstructure:"start"`
	End        string `mapstructure:"end"`
	TradierKey string `mapstructure:"tradier_key"`
}

type PositionConfig struct {
	Symbol     string  `mapstructure:"symbol"`
	Investment float64 `mapstructure:"investment"`
	// PriceFile, when set, is read instead of asking the provider.
	PriceFile string `mapstructure:"price_file"`
}

type OptionConfig struct {
	Symbol string `mapstructure:"symbol"`
	// Underlying defaults to Symbol.
	Underlying    string  `mapstructure:"underlying"`
	Style         string  `mapstructure:"style"`
	Type          string  `mapstructure:"type"`
	Strike        float64 `mapstructure:"strike"`
	StockPrice    float64 `mapstructure:"stock_price"`
	MaturityDays  int     `mapstructure:"maturity_days"`
	Volatility    float64 `mapstructure:"volatility"`
	Interest      float64 `mapstructure:"interest"`
	DividendYield float64 `mapstructure:"dividend_yield"`
	Shares        float64 `mapstructure:"shares"`
	// MarketPrice, when set and Volatility is not, is inverted to an implied volatility.
	MarketPrice float64 `mapstructure:"market_price"`
	// Contract is an OCC symbol whose quote supplies MarketPrice.
	Contract string `mapstructure:"contract"`
	// RangeEstimator names an OHLC estimator (parkinson, garman_klass,
	// rogers_satchell, yang_zhang) applied to the last RangeDays bars.
	RangeEstimator string `mapstructure:"range_estimator"`
	RangeDays      int    `mapstructure:"range_days"`
}

type BacktestConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Days    int  `mapstructure:"days"`
}

type StressConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Days        int     `mapstructure:"days"`
	CrashDay    int     `mapstructure:"crash_day"`
	CrashFactor float64 `mapstructure:"crash_factor"`
	Seed        uint64  `mapstructure:"seed"`
	// Shocks is uniform or jump. Jump draws daily moves from Jumps, or from a
	// jump-diffusion calibrated on the first position when Jumps is unset.
	Shocks        string               `mapstructure:"shocks"`
	Jumps         stress.JumpDiffusion `mapstructure:"jumps"`
	JumpThreshold float64              `mapstructure:"jump_threshold"`
}

func setDefaults(v *viper.Viper) {
	p := volatility.DefaultParams()
	v.SetDefault("confidence", 99)
	v.SetDefault("horizon", 1)
	v.SetDefault("model", "HS")
	v.SetDefault("volatility", "ewma")
	v.SetDefault("volatility_params.lambda", p.Lambda)
	v.SetDefault("volatility_params.gamma", p.Gamma)
	v.SetDefault("volatility_params.alpha", p.Alpha)
	v.SetDefault("volatility_params.beta", p.Beta)
	v.SetDefault("volatility_params.first_day_variance", p.FirstDayVariance)
	v.SetDefault("volatility_params.first_day_return", p.FirstDayReturn)
	v.SetDefault("monte_carlo.simulations", 1000)
	v.SetDefault("monte_carlo.seed", 1)
	v.SetDefault("monte_carlo.workers", 0)
	v.SetDefault("option_simulations", 1000)
	v.SetDefault("data.provider", "yahoo")
	v.SetDefault("backtest.days", 100)
	v.SetDefault("stress.days", 100)
	v.SetDefault("stress.crash_day", 25)
	v.SetDefault("stress.crash_factor", 0.5)
	v.SetDefault("stress.seed", 1)
	v.SetDefault("stress.shocks", "uniform")
	v.SetDefault("stress.jump_threshold", 3.0)
	v.SetDefault("log_level", "info")
}

// LoadEnv loads .env style files into the process environment. Missing files
// are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML config at path. Every key can be overridden by a
// VARISK_ prefixed variable, e.g. VARISK_MONTE_CARLO_SEED, and the Tradier
// token is also read from TRADIER_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VARISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("data.tradier_key", "VARISK_DATA_TRADIER_KEY", "TRADIER_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// MustLoad is Load for program start-up.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic("Couldn't load configuration, cannot start. Terminating. Error: " + err.Error())
	}
	return config
}

// Validate checks the parts of the config that do not need market data.
func (c *Config) Validate() error {
	if _, err := models.ParseModel(c.Model); err != nil {
		return err
	}
	if _, err := volatility.ByName(c.Volatility, c.VolatilityParams); err != nil {
		return err
	}
	if len(c.Positions) == 0 && len(c.Options) == 0 {
		return models.InvalidInput("portfolio", 0, "config lists no positions or options")
	}
	for _, o := range c.Options {
		if _, err := ParseStyle(o.Style); err != nil {
			return err
		}
		if _, err := ParseType(o.Type); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.Stress.Shocks) {
	case "", "uniform", "jump":
	default:
		return models.InvalidInput("stress.shocks", c.Stress.Shocks, "shocks are uniform or jump")
	}
	if _, _, err := c.Data.Range(); err != nil {
		return err
	}
	return nil
}

// Range parses the data window. A missing end is today and a missing start
// is two years before the end.
func (d DataConfig) Range() (time.Time, time.Time, error) {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if d.End != "" {
		t, err := time.Parse(dateLayout, d.End)
		if err != nil {
			return time.Time{}, time.Time{}, models.InvalidInput("data.end", d.End, "dates use YYYY-MM-DD")
		}
		end = t
	}
	start := end.AddDate(-2, 0, 0)
	if d.Start != "" {
		t, err := time.Parse(dateLayout, d.Start)
		if err != nil {
			return time.Time{}, time.Time{}, models.InvalidInput("data.start", d.Start, "dates use YYYY-MM-DD")
		}
		start = t
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, models.InvalidInput("data.start", d.Start, "start must be before end")
	}
	return start, end, nil
}

func ParseStyle(s string) (models.OptionStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "european":
		return models.European, nil
	case "american":
		return models.American, nil
	case "bermudan":
		return models.Bermudan, nil
	}
	return 0, models.InvalidInput("style", s, "unknown option style")
}

func ParseType(s string) (models.OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return models.Call, nil
	case "put":
		return models.Put, nil
	}
	return 0, models.InvalidInput("type", s, "unknown option type")
}
