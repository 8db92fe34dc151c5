// Package config loads rxforecast settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/autoarima"
	"github.com/sartorproj/rxforecast/diagnostics"
	"github.com/sartorproj/rxforecast/prescribing"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all rxforecast configuration.
type Config struct {
	Input       InputConfig       `yaml:"input"`
	Model       ModelConfig       `yaml:"model"`
	Forecast    ForecastConfig    `yaml:"forecast"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Selection   SelectionConfig   `yaml:"selection"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// InputConfig locates the prescribing extract.
type InputConfig struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"` // csv, parquet, postgres; empty guesses from Path
	Encoding  string `yaml:"encoding"`
	Delimiter string `yaml:"delimiter"`
	Postgres  string `yaml:"postgres_url"`
	Table     string `yaml:"table"`
	Measure   string `yaml:"measure"`   // items or cost
	Substance string `yaml:"substance"` // optional filter
	Region    string `yaml:"region"`    // optional filter
	TopN      int    `yaml:"top_n"`
}

// OrderConfig is a non-seasonal (p, d, q).
type OrderConfig struct {
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`
}

// SeasonalConfig is a seasonal (P, D, Q, s).
type SeasonalConfig struct {
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`
	S int `yaml:"s"`
}

// ModelConfig is the model fitted by estimate, predict and diagnose.
type ModelConfig struct {
	Order         OrderConfig    `yaml:"order"`
	Seasonal      SeasonalConfig `yaml:"seasonal"`
	Trend         string         `yaml:"trend"` // n, c, t, ct
	MaxIterations int            `yaml:"max_iterations"`
}

// ForecastConfig sets the hold-out split and forecast bands.
type ForecastConfig struct {
	TestSize   int       `yaml:"test_size"`
	Future     int       `yaml:"future"`
	Levels     []float64 `yaml:"levels"`
	ParamAlpha float64   `yaml:"param_alpha"`
}

// DiagnosticsConfig sets the residual checks. The diagnose command fits the
// model order with its own Trend.
type DiagnosticsConfig struct {
	Trend        string  `yaml:"trend"` // n, c, t, ct
	LjungBoxLags []int   `yaml:"ljung_box_lags"`
	ACFLags      int     `yaml:"acf_lags"`
	AdjustDOF    bool    `yaml:"adjust_dof"`
	Alpha        float64 `yaml:"alpha"`
	Bins         int     `yaml:"histogram_bins"`
}

// SelectionConfig bounds the automatic order search.
type SelectionConfig struct {
	MaxP      int    `yaml:"max_p"`
	MaxD      int    `yaml:"max_d"`
	MaxQ      int    `yaml:"max_q"`
	MaxSP     int    `yaml:"max_seasonal_p"`
	MaxSD     int    `yaml:"max_seasonal_d"`
	MaxSQ     int    `yaml:"max_seasonal_q"`
	Period    int    `yaml:"period"`
	Criterion string `yaml:"criterion"`
	Stepwise  bool   `yaml:"stepwise"`
	Drift     bool   `yaml:"drift"`
}

// OutputConfig says where artefacts go.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	ChartFormat string `yaml:"chart_format"`
	JSON        bool   `yaml:"json"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// DefaultSeasonal is the seasonal term used by --seasonal runs.
var DefaultSeasonal = SeasonalConfig{P: 1, S: 12}

// DefaultConfig returns the settings of the original monthly analysis:
// items, ARIMA(1,1,0) with a linear trend (none for residual diagnostics),
// five held-out and five future months, 90/70/50% bands, top five
// substances.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Path:      "data.csv",
			Encoding:  "utf-8",
			Delimiter: ",",
			Table:     "regional_drug_summary",
			Measure:   "items",
			TopN:      5,
		},
		Model: ModelConfig{
			Order:         OrderConfig{P: 1, D: 1, Q: 0},
			Trend:         "t",
			MaxIterations: 2000,
		},
		Forecast: ForecastConfig{
			TestSize:   5,
			Future:     5,
			Levels:     []float64{0.90, 0.70, 0.50},
			ParamAlpha: 0.10,
		},
		Diagnostics: DiagnosticsConfig{
			Trend:        "n",
			LjungBoxLags: []int{12, 20},
			ACFLags:      12,
			Alpha:        0.05,
			Bins:         15,
		},
		Selection: SelectionConfig{
			MaxP:      3,
			MaxD:      2,
			MaxQ:      3,
			MaxSP:     1,
			MaxSD:     1,
			MaxSQ:     1,
			Criterion: "aicc",
			Stepwise:  true,
			Drift:     true,
		},
		Output: OutputConfig{
			Dir:         "out",
			ChartFormat: "png",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file (or an empty path) yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RXFORECAST_INPUT"); v != "" {
		c.Input.Path = v
	}
	if v := os.Getenv("RXFORECAST_ENCODING"); v != "" {
		c.Input.Encoding = v
	}
	if v := os.Getenv("RXFORECAST_MEASURE"); v != "" {
		c.Input.Measure = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Input.Postgres = v
	}
	if v := os.Getenv("RXFORECAST_POSTGRES_URL"); v != "" {
		c.Input.Postgres = v
	}
	if v := os.Getenv("RXFORECAST_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("RXFORECAST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RXFORECAST_TEST_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Forecast.TestSize = n
		}
	}
}

var (
	validFormats      = []string{"", "csv", "parquet", "postgres"}
	validChartFormats = []string{"png", "svg", "pdf"}
	validLevels       = []string{"debug", "info", "warn", "error"}
	validLogFormats   = []string{"json", "console"}
)

// Validate checks every setting that does not depend on the data.
func (c *Config) Validate() error {
	if !slices.Contains(validFormats, c.Input.Format) {
		return fmt.Errorf("%w: input format %q (valid: csv, parquet, postgres)", ErrInvalid, c.Input.Format)
	}
	if _, err := c.Measure(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len([]rune(c.Input.Delimiter)) > 1 {
		return fmt.Errorf("%w: delimiter %q must be a single character", ErrInvalid, c.Input.Delimiter)
	}
	if _, err := c.ArimaConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := arima.ParseTrend(c.Diagnostics.Trend); err != nil {
		return fmt.Errorf("%w: diagnostics %v", ErrInvalid, err)
	}
	if c.Forecast.TestSize < 1 || c.Forecast.Future < 1 {
		return fmt.Errorf("%w: test_size and future must be at least 1", ErrInvalid)
	}
	if len(c.Forecast.Levels) == 0 {
		return fmt.Errorf("%w: no forecast levels", ErrInvalid)
	}
	for _, l := range c.Forecast.Levels {
		if !(l > 0 && l < 1) {
			return fmt.Errorf("%w: forecast level %v outside (0, 1)", ErrInvalid, l)
		}
	}
	for name, a := range map[string]float64{"param_alpha": c.Forecast.ParamAlpha, "diagnostics alpha": c.Diagnostics.Alpha} {
		if !(a > 0 && a < 1) {
			return fmt.Errorf("%w: %s %v outside (0, 1)", ErrInvalid, name, a)
		}
	}
	for _, lag := range c.Diagnostics.LjungBoxLags {
		if lag < 1 {
			return fmt.Errorf("%w: Ljung-Box lag %d", ErrInvalid, lag)
		}
	}
	if _, err := autoarima.ParseCriterion(c.Selection.Criterion); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !slices.Contains(validChartFormats, strings.ToLower(c.Output.ChartFormat)) {
		return fmt.Errorf("%w: chart format %q (valid: %v)", ErrInvalid, c.Output.ChartFormat, validChartFormats)
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: log level %q (valid: %v)", ErrInvalid, c.Logging.Level, validLevels)
	}
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("%w: log format %q (valid: %v)", ErrInvalid, c.Logging.Format, validLogFormats)
	}
	return nil
}

// Measure parses Input.Measure.
func (c *Config) Measure() (prescribing.Measure, error) {
	return prescribing.ParseMeasure(c.Input.Measure)
}

// InputFormat returns Input.Format, guessing from the path extension when
// unset.
func (c *Config) InputFormat() string {
	if c.Input.Format != "" {
		return c.Input.Format
	}
	if c.Input.Postgres != "" && c.Input.Path == "" {
		return "postgres"
	}
	if strings.EqualFold(filepath.Ext(c.Input.Path), ".parquet") {
		return "parquet"
	}
	return "csv"
}

// CSVOptions converts the input settings for prescribing.LoadCSV.
func (c *Config) CSVOptions() *prescribing.CSVOptions {
	opts := prescribing.DefaultCSVOptions()
	opts.Encoding = c.Input.Encoding
	if r := []rune(c.Input.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	return opts
}

// ArimaConfig converts the model settings.
func (c *Config) ArimaConfig() (arima.Config, error) {
	trend, err := arima.ParseTrend(c.Model.Trend)
	if err != nil {
		return arima.Config{}, err
	}
	m := c.Model
	cfg := arima.Config{
		Order:         arima.Order{P: m.Order.P, D: m.Order.D, Q: m.Order.Q},
		Seasonal:      arima.SeasonalOrder{P: m.Seasonal.P, D: m.Seasonal.D, Q: m.Seasonal.Q, S: m.Seasonal.S},
		Trend:         trend,
		MaxIterations: m.MaxIterations,
	}
	if m.Order.P < 0 || m.Order.D < 0 || m.Order.Q < 0 || m.Seasonal.P < 0 || m.Seasonal.D < 0 || m.Seasonal.Q < 0 || m.Seasonal.S < 0 {
		return arima.Config{}, fmt.Errorf("negative order in %s", cfg)
	}
	if !cfg.Seasonal.IsZero() && m.Seasonal.S < 2 {
		return arima.Config{}, fmt.Errorf("seasonal terms need a period of at least 2, got %d", m.Seasonal.S)
	}
	return cfg, nil
}

// DiagnosticsModel is ArimaConfig with the diagnostics trend.
func (c *Config) DiagnosticsModel() (arima.Config, error) {
	cfg, err := c.ArimaConfig()
	if err != nil {
		return arima.Config{}, err
	}
	trend, err := arima.ParseTrend(c.Diagnostics.Trend)
	if err != nil {
		return arima.Config{}, err
	}
	cfg.Trend = trend
	return cfg, nil
}

// AutoConfig converts the selection settings.
func (c *Config) AutoConfig() (*autoarima.Config, error) {
	criterion, err := autoarima.ParseCriterion(c.Selection.Criterion)
	if err != nil {
		return nil, err
	}
	s := c.Selection
	return &autoarima.Config{
		MaxP:      s.MaxP,
		MaxD:      s.MaxD,
		MaxQ:      s.MaxQ,
		MaxSP:     s.MaxSP,
		MaxSD:     s.MaxSD,
		MaxSQ:     s.MaxSQ,
		Period:    s.Period,
		Stepwise:  s.Stepwise,
		Criterion: criterion,
		Alpha:     c.Diagnostics.Alpha,
		Drift:     s.Drift,
	}, nil
}

// DiagnosticsOptions converts the diagnostics settings.
func (c *Config) DiagnosticsOptions() diagnostics.Options {
	return diagnostics.Options{
		Lags:      slices.Clone(c.Diagnostics.LjungBoxLags),
		MaxLag:    c.Diagnostics.ACFLags,
		AdjustDOF: c.Diagnostics.AdjustDOF,
	}
}

// ChartPath joins name and the chart format under the output directory.
func (c *Config) ChartPath(name string) string {
	return filepath.Join(c.Output.Dir, name+"."+strings.ToLower(c.Output.ChartFormat))
}
