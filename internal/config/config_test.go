package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/autoarima"
	"github.com/sartorproj/rxforecast/prescribing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	model, err := cfg.ArimaConfig()
	require.NoError(t, err)
	assert.Equal(t, "ARIMA(1,1,0) trend=t", model.String())

	measure, err := cfg.Measure()
	require.NoError(t, err)
	assert.Equal(t, prescribing.Items, measure)

	assert.Equal(t, []float64{0.90, 0.70, 0.50}, cfg.Forecast.Levels)
	assert.Equal(t, 5, cfg.Forecast.TestSize)
	assert.Equal(t, 5, cfg.Forecast.Future)
	assert.Equal(t, []int{12, 20}, cfg.Diagnostics.LjungBoxLags)
	assert.Equal(t, 5, cfg.Input.TopN)

	diag, err := cfg.DiagnosticsModel()
	require.NoError(t, err)
	assert.Equal(t, "ARIMA(1,1,0)", diag.String())
}

func TestDiagnosticsModelFollowsOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.Order = OrderConfig{P: 2, D: 1, Q: 1}
	cfg.Model.Seasonal = DefaultSeasonal
	cfg.Diagnostics.Trend = "t"

	diag, err := cfg.DiagnosticsModel()
	require.NoError(t, err)
	assert.Equal(t, arima.Order{P: 2, D: 1, Q: 1}, diag.Order)
	assert.Equal(t, arima.SeasonalOrder{P: 1, S: 12}, diag.Seasonal)
	assert.Equal(t, arima.TrendLinear, diag.Trend)

	cfg.Model.Trend = "n"
	cfg.Diagnostics.Trend = ""
	diag, err = cfg.DiagnosticsModel()
	require.NoError(t, err)
	assert.Equal(t, arima.TrendNone, diag.Trend)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rxforecast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  path: extract.parquet
  measure: cost
model:
  order: {p: 2, d: 1, q: 1}
  seasonal: {p: 1, d: 0, q: 0, s: 12}
  trend: n
forecast:
  levels: [0.95]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "parquet", cfg.InputFormat())
	measure, err := cfg.Measure()
	require.NoError(t, err)
	assert.Equal(t, prescribing.Cost, measure)

	model, err := cfg.ArimaConfig()
	require.NoError(t, err)
	assert.Equal(t, "ARIMA(2,1,1)(1,0,0,12)", model.String())
	assert.Equal(t, []float64{0.95}, cfg.Forecast.Levels)
	// untouched sections keep their defaults
	assert.Equal(t, 5, cfg.Forecast.TestSize)
	assert.Equal(t, "png", cfg.Output.ChartFormat)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: [unclosed"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RXFORECAST_INPUT", "env.csv")
	t.Setenv("RXFORECAST_ENCODING", "latin1")
	t.Setenv("RXFORECAST_OUTPUT_DIR", "/tmp/rx")
	t.Setenv("RXFORECAST_TEST_SIZE", "7")
	t.Setenv("DATABASE_URL", "postgres://fallback")
	t.Setenv("RXFORECAST_POSTGRES_URL", "postgres://preferred")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env.csv", cfg.Input.Path)
	assert.Equal(t, "latin1", cfg.Input.Encoding)
	assert.Equal(t, "/tmp/rx", cfg.Output.Dir)
	assert.Equal(t, 7, cfg.Forecast.TestSize)
	assert.Equal(t, "postgres://preferred", cfg.Input.Postgres)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rxforecast.yaml")
	want := DefaultConfig()
	want.Model.Seasonal = DefaultSeasonal
	want.Selection.Period = 12

	require.NoError(t, want.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"format", func(c *Config) { c.Input.Format = "xml" }, "input format"},
		{"measure", func(c *Config) { c.Input.Measure = "quantity" }, "unknown measure"},
		{"delimiter", func(c *Config) { c.Input.Delimiter = ";;" }, "single character"},
		{"trend", func(c *Config) { c.Model.Trend = "quadratic" }, "unknown trend"},
		{"negative order", func(c *Config) { c.Model.Order.P = -1 }, "negative order"},
		{"seasonal period", func(c *Config) { c.Model.Seasonal = SeasonalConfig{P: 1} }, "period of at least 2"},
		{"test size", func(c *Config) { c.Forecast.TestSize = 0 }, "test_size"},
		{"no levels", func(c *Config) { c.Forecast.Levels = nil }, "no forecast levels"},
		{"level", func(c *Config) { c.Forecast.Levels = []float64{0.9, 1} }, "forecast level 1"},
		{"alpha", func(c *Config) { c.Forecast.ParamAlpha = 0 }, "param_alpha"},
		{"lag", func(c *Config) { c.Diagnostics.LjungBoxLags = []int{0} }, "Ljung-Box lag"},
		{"diagnostics trend", func(c *Config) { c.Diagnostics.Trend = "x" }, "diagnostics arima: unknown trend"},
		{"criterion", func(c *Config) { c.Selection.Criterion = "hqic" }, "criterion"},
		{"chart", func(c *Config) { c.Output.ChartFormat = "gif" }, "chart format"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "log level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestInputFormat(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "csv", cfg.InputFormat())

	cfg.Input.Path = "data/EXTRACT.PARQUET"
	assert.Equal(t, "parquet", cfg.InputFormat())

	cfg.Input.Path = ""
	cfg.Input.Postgres = "postgres://localhost/rx"
	assert.Equal(t, "postgres", cfg.InputFormat())

	cfg.Input.Format = "csv"
	assert.Equal(t, "csv", cfg.InputFormat())
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Encoding = "windows-1252"
	cfg.Input.Delimiter = ";"
	opts := cfg.CSVOptions()
	assert.Equal(t, "windows-1252", opts.Encoding)
	assert.Equal(t, ';', opts.Delimiter)

	auto, err := cfg.AutoConfig()
	require.NoError(t, err)
	assert.Equal(t, autoarima.AICc, auto.Criterion)
	assert.True(t, auto.Stepwise)
	assert.Equal(t, 3, auto.MaxP)

	cfg.Diagnostics.AdjustDOF = true
	opts2 := cfg.DiagnosticsOptions()
	assert.Equal(t, []int{12, 20}, opts2.Lags)
	assert.Equal(t, 12, opts2.MaxLag)
	assert.True(t, opts2.AdjustDOF)

	cfg.Output.Dir = "out"
	cfg.Output.ChartFormat = "SVG"
	assert.Equal(t, filepath.Join("out", "forecast.svg"), cfg.ChartPath("forecast"))

	cfg.Model.Trend = "ct"
	model, err := cfg.ArimaConfig()
	require.NoError(t, err)
	assert.Equal(t, arima.TrendConstantLinear, model.Trend)
}
