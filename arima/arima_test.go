package arima

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/rxforecast/timeseries"
)

func simulateAR1(n int, mean, phi, sigma float64, seed uint64) *timeseries.Series {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	values := make([]float64, n)
	u := 0.0
	for i := range values {
		u = phi*u + sigma*rng.NormFloat64()
		values[i] = mean + u
	}
	return timeseries.New(values)
}

func TestFitConstantSeries(t *testing.T) {
	series := timeseries.New([]float64{50, 50, 50, 50, 50, 50})

	model, err := Fit(series, Config{Order: Order{P: 1, D: 1, Q: 0}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, model.Sigma2)

	fc, err := model.Forecast(4, 0.90, 0.50)
	require.NoError(t, err)
	for h := range 4 {
		assert.InDelta(t, 50.0, fc.Mean[h], 1e-9)
		for _, level := range fc.Levels() {
			iv, _ := fc.Interval(level)
			assert.InDelta(t, 50.0, iv.Lower[h], 1e-9)
			assert.InDelta(t, 50.0, iv.Upper[h], 1e-9)
		}
	}
}

func TestForecastInvalidArguments(t *testing.T) {
	model, err := Fit(simulateAR1(60, 0, 0.5, 1, 1), Config{Order: Order{P: 1}})
	require.NoError(t, err)

	_, err = model.Forecast(0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	for _, level := range []float64{0, 1, -0.5, 1.5, math.NaN()} {
		_, err = model.Forecast(3, level)
		assert.ErrorIs(t, err, ErrInvalidConfidence, "level %v", level)
	}

	fc, err := model.Forecast(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{DefaultLevel}, fc.Levels())
}

func TestForecastSplitScenario(t *testing.T) {
	series := timeseries.New([]float64{100, 105, 98, 110, 120, 115, 130})
	train, test, err := timeseries.Split(series, 5)
	require.NoError(t, err)

	model, err := Fit(train, Config{Order: Order{P: 1, D: 1}, Trend: TrendLinear})
	require.NoError(t, err)

	fc, err := model.Forecast(test.Len(), 0.90, 0.70, 0.50)
	require.NoError(t, err)
	require.Len(t, fc.Mean, 2)
	assert.Equal(t, test.Periods, fc.Periods)
	for _, v := range fc.Mean {
		assert.False(t, math.IsNaN(v))
	}
}

func TestForecastBands(t *testing.T) {
	series := simulateAR1(120, 500, 0.6, 10, 2)
	for i := range series.Values {
		series.Values[i] += 3 * float64(i)
	}

	model, err := Fit(series, Config{Order: Order{P: 1, D: 1}, Trend: TrendLinear})
	require.NoError(t, err)

	levels := []float64{0.50, 0.70, 0.90}
	fc, err := model.Forecast(10, levels...)
	require.NoError(t, err)
	assert.Equal(t, levels, fc.Levels())

	for i, level := range levels {
		iv, ok := fc.Interval(level)
		require.True(t, ok)
		width := iv.Width()
		for h := range fc.Horizon {
			assert.LessOrEqual(t, iv.Lower[h], fc.Mean[h])
			assert.GreaterOrEqual(t, iv.Upper[h], fc.Mean[h])
			if h > 0 {
				assert.GreaterOrEqual(t, width[h], width[h-1], "width shrinks at step %d", h)
			}
			if i > 0 {
				narrower, _ := fc.Interval(levels[i-1])
				assert.GreaterOrEqual(t, width[h], narrower.Width()[h])
			}
		}
	}
}

func TestForecastPrefix(t *testing.T) {
	model, err := Fit(simulateAR1(80, 20, 0.4, 2, 3), Config{Order: Order{P: 1, Q: 1}, Trend: TrendConstant})
	require.NoError(t, err)

	short, err := model.Forecast(3, 0.8, 0.95)
	require.NoError(t, err)
	long, err := model.Forecast(8, 0.8, 0.95)
	require.NoError(t, err)

	if diff := cmp.Diff(short, long.Slice(0, 3)); diff != "" {
		t.Errorf("short forecast is not a prefix of the long one (-short +long):\n%s", diff)
	}
}

func TestFitAR1(t *testing.T) {
	model, err := Fit(simulateAR1(600, 10, 0.6, 1, 4), Config{Order: Order{P: 1}, Trend: TrendConstant})
	require.NoError(t, err)

	require.Len(t, model.AR, 1)
	assert.InDelta(t, 0.6, model.AR[0], 0.1)
	assert.InDelta(t, 10, model.Trend[0], 0.5)
	assert.InDelta(t, 1, model.Sigma2, 0.2)
	assert.Greater(t, model.Iterations, 0)

	params := model.Params()
	require.Len(t, params, 3)
	assert.Equal(t, "ar.L1", params[1].Name)
	assert.False(t, math.IsNaN(params[1].StdErr))
	assert.InDelta(t, 0.033, params[1].StdErr, 0.02)
	assert.Less(t, params[1].PValue(), 1e-6)

	ci, err := model.ConfInt(0.10)
	require.NoError(t, err)
	for _, iv := range ci {
		assert.Less(t, iv.Lower, iv.Value, iv.Name)
		assert.Greater(t, iv.Upper, iv.Value, iv.Name)
	}

	_, err = model.ConfInt(0)
	assert.ErrorIs(t, err, ErrInvalidConfidence)
}

func TestFitMA1(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	values := make([]float64, 600)
	prev := 0.0
	for i := range values {
		e := rng.NormFloat64()
		values[i] = e + 0.5*prev
		prev = e
	}

	model, err := Fit(timeseries.New(values), Config{Order: Order{Q: 1}})
	require.NoError(t, err)
	require.Len(t, model.MA, 1)
	assert.InDelta(t, 0.5, model.MA[0], 0.12)
}

func TestFitRandomWalkWithDrift(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	values := make([]float64, 100)
	level := 1000.0
	diffSum := 0.0
	for i := range values {
		step := 2 + rng.NormFloat64()
		level += step
		values[i] = level
		if i > 0 {
			diffSum += step
		}
	}

	model, err := Fit(timeseries.New(values), Config{Order: Order{D: 1}, Trend: TrendLinear})
	require.NoError(t, err)
	assert.Equal(t, 0, model.Iterations, "pure regression needs no optimiser")

	drift := diffSum / 99
	assert.InDelta(t, drift, model.Trend[0], 1e-9)
	assert.InEpsilon(t, math.Sqrt(model.Sigma2/99), model.Params()[0].StdErr, 1e-3)

	fc, err := model.Forecast(5)
	require.NoError(t, err)
	assert.InDelta(t, values[99]+drift, fc.Mean[0], 1e-9)
	for h := 1; h < 5; h++ {
		assert.InDelta(t, drift, fc.Mean[h]-fc.Mean[h-1], 1e-9)
		assert.InDelta(t, math.Sqrt(model.Sigma2*float64(h+1)), fc.StdErr[h], 1e-9)
	}
}

func TestFitSeasonal(t *testing.T) {
	series := simulateAR1(144, 100, 0.3, 1, 9)
	for i := range series.Values {
		series.Values[i] += 10 * math.Sin(2*math.Pi*float64(i)/12)
	}

	cfg := Config{
		Order:    Order{P: 1},
		Seasonal: SeasonalOrder{P: 1, S: 12},
		Trend:    TrendConstant,
	}
	model, err := Fit(series, cfg)
	require.NoError(t, err)

	require.Len(t, model.SAR, 1)
	assert.Greater(t, model.SAR[0], 0.5)
	assert.Equal(t, 144-12-1, model.NObs)

	names := make([]string, 0)
	for _, p := range model.Params() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"const", "ar.L1", "ar.S.L12", "sigma2"}, names)

	fc, err := model.Forecast(12)
	require.NoError(t, err)
	assert.Len(t, fc.Mean, 12)
}

func TestSeasonalDifferencingIntegratesBack(t *testing.T) {
	pattern := []float64{5, 7, 9, 4, 3, 8, 12, 11, 6, 5, 7, 10}
	values := make([]float64, 36)
	for i := range values {
		values[i] = pattern[i%12] + 2*float64(i)
	}

	cfg := Config{Order: Order{D: 1}, Seasonal: SeasonalOrder{D: 1, S: 12}}
	model, err := Fit(timeseries.New(values), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, model.Sigma2)
	assert.Equal(t, 13, model.ResidualOffset())
	assert.Len(t, model.Residuals(), 36-13)

	fc, err := model.Forecast(14)
	require.NoError(t, err)
	for h := range 14 {
		i := 36 + h
		assert.InDelta(t, pattern[i%12]+2*float64(i), fc.Mean[h], 1e-9, "step %d", h)
	}
}

func TestFitErrors(t *testing.T) {
	series := simulateAR1(30, 0, 0.5, 1, 10)

	tests := []struct {
		name string
		cfg  Config
		data *timeseries.Series
		err  error
	}{
		{"constant removed by d", Config{Order: Order{P: 1, D: 1}, Trend: TrendConstant}, series, ErrTrendEliminated},
		{"linear removed by d=2", Config{Order: Order{D: 2}, Trend: TrendLinear}, series, ErrTrendEliminated},
		{"constant removed by D", Config{Seasonal: SeasonalOrder{D: 1, S: 4}, Trend: TrendConstantLinear}, series, ErrTrendEliminated},
		{"negative order", Config{Order: Order{P: -1}}, series, ErrInvalidOrder},
		{"seasonal without period", Config{Seasonal: SeasonalOrder{P: 1, S: 1}}, series, ErrInvalidOrder},
		{"too short", Config{Order: Order{P: 1, D: 1}}, timeseries.New([]float64{1, 2}), ErrInsufficientData},
		{"too short seasonal", Config{Seasonal: SeasonalOrder{P: 1, S: 12}}, timeseries.New(make([]float64, 12)), ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.data, tt.cfg)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFitIterationLimit(t *testing.T) {
	_, err := Fit(simulateAR1(120, 0, 0.5, 1, 12), Config{Order: Order{P: 2, Q: 1}, MaxIterations: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConvergence), "got %v", err)
}

func TestFitSeriesWithoutPeriods(t *testing.T) {
	train := &timeseries.Series{Values: []float64{3, 5, 4, 6, 8, 7, 9, 11}, Name: "items"}

	model, err := Fit(train, Config{Order: Order{P: 1, D: 1}})
	require.NoError(t, err)
	assert.Nil(t, train.Periods)

	got := model.Train()
	require.Len(t, got.Periods, 8)
	assert.Equal(t, "items", got.Name)
	assert.True(t, got.Contiguous())

	fc, err := model.Forecast(2)
	require.NoError(t, err)
	require.Len(t, fc.Periods, 2)
	assert.Equal(t, got.Periods[7].Next(), fc.Periods[0])
	assert.Equal(t, fc.Periods[0].Next(), fc.Periods[1])
}

func TestResidualsAlignment(t *testing.T) {
	series := simulateAR1(50, 30, 0.5, 1, 11)

	model, err := Fit(series, Config{Order: Order{P: 1, D: 1}})
	require.NoError(t, err)

	resid := model.Residuals()
	fitted := model.FittedValues()
	require.Len(t, resid, 49)
	require.Len(t, fitted, 49)
	assert.Equal(t, 1, model.ResidualOffset())
	for i := range resid {
		assert.InDelta(t, series.Values[i+1], fitted[i]+resid[i], 1e-9)
	}

	summary := model.Summary()
	require.NotNil(t, summary)
	assert.NotNil(t, summary.LjungBox)
	assert.Equal(t, 48, summary.NObs)
}

func TestParamNames(t *testing.T) {
	cfg := Config{
		Order:    Order{P: 2, D: 1, Q: 1},
		Seasonal: SeasonalOrder{P: 1, Q: 1, S: 12},
		Trend:    TrendLinear,
	}
	names := (&Model{Config: cfg}).paramNames()

	assert.Equal(t, []string{"x1", "ar.L1", "ar.L2", "ar.S.L12", "ma.L1", "ma.S.L12", "sigma2"}, names)
}

func TestParseTrend(t *testing.T) {
	for in, want := range map[string]Trend{"": TrendNone, "n": TrendNone, "c": TrendConstant, "t": TrendLinear, "CT": TrendConstantLinear} {
		got, err := ParseTrend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTrend("quadratic")
	assert.Error(t, err)

	assert.Equal(t, "ARIMA(1,1,0)(1,0,0,12) trend=t", Config{
		Order:    Order{P: 1, D: 1},
		Seasonal: SeasonalOrder{P: 1, S: 12},
		Trend:    TrendLinear,
	}.String())
}

func TestStationaryTransform(t *testing.T) {
	for _, x := range [][]float64{{0.3}, {1.2, -0.4}, {-0.8, 0.5, 1.1}} {
		phi := constrainStationary(x)
		back := unconstrainStationary(phi)
		assert.InDeltaSlice(t, x, back, 1e-9)

		// Impulse response of a stationary AR polynomial dies out.
		psi := psiWeights(arPoly(phi, 1), []float64{1}, 400)
		assert.Less(t, math.Abs(psi[399]), 1e-3)
	}
	assert.InDelta(t, -0.3/math.Sqrt(1.09), constrainStationary([]float64{0.3})[0], 1e-12)
}

func TestPolynomials(t *testing.T) {
	assert.Equal(t, []float64{1, -1, 0, 0, -1, 1}, diffPoly(1, 1, 4))
	assert.Equal(t, []float64{1, -2, 1}, diffPoly(2, 0, 0))
	assert.Equal(t, []float64{1, -0.5, 0, 0, -0.2, 0.1}, polyMul(arPoly([]float64{0.5}, 1), arPoly([]float64{0.2}, 4)))

	psi := psiWeights(arPoly([]float64{0.5}, 1), maPoly([]float64{0.4}, 1), 4)
	assert.InDeltaSlice(t, []float64{1, 0.9, 0.45, 0.225}, psi, 1e-12)

	integrated := psiWeights(diffPoly(1, 0, 0), []float64{1}, 4)
	assert.Equal(t, []float64{1, 1, 1, 1}, integrated)
}

func TestYuleWalker(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.5}, yuleWalker([]float64{1, 0.5}, 1), 1e-12)

	// AR(2) with phi = (0.5, 0.2): rho1 = 0.625, rho2 = 0.5125.
	phi := yuleWalker([]float64{1, 0.625, 0.5125}, 2)
	assert.InDeltaSlice(t, []float64{0.5, 0.2}, phi, 1e-9)

	assert.Nil(t, yuleWalker([]float64{1}, 1))
}
