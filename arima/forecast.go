package arima

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/rxforecast/timeseries"
)

// DefaultLevel is the confidence level used when Forecast is given none.
const DefaultLevel = 0.95

// Interval is a symmetric confidence band around the forecast mean.
type Interval struct {
	Level float64
	Lower []float64
	Upper []float64
}

// Width returns Upper - Lower at each step.
func (iv Interval) Width() []float64 {
	out := make([]float64, len(iv.Lower))
	for i := range out {
		out[i] = iv.Upper[i] - iv.Lower[i]
	}
	return out
}

// Forecast holds point forecasts and bands for the steps after the
// training data. All bands share the same Mean.
type Forecast struct {
	Horizon   int
	Periods   []timeseries.Period
	Mean      []float64
	StdErr    []float64
	Intervals map[float64]Interval
}

// Levels returns the confidence levels in ascending order.
func (f *Forecast) Levels() []float64 {
	return slices.Sorted(maps.Keys(f.Intervals))
}

// Interval returns the band for level.
func (f *Forecast) Interval(level float64) (Interval, bool) {
	iv, ok := f.Intervals[level]
	return iv, ok
}

// Series returns the mean path as a series named name.
func (f *Forecast) Series(name string) *timeseries.Series {
	return &timeseries.Series{
		Periods: slices.Clone(f.Periods),
		Values:  slices.Clone(f.Mean),
		Name:    name,
	}
}

// Slice returns steps [from, to) of the forecast.
func (f *Forecast) Slice(from, to int) *Forecast {
	out := &Forecast{
		Horizon:   to - from,
		Periods:   slices.Clone(f.Periods[from:to]),
		Mean:      slices.Clone(f.Mean[from:to]),
		StdErr:    slices.Clone(f.StdErr[from:to]),
		Intervals: make(map[float64]Interval, len(f.Intervals)),
	}
	for level, iv := range f.Intervals {
		out.Intervals[level] = Interval{
			Level: level,
			Lower: slices.Clone(iv.Lower[from:to]),
			Upper: slices.Clone(iv.Upper[from:to]),
		}
	}
	return out
}

// Forecast predicts horizon steps past the training data with a band per
// confidence level (0.95 when none is given). A shorter horizon yields a
// prefix of a longer one.
func (m *Model) Forecast(horizon int, levels ...float64) (*Forecast, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	if len(levels) == 0 {
		levels = []float64{DefaultLevel}
	}
	for _, c := range levels {
		if !(c > 0 && c < 1) {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidConfidence, c)
		}
	}

	mean, err := m.meanPath(horizon)
	if err != nil {
		return nil, err
	}
	se := m.forecastStdErr(horizon)

	n := m.data.Len()
	last := m.data.Periods[n-1]
	periods := make([]timeseries.Period, horizon)
	for h := range periods {
		periods[h] = last.Add(h + 1)
	}

	intervals := make(map[float64]Interval, len(levels))
	for _, c := range levels {
		z := normalQuantile(1 - (1-c)/2)
		iv := Interval{
			Level: c,
			Lower: make([]float64, horizon),
			Upper: make([]float64, horizon),
		}
		for h := range horizon {
			iv.Lower[h] = mean[h] - z*se[h]
			iv.Upper[h] = mean[h] + z*se[h]
		}
		intervals[c] = iv
	}

	return &Forecast{
		Horizon:   horizon,
		Periods:   periods,
		Mean:      mean,
		StdErr:    se,
		Intervals: intervals,
	}, nil
}

// Predict returns point forecasts only.
func (m *Model) Predict(steps int) ([]float64, error) {
	f, err := m.Forecast(steps)
	if err != nil {
		return nil, err
	}
	return f.Mean, nil
}

// meanPath runs the ARMA recursion forward on the differenced scale with
// zero future shocks, adds the trend and integrates back.
func (m *Model) meanPath(horizon int) ([]float64, error) {
	e := m.est
	n := m.data.Len()
	size := len(e.w)

	x, err := m.design(n + horizon)
	if err != nil {
		return nil, err
	}

	beta, _, _, _, _ := e.split(m.params)
	arP, maP := e.polys(m.params)

	u := append(e.demean(beta), make([]float64, horizon)...)
	res := append(slices.Clone(m.residuals), make([]float64, horizon)...)

	w := make([]float64, horizon)
	for h := range horizon {
		t := size + h
		v := 0.0
		for i := 1; i < len(arP) && i <= t; i++ {
			v -= arP[i] * u[t-i]
		}
		for j := 1; j < len(maP) && j <= t; j++ {
			if t-j >= e.start {
				v += maP[j] * res[t-j]
			}
		}
		u[t] = v

		w[h] = v
		for j, col := range x {
			w[h] += beta[j] * col[t]
		}
	}

	for k := len(m.steps) - 1; k >= 0; k-- {
		w = integrate(m.ladder[k], w, m.steps[k])
	}
	return w, nil
}

// integrate undoes one differencing step at lag using the history of the
// level below.
func integrate(history, forecasts []float64, lag int) []float64 {
	ext := slices.Clone(history)
	for _, f := range forecasts {
		ext = append(ext, f+ext[len(ext)-lag])
	}
	return ext[len(history):]
}

// forecastStdErr returns sqrt(sigma2 * sum psi_j^2) for j < h at each step,
// with psi the weights of the integrated model.
func (m *Model) forecastStdErr(horizon int) []float64 {
	arP, maP := m.est.polys(m.params)
	full := polyMul(arP, diffPoly(m.Config.Order.D, m.Config.Seasonal.D, m.Config.Seasonal.S))
	psi := psiWeights(full, maP, horizon)

	se := make([]float64, horizon)
	cum := 0.0
	for h, p := range psi {
		cum += p * p
		se[h] = math.Sqrt(m.Sigma2 * cum)
	}
	return se
}

func normalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

func normalSurvival(x float64) float64 {
	return distuv.UnitNormal.Survival(x)
}
