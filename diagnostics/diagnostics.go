package diagnostics

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/stats"
	"github.com/sartorproj/rxforecast/timeseries"
)

var (
	// ErrInvalidLags is returned for an empty lag set or a lag outside
	// [1, len(residuals)-1].
	ErrInvalidLags = errors.New("diagnostics: invalid lags")

	// ErrConstantResiduals is returned when the residuals have no variance
	// and autocorrelations are undefined.
	ErrConstantResiduals = errors.New("diagnostics: residuals are constant")
)

// LagTest is the Ljung-Box result for autocorrelations up to Lag.
type LagTest struct {
	Lag       int
	Statistic float64
	PValue    float64
	DOF       int
}

// NormalityResult is the Shapiro-Wilk statistic for a residual sequence.
type NormalityResult struct {
	W      float64
	PValue float64
	N      int
}

// Residuals returns the model's one-step-ahead errors as a series indexed by
// the training periods they belong to. Observations consumed by differencing
// have no residual.
func Residuals(model *arima.Model) *timeseries.Series {
	train := model.Train()
	return &timeseries.Series{
		Periods: slices.Clone(train.Periods[model.ResidualOffset():]),
		Values:  model.Residuals(),
		Name:    "residuals",
	}
}

// AutocorrelationTest runs the Ljung-Box test once per lag. fitdf is
// subtracted from each test's degrees of freedom, with a floor of one. Only
// statistics are reported; judging adequacy is left to the caller.
func AutocorrelationTest(resid []float64, lags []int, fitdf int) ([]LagTest, error) {
	if len(lags) == 0 {
		return nil, fmt.Errorf("%w: no lags requested", ErrInvalidLags)
	}
	for _, h := range lags {
		if h < 1 || h >= len(resid) {
			return nil, fmt.Errorf("%w: lag %d with %d residuals", ErrInvalidLags, h, len(resid))
		}
	}

	results := stats.LjungBoxLags(timeseries.New(resid), lags, fitdf)
	out := make([]LagTest, len(results))
	for i, r := range results {
		if r == nil {
			return nil, ErrConstantResiduals
		}
		out[i] = LagTest{Lag: lags[i], Statistic: r.Statistic, PValue: r.PValue, DOF: r.DOF}
	}
	return out, nil
}

// NormalityTest applies the Shapiro-Wilk test to resid.
func NormalityTest(resid []float64) (*NormalityResult, error) {
	sw, err := stats.ShapiroWilk(resid)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: normality test: %w", err)
	}
	return &NormalityResult{W: sw.W, PValue: sw.PValue, N: sw.N}, nil
}

// PartialAutocorrelation returns partial autocorrelations for lags
// 0..maxLag. maxLag is capped at len(resid)-1.
func PartialAutocorrelation(resid []float64, maxLag int) ([]float64, error) {
	if maxLag < 1 || len(resid) < 2 {
		return nil, fmt.Errorf("%w: max lag %d with %d residuals", ErrInvalidLags, maxLag, len(resid))
	}
	pacf := stats.PACF(timeseries.New(resid), maxLag)
	if pacf == nil {
		return nil, ErrConstantResiduals
	}
	return pacf, nil
}
