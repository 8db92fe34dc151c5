package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/sartorproj/rxforecast/diagnostics"
	"github.com/sartorproj/rxforecast/stats"
	"github.com/sartorproj/rxforecast/timeseries"
)

// ErrNonPositive is returned when a series cannot be log transformed.
var ErrNonPositive = errors.New("series has non-positive values")

// NormalityOptions controls CheckNormality.
type NormalityOptions struct {
	Lags   []int // Ljung-Box lags, 20 when empty
	MaxLag int   // correlogram lags, 12 when zero
}

// NormalityCheck describes the monthly log growth dY = ln(y[t]) - ln(y[t-1]).
type NormalityCheck struct {
	LogDiff   *timeseries.Series
	Summary   *stats.Summary
	Normality *diagnostics.NormalityResult // nil for fewer than 3 or constant values
	ACF       *stats.CorrelogramResult
	PACF      *stats.CorrelogramResult
	QQ        []stats.QQPoint
	LjungBox  []diagnostics.LagTest
}

// CheckNormality tests whether the log differences of series look like
// independent normal draws.
func CheckNormality(series *timeseries.Series, opts NormalityOptions) (*NormalityCheck, error) {
	if len(opts.Lags) == 0 {
		opts.Lags = []int{20}
	}
	if opts.MaxLag < 1 {
		opts.MaxLag = 12
	}

	logged := series.Log()
	if slices.ContainsFunc(logged.Values, math.IsNaN) {
		return nil, fmt.Errorf("log differences: %w", ErrNonPositive)
	}
	dy := logged.Diff()
	dy.Name = series.Name + "_log_diff"

	summary, err := stats.Describe(dy.Values)
	if err != nil {
		return nil, fmt.Errorf("log differences: %w", err)
	}

	check := &NormalityCheck{
		LogDiff: dy,
		Summary: summary,
		ACF:     stats.ACFWithConfidence(dy, opts.MaxLag),
		PACF:    stats.PACFWithConfidence(dy, opts.MaxLag),
		QQ:      stats.QQPoints(dy.Values),
	}

	check.Normality, err = diagnostics.NormalityTest(dy.Values)
	if err != nil && !errors.Is(err, stats.ErrSampleSize) && !errors.Is(err, stats.ErrZeroRange) {
		return nil, err
	}

	var lags []int
	for _, h := range opts.Lags {
		if h >= 1 && h < dy.Len() {
			lags = append(lags, h)
		}
	}
	if len(lags) > 0 {
		check.LjungBox, err = diagnostics.AutocorrelationTest(dy.Values, lags, 0)
		if err != nil && !errors.Is(err, diagnostics.ErrConstantResiduals) {
			return nil, err
		}
	}
	return check, nil
}
