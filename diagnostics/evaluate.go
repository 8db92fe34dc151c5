package diagnostics

import (
	"errors"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/stats"
	"github.com/sartorproj/rxforecast/timeseries"
)

// Options controls Evaluate.
type Options struct {
	Lags      []int // Ljung-Box lag counts
	MaxLag    int   // correlogram lags
	AdjustDOF bool  // subtract the model's ARMA terms from Ljung-Box dof
}

// DefaultOptions matches the usual monthly setup: Ljung-Box at 12 and 20,
// correlograms to lag 12, unadjusted degrees of freedom.
func DefaultOptions() Options {
	return Options{Lags: []int{12, 20}, MaxLag: 12}
}

// Report bundles every residual diagnostic for one fitted model.
type Report struct {
	Residuals    *timeseries.Series
	Summary      *stats.Summary
	LjungBox     []LagTest
	Normality    *NormalityResult // nil when the sample is too small
	ACF          *stats.CorrelogramResult
	PACF         *stats.CorrelogramResult
	QQ           []stats.QQPoint
	DurbinWatson float64
}

// Evaluate runs the residual diagnostics of model. Lags that do not fit the
// residual length are dropped rather than failing the whole report.
func Evaluate(model *arima.Model, opts Options) (*Report, error) {
	if len(opts.Lags) == 0 {
		opts.Lags = DefaultOptions().Lags
	}
	if opts.MaxLag < 1 {
		opts.MaxLag = DefaultOptions().MaxLag
	}

	resid := Residuals(model)
	values := resid.Values

	summary, err := stats.Describe(values)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Residuals:    resid,
		Summary:      summary,
		ACF:          stats.ACFWithConfidence(resid, opts.MaxLag),
		PACF:         stats.PACFWithConfidence(resid, opts.MaxLag),
		QQ:           stats.QQPoints(values),
		DurbinWatson: stats.DurbinWatson(values),
	}

	fitdf := 0
	if opts.AdjustDOF {
		fitdf = model.NumARMA()
	}
	var lags []int
	for _, h := range opts.Lags {
		if h >= 1 && h < len(values) {
			lags = append(lags, h)
		}
	}
	if len(lags) > 0 {
		report.LjungBox, err = AutocorrelationTest(values, lags, fitdf)
		if err != nil && !errors.Is(err, ErrConstantResiduals) {
			return nil, err
		}
	}

	report.Normality, err = NormalityTest(values)
	if err != nil && !errors.Is(err, stats.ErrSampleSize) && !errors.Is(err, stats.ErrZeroRange) {
		return nil, err
	}

	return report, nil
}

// Adequate reports whether every Ljung-Box p-value is at least alpha,
// conventionally 0.05. A report without Ljung-Box results is not adequate.
func (r *Report) Adequate(alpha float64) bool {
	if len(r.LjungBox) == 0 {
		return false
	}
	for _, t := range r.LjungBox {
		if t.PValue < alpha {
			return false
		}
	}
	return true
}
