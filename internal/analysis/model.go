package analysis

import (
	"fmt"
	"math"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/autoarima"
	"github.com/sartorproj/rxforecast/diagnostics"
	"github.com/sartorproj/rxforecast/timeseries"
)

// Estimate fits cfg to the whole series.
func Estimate(series *timeseries.Series, cfg arima.Config) (*arima.Model, error) {
	model, err := arima.Fit(series, cfg)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", cfg, err)
	}
	return model, nil
}

// PredictOptions controls Predict.
type PredictOptions struct {
	Model      arima.Config
	TestSize   int
	Future     int
	Levels     []float64
	ParamAlpha float64
}

// SigmaInterval is the innovation standard deviation with the square roots
// of the sigma2 interval bounds. Bounds are NaN unless both sigma2 bounds are
// positive.
type SigmaInterval struct {
	Value float64
	Lower float64
	Upper float64
}

// Accuracy compares the test window mean with the held-out observations.
type Accuracy struct {
	MAE  float64
	RMSE float64
	MAPE float64 // percent; NaN when an observation is zero
}

// Prediction is a hold-out forecast: the model fitted to the training part,
// a forecast over the test months and a continuation past the last
// observation. Both windows come from one forecast, so the future window is
// the continuation of the test window.
type Prediction struct {
	Model    *arima.Model
	Train    *timeseries.Series
	Test     *timeseries.Series
	Window   *arima.Forecast // test months
	Future   *arima.Forecast // months after the last observation
	Params   []arima.ParamInterval
	Sigma    SigmaInterval
	Accuracy Accuracy
}

// Predict holds out the last TestSize months, fits once on the rest and
// forecasts TestSize+Future steps at every level.
func Predict(series *timeseries.Series, opts PredictOptions) (*Prediction, error) {
	if opts.Future < 1 {
		return nil, fmt.Errorf("%w: future steps %d", arima.ErrInvalidHorizon, opts.Future)
	}
	train, test, err := timeseries.SplitTest(series, opts.TestSize)
	if err != nil {
		return nil, err
	}

	model, err := Estimate(train, opts.Model)
	if err != nil {
		return nil, err
	}

	params, err := model.ConfInt(opts.ParamAlpha)
	if err != nil {
		return nil, err
	}

	fc, err := model.Forecast(opts.TestSize+opts.Future, opts.Levels...)
	if err != nil {
		return nil, err
	}
	window := fc.Slice(0, opts.TestSize)

	return &Prediction{
		Model:    model,
		Train:    train,
		Test:     test,
		Window:   window,
		Future:   fc.Slice(opts.TestSize, fc.Horizon),
		Params:   params,
		Sigma:    sigmaInterval(params),
		Accuracy: accuracy(window.Mean, test.Values),
	}, nil
}

func sigmaInterval(params []arima.ParamInterval) SigmaInterval {
	out := SigmaInterval{Value: math.NaN(), Lower: math.NaN(), Upper: math.NaN()}
	for _, p := range params {
		if p.Name != "sigma2" {
			continue
		}
		out.Value = math.Sqrt(p.Value)
		if p.Lower > 0 && p.Upper > 0 {
			out.Lower, out.Upper = math.Sqrt(p.Lower), math.Sqrt(p.Upper)
		}
	}
	return out
}

func accuracy(forecast, actual []float64) Accuracy {
	var abs, sq, pct float64
	for i, y := range actual {
		e := y - forecast[i]
		abs += math.Abs(e)
		sq += e * e
		pct += math.Abs(e / y)
	}
	n := float64(len(actual))
	mape := 100 * pct / n
	if math.IsInf(mape, 0) {
		mape = math.NaN()
	}
	return Accuracy{MAE: abs / n, RMSE: math.Sqrt(sq / n), MAPE: mape}
}

// Diagnosis is a fitted model with its residual diagnostics.
type Diagnosis struct {
	Model  *arima.Model
	Report *diagnostics.Report
}

// Diagnose fits cfg to the whole series and evaluates its residuals.
func Diagnose(series *timeseries.Series, cfg arima.Config, opts diagnostics.Options) (*Diagnosis, error) {
	model, err := Estimate(series, cfg)
	if err != nil {
		return nil, err
	}
	report, err := diagnostics.Evaluate(model, opts)
	if err != nil {
		return nil, err
	}
	return &Diagnosis{Model: model, Report: report}, nil
}

// Selection is an order search with the diagnostics of the winner.
type Selection struct {
	*autoarima.Result
	Report *diagnostics.Report
}

// SelectOrder searches for the best order under cfg and evaluates the
// residuals of the chosen model.
func SelectOrder(series *timeseries.Series, cfg *autoarima.Config, opts diagnostics.Options) (*Selection, error) {
	res, err := autoarima.AutoARIMA(series, cfg)
	if err != nil {
		return nil, err
	}
	report, err := diagnostics.Evaluate(res.Model, opts)
	if err != nil {
		return nil, err
	}
	return &Selection{Result: res, Report: report}, nil
}
