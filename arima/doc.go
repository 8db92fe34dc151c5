// Package arima fits regressions with (seasonal) ARIMA errors and forecasts
// them with confidence bands.
//
// A model is described by a Config: the non-seasonal order (p, d, q), an
// optional seasonal order (P, D, Q, s) and deterministic trend terms:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// Trend regressors live on the original time index and are differenced
// with the series, so a linear trend with d = 1 becomes a drift. Requesting
// a term that differencing removes, such as a constant with d = 1, fails
// with ErrTrendEliminated.
//
// # Basic Usage
//
//	cfg := arima.Config{
//	    Order: arima.Order{P: 1, D: 1, Q: 0},
//	    Trend: arima.TrendLinear,
//	}
//	model, err := arima.Fit(train, cfg)
//	if err != nil {
//	    return err
//	}
//
//	// One fit serves every horizon and level.
//	fc, err := model.Forecast(10, 0.90, 0.70, 0.50)
//	band, _ := fc.Interval(0.90)
//
// # Estimation
//
// Parameters maximise the Gaussian likelihood conditional on the first
// p + s*P differenced observations, using Nelder-Mead over a
// reparameterisation that keeps AR polynomials stationary and MA
// polynomials invertible. Standard errors come from the numerical Hessian.
//
//	for _, p := range model.Params() {
//	    fmt.Printf("%-10s %10.4f %10.4f\n", p.Name, p.Value, p.StdErr)
//	}
//	ci, _ := model.ConfInt(0.10)
//
// A zero-variance differenced series is an exact fit: Sigma2 is 0 and the
// bands collapse onto the mean.
//
// # Residual Analysis
//
//	residuals := model.Residuals() // starts at training position model.ResidualOffset()
//	summary := model.Summary()     // includes Ljung-Box at lag 10
//
// For automatic order selection, use the autoarima package.
package arima
