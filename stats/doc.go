// Package stats provides the statistical tests used to identify and check
// ARIMA models.
//
// # Autocorrelation
//
//	acf := stats.ACF(series, 12)
//	pacf := stats.PACF(series, 12)
//
//	// With the 95% bound 1.96/sqrt(n)
//	result := stats.ACFWithConfidence(series, 12)
//	significant := stats.SignificantLags(result.Values, result.ConfBounds)
//
// # Residual Tests
//
// Ljung-Box and Box-Pierce test for autocorrelation up to a lag, with the
// degrees of freedom reduced by the number of fitted ARMA terms:
//
//	lb := stats.LjungBox(residuals, 12, p+q)
//	all := stats.LjungBoxLags(residuals, []int{12, 20}, p+q)
//	dw := stats.DurbinWatson(residuals.Values)
//
// # Normality
//
//	sw, err := stats.ShapiroWilk(values)
//	points := stats.QQPoints(values)
//
// ShapiroWilk follows Royston's approximation and accepts 3 to 5000 values.
//
// # Stationarity
//
// KPSS tests the null of stationarity around a level or a trend. NDiffs
// applies it repeatedly to pick a differencing order:
//
//	kpss := stats.KPSS(series, stats.Level, 0)
//	d := stats.NDiffs(series, 2, 0.05)
//
// # Summaries
//
//	ic := stats.CalculateIC(logLik, nObs, nParams)
//	summary, err := stats.Describe(values)
package stats
