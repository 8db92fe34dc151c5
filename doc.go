// Package rxforecast analyses regional prescribing data and forecasts
// national monthly totals with ARIMA models.
//
// The extract holds one row per month, region and chemical substance with
// the items dispensed and their cost. rxforecast aggregates it to monthly,
// annual, regional and per-substance totals, fits ARIMA and seasonal ARIMA
// models to the monthly series, forecasts with layered confidence bands and
// checks the residuals.
//
// # Features
//
//   - CSV (any declared encoding), Parquet and Postgres input
//   - Monthly, annual, year by region and top substance summaries
//   - ARIMA(p,d,q)(P,D,Q,s) fitting by exact Gaussian likelihood with trend
//     terms, parameter standard errors and Wald intervals
//   - Hold-out forecasts with one band per confidence level
//   - Residual diagnostics: Ljung-Box, Shapiro-Wilk, ACF, PACF, Durbin-Watson
//   - Automatic order selection (stepwise or exhaustive) by AICc, AIC or BIC
//   - Charts (png, svg, pdf), Excel pivot workbooks and JSON run records
//
// # Quick Start
//
// Forecast the national items total:
//
//	records, _ := prescribing.LoadCSV("extract.csv", prescribing.DefaultCSVOptions())
//	series, _ := prescribing.MonthlySeries(records, prescribing.Items)
//	train, _, _ := timeseries.SplitTest(series, 5)
//	model, _ := arima.Fit(train, arima.Config{
//		Order: arima.Order{P: 1, D: 1},
//		Trend: arima.TrendLinear,
//	})
//	fc, _ := model.Forecast(10, 0.90, 0.70, 0.50)
//
// Or from the command line:
//
//	rxforecast predict --input extract.csv --output out
//
// # Packages
//
//   - timeseries: monthly periods, series and train/test splits
//   - prescribing: records, loaders and aggregations
//   - arima: model fitting and forecasting
//   - autoarima: order selection
//   - stats: correlograms, portmanteau, normality and stationarity tests
//   - diagnostics: residual diagnostics of a fitted model
//   - render: charts
//   - report: text tables, workbooks and JSON
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
package rxforecast
