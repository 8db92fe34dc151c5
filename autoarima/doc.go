// Package autoarima implements automatic ARIMA model selection.
//
// The differencing orders are fixed first: one seasonal difference when the
// autocorrelation at the seasonal lag exceeds 0.5, then the smallest d for
// which KPSS no longer rejects level stationarity. AR and MA orders are then
// searched, stepwise or exhaustively, minimising AICc, AIC or BIC.
//
// # Basic Usage
//
//	config := autoarima.DefaultConfig()
//	result, err := autoarima.AutoARIMA(series, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Best model: %s (%s %.2f, %d fits)\n",
//	    result.Config, result.Criterion, result.Score, result.ModelsEvaluated)
//
//	fc, _ := result.Model.Forecast(6, 0.80, 0.95)
//
// # Seasonal Model Selection
//
// Set Period to search seasonal AR and MA terms as well:
//
//	config := autoarima.DefaultConfig()
//	config.Period = 12
//
// # Search Methods
//
//   - Stepwise (default): starts from a handful of small orders and moves to
//     the best neighbour until nothing improves.
//   - Exhaustive: fits every order up to the configured maxima.
//
// Fitted orders are kept in an LRU cache so the stepwise walk never refits a
// neighbour it already visited. Every fit, failed or not, is listed in
// Result.Candidates.
package autoarima
