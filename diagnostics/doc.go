// Package diagnostics checks the residuals of a fitted ARIMA model.
//
// The individual tests report statistics only:
//
//	resid := diagnostics.Residuals(model)
//	lb, err := diagnostics.AutocorrelationTest(resid.Values, []int{12, 20}, 0)
//	sw, err := diagnostics.NormalityTest(resid.Values)
//
// Evaluate bundles them with correlograms, QQ coordinates and a summary, and
// Report.Adequate applies a p-value threshold for callers that want a verdict.
package diagnostics
