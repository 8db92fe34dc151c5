// Package timeseries provides the monthly series type used across rxforecast.
//
// A Series pairs YYYYMM periods with values. It is treated as immutable: every
// transformation returns a new Series.
//
// # Creating a Series
//
//	series, err := timeseries.NewMonthly(
//	    []timeseries.Period{202301, 202302, 202303},
//	    []float64{100, 105, 98},
//	)
//
// For synthetic data, New assigns consecutive periods starting at 200001:
//
//	series := timeseries.New([]float64{100, 105, 98, 110})
//
// # Periods
//
//	p, _ := timeseries.ParsePeriod("202312")
//	p.Year()  // 2023
//	p.Next()  // 202401
//
// # Transformations
//
//	diff := series.Diff()            // first difference
//	diff2 := series.DiffN(2)         // second difference
//	sdiff := series.SeasonalDiff(12) // seasonal difference
//	logged := series.Log()
//
// # Train/Test Split
//
// Split a series into a contiguous training prefix and a held-out suffix:
//
//	train, test, err := timeseries.Split(series, 5)
//	train, test, err = timeseries.SplitTest(series, 2) // hold out the last 2
//
// Both sides must hold at least one observation; otherwise ErrInvalidSplit is
// returned. Concat(train, test) recovers the original series.
package timeseries
