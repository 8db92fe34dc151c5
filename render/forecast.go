package render

import (
	"image/color"
	"slices"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/timeseries"
)

// ForecastView is everything drawn on a forecast chart.
type ForecastView struct {
	Title  string
	YLabel string
	Train  *timeseries.Series
	Test   *timeseries.Series // optional
	// Windows are drawn in order, typically the test window then the
	// future window. Each gets its mean line and one band per level.
	Windows []*arima.Forecast
	Size    Size
}

// ForecastChart draws the training data, the held-out data and each
// forecast window with layered confidence bands, widest band first.
func ForecastChart(path string, view ForecastView) error {
	if view.Train == nil || view.Train.Len() == 0 {
		return ErrNoData
	}
	base := view.Train.Periods[0]

	p := newPlot(view.Title, "Month", view.YLabel)
	p.X.Tick.Marker = periodTicks(base)

	for _, fc := range view.Windows {
		levels := fc.Levels()
		slices.Reverse(levels)
		for _, level := range levels {
			iv, _ := fc.Interval(level)
			band, err := bandPolygon(base, fc.Periods, iv.Lower, iv.Upper)
			if err != nil {
				return err
			}
			p.Add(band)
		}
	}

	train, err := line(periodXYs(base, view.Train.Periods, view.Train.Values), trainColor, vg.Points(1.5))
	if err != nil {
		return err
	}
	p.Add(train)
	p.Legend.Add("train", train)

	if view.Test != nil && view.Test.Len() > 0 {
		test, err := line(periodXYs(base, view.Test.Periods, view.Test.Values), testColor, vg.Points(1.5))
		if err != nil {
			return err
		}
		p.Add(test)
		p.Legend.Add("test", test)
	}

	for i, fc := range view.Windows {
		mean, err := line(periodXYs(base, fc.Periods, fc.Mean), meanColor, vg.Points(1.5))
		if err != nil {
			return err
		}
		mean.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(mean)
		if i == 0 {
			p.Legend.Add("forecast", mean)
		}
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return save(p, view.Size, path)
}

// bandPolygon closes the area between lower and upper.
func bandPolygon(base timeseries.Period, periods []timeseries.Period, lower, upper []float64) (*plotter.Polygon, error) {
	ring := periodXYs(base, periods, upper)
	low := periodXYs(base, periods, lower)
	slices.Reverse(low)
	ring = append(ring, low...)

	poly, err := plotter.NewPolygon(ring)
	if err != nil {
		return nil, err
	}
	poly.Color = bandColor
	poly.LineStyle.Width = 0
	return poly, nil
}

// FitChart draws the training data against the one-step-ahead fitted values.
func FitChart(path, title string, model *arima.Model, size Size) error {
	train := model.Train()
	if train.Len() == 0 {
		return ErrNoData
	}
	base := train.Periods[0]

	p := newPlot(title, "Month", "")
	p.X.Tick.Marker = periodTicks(base)

	actual, err := line(periodXYs(base, train.Periods, train.Values), trainColor, vg.Points(1.5))
	if err != nil {
		return err
	}
	fitted, err := line(periodXYs(base, train.Periods[model.ResidualOffset():], model.FittedValues()), meanColor, vg.Points(1.5))
	if err != nil {
		return err
	}
	fitted.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(actual, fitted)
	p.Legend.Add("actual", actual)
	p.Legend.Add("fitted", fitted)
	p.Legend.Top = true
	p.Legend.Left = true

	return save(p, size, path)
}

// ResidualChart draws residuals over time with a zero reference line.
func ResidualChart(path, title string, resid *timeseries.Series, size Size) error {
	if resid == nil || resid.Len() == 0 {
		return ErrNoData
	}
	base := resid.Periods[0]

	p := newPlot(title, "Month", "Residual")
	p.X.Tick.Marker = periodTicks(base)

	l, err := line(periodXYs(base, resid.Periods, resid.Values), trainColor, vg.Points(1))
	if err != nil {
		return err
	}
	pts, err := plotter.NewScatter(l.XYs)
	if err != nil {
		return err
	}
	pts.GlyphStyle.Color = trainColor
	pts.GlyphStyle.Radius = vg.Points(2)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Black
	zero.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

	p.Add(l, pts, zero)
	return save(p, size, path)
}
