package render

import (
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sartorproj/rxforecast/prescribing"
	"github.com/sartorproj/rxforecast/timeseries"
)

// AnnualBarChart draws one bar per year.
func AnnualBarChart(path, title, yLabel string, totals []prescribing.YearTotal, size Size) error {
	if len(totals) == 0 {
		return ErrNoData
	}

	values := make(plotter.Values, len(totals))
	labels := make([]string, len(totals))
	for i, t := range totals {
		values[i] = t.Total
		labels[i] = strconv.Itoa(t.Year)
	}

	p := newPlot(title, "Year", yLabel)
	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return err
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.Y.Min = 0

	return save(p, size, path)
}

// TrendChart draws one line per named series on a shared month axis.
// Lines are drawn in name order so colours are stable between runs.
func TrendChart(path, title, yLabel string, series map[string]*timeseries.Series, size Size) error {
	names := make([]string, 0, len(series))
	var base timeseries.Period = math.MaxInt32
	for name, s := range series {
		if s == nil || s.Len() == 0 {
			continue
		}
		names = append(names, name)
		base = min(base, s.Periods[0])
	}
	if len(names) == 0 {
		return ErrNoData
	}
	slices.Sort(names)

	p := newPlot(title, "Month", yLabel)
	p.X.Tick.Marker = periodTicks(base)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight

	for i, name := range names {
		s := series[name]
		l, err := line(periodXYs(base, s.Periods, s.Values), plotutil.Color(i), vg.Points(1.5))
		if err != nil {
			return err
		}
		l.Dashes = plotutil.Dashes(i / len(plotutil.DefaultColors))
		p.Add(l)
		p.Legend.Add(name, l)
	}
	p.Legend.Top = true

	return save(p, size, path)
}
