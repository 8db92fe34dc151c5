package render

import (
	"image/color"

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sartorproj/rxforecast/stats"
)

// CorrelogramChart draws ACF or PACF bars from lag 1 with the +/- bound
// lines.
func CorrelogramChart(path, title string, c *stats.CorrelogramResult, size Size) error {
	if c == nil || len(c.Values) < 2 {
		return ErrNoData
	}

	p := newPlot(title, "Lag", "")

	bars, err := plotter.NewBarChart(plotter.Values(c.Values[1:]), vg.Points(6))
	if err != nil {
		return err
	}
	bars.XMin = 1
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)

	for _, bound := range []float64{c.ConfBounds, -c.ConfBounds} {
		f := plotter.NewFunction(func(float64) float64 { return bound })
		f.XMin, f.XMax = 0.5, float64(len(c.Values))-0.5
		f.Color = meanColor
		f.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(f)
	}
	p.Y.Min = min(p.Y.Min, -1.2*c.ConfBounds)
	p.Y.Max = max(p.Y.Max, 1.2*c.ConfBounds)

	return save(p, size, path)
}

// QQChart plots sample quantiles against normal quantiles with the line
// through the first and third quartiles.
func QQChart(path, title string, points []stats.QQPoint, size Size) error {
	if len(points) < 2 {
		return ErrNoData
	}

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = pt.Theoretical
		xys[i].Y = pt.Sample
	}

	p := newPlot(title, "Theoretical quantiles", "Sample quantiles")
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = trainColor
	sc.GlyphStyle.Radius = vg.Points(2.5)

	q1, q3 := xys[len(xys)/4], xys[3*len(xys)/4]
	slope := 1.0
	if q3.X != q1.X {
		slope = (q3.Y - q1.Y) / (q3.X - q1.X)
	}
	ref := plotter.NewFunction(func(x float64) float64 { return q1.Y + slope*(x-q1.X) })
	ref.XMin, ref.XMax = xys[0].X, xys[len(xys)-1].X
	ref.Color = meanColor

	p.Add(sc, ref)
	return save(p, size, path)
}

// HistogramChart draws a density-normalised histogram of values with the
// normal density of the same mean and standard deviation on top.
func HistogramChart(path, title string, values []float64, bins int, size Size) error {
	summary, err := stats.Describe(values)
	if err != nil || len(values) < 2 {
		return ErrNoData
	}
	if bins < 1 {
		bins = 16
	}

	p := newPlot(title, "", "Density")
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return err
	}
	h.Normalize(1)
	h.FillColor = color.RGBA{R: 158, G: 202, B: 225, A: 255}
	p.Add(h)

	if summary.Std > 0 {
		normal := distuv.Normal{Mu: summary.Mean, Sigma: summary.Std}
		pdf := plotter.NewFunction(normal.Prob)
		pdf.XMin, pdf.XMax = summary.Min, summary.Max
		pdf.Samples = 200
		pdf.Color = meanColor
		pdf.Width = vg.Points(1.5)
		p.Add(pdf)
	}

	return save(p, size, path)
}
