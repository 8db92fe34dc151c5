// Package render draws forecasting and diagnostic charts with gonum/plot.
//
// Every chart function takes the output path; the file extension picks the
// format (png, svg, pdf, eps, jpg, tif).
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sartorproj/rxforecast/timeseries"
)

// ErrFormat is returned for an output path whose extension gonum/plot cannot
// encode.
var ErrFormat = errors.New("render: unsupported image format")

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("render: no data to plot")

// Size is the page size of a saved chart.
type Size struct {
	Width, Height vg.Length
}

// DefaultSize is used when a chart is saved with a zero Size.
var DefaultSize = Size{Width: 10 * vg.Inch, Height: 5 * vg.Inch}

var formats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "eps": true,
	"jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

var (
	trainColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	testColor  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	meanColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	barColor   = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	bandColor  = color.NRGBA{R: 214, G: 39, B: 40, A: 45}
)

func checkFormat(path string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !formats[ext] {
		return fmt.Errorf("%w: %q", ErrFormat, path)
	}
	return nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, size Size, path string) error {
	if err := checkFormat(path); err != nil {
		return err
	}
	if size.Width == 0 || size.Height == 0 {
		size = DefaultSize
	}
	if err := p.Save(size.Width, size.Height, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

// periodXYs places values on a month axis counted from base.
func periodXYs(base timeseries.Period, periods []timeseries.Period, values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(base.MonthsUntil(periods[i]))
		xys[i].Y = v
	}
	return xys
}

// periodTicks labels a month axis counted from base with YYYY-MM, spacing
// the labels so that roughly eight fit.
func periodTicks(base timeseries.Period) plot.Ticker {
	return plot.TickerFunc(func(minX, maxX float64) []plot.Tick {
		span := maxX - minX
		step := 1
		for _, s := range []int{1, 3, 6, 12, 24, 60} {
			step = s
			if span/float64(s) <= 8 {
				break
			}
		}

		var ticks []plot.Tick
		first := int(math.Ceil(minX))
		for x := first; float64(x) <= maxX; x++ {
			p := base.Add(x)
			if (p.Month()-1)%min(step, 12) != 0 || (step > 12 && p.Year()%(step/12) != 0) {
				continue
			}
			ticks = append(ticks, plot.Tick{Value: float64(x), Label: fmt.Sprintf("%04d-%02d", p.Year(), p.Month())})
		}
		return ticks
	})
}

func line(xys plotter.XYs, c color.Color, width vg.Length) (*plotter.Line, error) {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.Color = c
	l.Width = width
	return l, nil
}
