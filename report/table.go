// Package report renders analysis results as terminal tables, Excel
// workbooks and JSON documents.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/autoarima"
	"github.com/sartorproj/rxforecast/diagnostics"
	"github.com/sartorproj/rxforecast/prescribing"
	"github.com/sartorproj/rxforecast/timeseries"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	printer = message.NewPrinter(language.English)
)

// newTable builds a bordered table whose first textCols columns are left
// aligned and the rest right aligned.
func newTable(textCols int, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < textCols:
				return cellStyle
			default:
				return numberStyle
			}
		})
}

// number formats v with thousands separators and prec decimals.
func number(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return printer.Sprintf("%.*f", prec, v)
}

func decimals(m prescribing.Measure) int {
	if m == prescribing.Cost {
		return 2
	}
	return 0
}

// MonthlyTable lists a monthly series.
func MonthlyTable(series *timeseries.Series, measure prescribing.Measure) string {
	t := newTable(1, "Month", measure.String())
	for i, p := range series.Periods {
		t.Row(p.String(), number(series.Values[i], decimals(measure)))
	}
	return t.String()
}

// AnnualTable lists yearly totals.
func AnnualTable(totals []prescribing.YearTotal, measure prescribing.Measure) string {
	t := newTable(1, "Year", measure.String())
	for _, yt := range totals {
		t.Row(strconv.Itoa(yt.Year), number(yt.Total, decimals(measure)))
	}
	return t.String()
}

// RankedTable lists ranked substances with their position.
func RankedTable(ranked []prescribing.Ranked, measure prescribing.Measure) string {
	t := newTable(2, "#", "Substance", measure.String())
	for i, r := range ranked {
		t.Row(strconv.Itoa(i+1), r.Name, number(r.Total, decimals(measure)))
	}
	return t.String()
}

// PivotTable lists a year x region pivot with a total column.
func PivotTable(p *prescribing.Pivot) string {
	headers := append([]string{"Year"}, p.Regions...)
	t := newTable(1, append(headers, "Total")...)
	prec := decimals(p.Measure)
	for i, year := range p.Years {
		row := []string{strconv.Itoa(year)}
		for _, v := range p.Cells[i] {
			row = append(row, number(v, prec))
		}
		t.Row(append(row, number(p.RowTotal(i), prec))...)
	}
	return t.String()
}

// ParamTable lists estimates with standard errors and Wald intervals at
// 1-alpha.
func ParamTable(model *arima.Model, alpha float64) (string, error) {
	intervals, err := model.ConfInt(alpha)
	if err != nil {
		return "", err
	}
	params := model.Params()

	lo := fmt.Sprintf("[%g", alpha/2)
	hi := fmt.Sprintf("%g]", 1-alpha/2)
	t := newTable(1, "Param", "Coef", "Std err", "z", "P>|z|", lo, hi)
	for i, p := range params {
		iv := intervals[i]
		t.Row(p.Name,
			fmt.Sprintf("%.4f", p.Value),
			fmt.Sprintf("%.4f", p.StdErr),
			fmt.Sprintf("%.3f", p.ZStat()),
			fmt.Sprintf("%.3f", p.PValue()),
			fmt.Sprintf("%.4f", iv.Lower),
			fmt.Sprintf("%.4f", iv.Upper),
		)
	}
	return t.String(), nil
}

// ModelTable summarises a fit: order, criteria and sample size.
func ModelTable(model *arima.Model) string {
	t := newTable(1, "Statistic", "Value")
	t.Row("Model", model.Config.String())
	t.Row("Observations", strconv.Itoa(model.NObs))
	t.Row("Log likelihood", fmt.Sprintf("%.3f", model.LogLik))
	t.Row("AIC", fmt.Sprintf("%.3f", model.AIC))
	t.Row("AICc", fmt.Sprintf("%.3f", model.AICc))
	t.Row("BIC", fmt.Sprintf("%.3f", model.BIC))
	t.Row("Sigma2", fmt.Sprintf("%.4f", model.Sigma2))
	return t.String()
}

// LjungBoxTable lists portmanteau tests.
func LjungBoxTable(tests []diagnostics.LagTest) string {
	t := newTable(0, "Lag", "Q", "DoF", "P-value")
	for _, lt := range tests {
		t.Row(strconv.Itoa(lt.Lag), fmt.Sprintf("%.4f", lt.Statistic), strconv.Itoa(lt.DOF), fmt.Sprintf("%.4f", lt.PValue))
	}
	return t.String()
}

// ForecastTable lists the mean and every band of fc. actual, when not nil,
// adds the observed value for each forecast period it covers.
func ForecastTable(fc *arima.Forecast, actual *timeseries.Series) string {
	levels := fc.Levels()
	headers := []string{"Month"}
	observed := make(map[timeseries.Period]float64)
	if actual != nil {
		headers = append(headers, "Actual")
		for i, p := range actual.Periods {
			observed[p] = actual.Values[i]
		}
	}
	headers = append(headers, "Mean")
	for _, level := range levels {
		pct := strconv.FormatFloat(math.Round(level*1000)/10, 'f', -1, 64)
		headers = append(headers, "Lower "+pct+"%", "Upper "+pct+"%")
	}

	t := newTable(1, headers...)
	for h, p := range fc.Periods {
		row := []string{p.String()}
		if actual != nil {
			if v, ok := observed[p]; ok {
				row = append(row, number(v, 2))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, number(fc.Mean[h], 2))
		for _, level := range levels {
			iv := fc.Intervals[level]
			row = append(row, number(iv.Lower[h], 2), number(iv.Upper[h], 2))
		}
		t.Row(row...)
	}
	return t.String()
}

// CandidateTable lists the orders tried by an order search, best first and
// failed fits last.
func CandidateTable(res *autoarima.Result) string {
	t := newTable(1, "Model", strings.ToUpper(string(res.Criterion)), "Status")
	for _, r := range candidateRows(res) {
		status := "ok"
		if r.Err != "" {
			status = r.Err
		}
		t.Row(r.Model, fmt.Sprintf("%.3f", float64(r.Score)), status)
	}
	return t.String()
}
