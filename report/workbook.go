package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/sartorproj/rxforecast/prescribing"
)

// ErrNoPivots is returned when a workbook would have no sheets.
var ErrNoPivots = errors.New("report: no pivots to write")

// SheetPivot is a pivot destined for its own worksheet.
type SheetPivot struct {
	Sheet string
	Pivot *prescribing.Pivot
}

// Colour ramps for the cell scale, low to high.
var scales = map[prescribing.Measure][2]string{
	prescribing.Items: {"#F7FBFF", "#08306B"}, // Blues
	prescribing.Cost:  {"#FFF5EB", "#7F2704"}, // Oranges
}

// WritePivotWorkbook saves sheets to an .xlsx file at path.
func WritePivotWorkbook(path string, sheets ...SheetPivot) error {
	f, err := pivotWorkbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// WritePivots writes the workbook to w.
func WritePivots(w io.Writer, sheets ...SheetPivot) error {
	f, err := pivotWorkbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// pivotWorkbook lays each pivot out as Year | regions... | Total with a
// frozen header. All sheets of one measure share a colour scale bounded by
// the smallest and largest cell across them, so shades compare between
// sheets.
func pivotWorkbook(sheets []SheetPivot) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, ErrNoPivots
	}

	bounds := make(map[prescribing.Measure][2]float64)
	for _, s := range sheets {
		b, ok := bounds[s.Pivot.Measure]
		if !ok {
			b = [2]float64{math.Inf(1), math.Inf(-1)}
		}
		bounds[s.Pivot.Measure] = [2]float64{math.Min(b[0], s.Pivot.Min()), math.Max(b[1], s.Pivot.Max())}
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9D9D9"}},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, s := range sheets {
		if i == 0 {
			err = f.SetSheetName("Sheet1", s.Sheet)
		} else {
			_, err = f.NewSheet(s.Sheet)
		}
		if err == nil {
			err = writePivotSheet(f, s, header, bounds[s.Pivot.Measure])
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("report: sheet %q: %w", s.Sheet, err)
		}
	}
	return f, nil
}

func writePivotSheet(f *excelize.File, s SheetPivot, header int, bounds [2]float64) error {
	p := s.Pivot
	cols := len(p.Regions) + 2

	headers := make([]any, 0, cols)
	headers = append(headers, "Year")
	for _, r := range p.Regions {
		headers = append(headers, r)
	}
	headers = append(headers, "Total")
	if err := f.SetSheetRow(s.Sheet, "A1", &headers); err != nil {
		return err
	}

	for i, year := range p.Years {
		row := make([]any, 0, cols)
		row = append(row, year)
		for _, v := range p.Cells[i] {
			row = append(row, v)
		}
		row = append(row, p.RowTotal(i))
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.Sheet, "A1", lastCol+"1", header); err != nil {
		return err
	}
	if err := f.SetColWidth(s.Sheet, "A", lastCol, 16); err != nil {
		return err
	}
	if err := f.SetPanes(s.Sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	if len(p.Years) == 0 || len(p.Regions) == 0 {
		return nil
	}

	format := "#,##0"
	if p.Measure == prescribing.Cost {
		format = "#,##0.00"
	}
	numbers, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return err
	}
	lastRow := len(p.Years) + 1
	if err := f.SetCellStyle(s.Sheet, "B2", fmt.Sprintf("%s%d", lastCol, lastRow), numbers); err != nil {
		return err
	}

	// The scale covers region cells only; totals would swamp it.
	regionEnd, err := excelize.ColumnNumberToName(cols - 1)
	if err != nil {
		return err
	}
	ramp := scales[p.Measure]
	return f.SetConditionalFormat(s.Sheet, fmt.Sprintf("B2:%s%d", regionEnd, lastRow), []excelize.ConditionalFormatOptions{{
		Type:     "2_color_scale",
		Criteria: "=",
		MinType:  "num",
		MaxType:  "num",
		MinValue: strconv.FormatFloat(bounds[0], 'f', -1, 64),
		MaxValue: strconv.FormatFloat(bounds[1], 'f', -1, 64),
		MinColor: ramp[0],
		MaxColor: ramp[1],
	}})
}
