package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV reads a two-column "period,value" CSV with a header row, as
// written by WriteCSV.
func ReadCSV(r io.Reader) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	name := strings.TrimSpace(header[1])

	var (
		periods []Period
		values  []float64
	)
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		p, err := ParsePeriod(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse value %q: %w", row, record[1], err)
		}
		periods = append(periods, p)
		values = append(values, v)
	}

	series, err := NewMonthly(periods, values)
	if err != nil {
		return nil, err
	}
	series.Name = name
	return series, nil
}

// WriteCSV writes the series as "period,<name>" rows.
func WriteCSV(w io.Writer, series *Series) error {
	if len(series.Periods) != series.Len() {
		return ErrLengthMismatch
	}

	name := series.Name
	if name == "" {
		name = "value"
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"period", name}); err != nil {
		return err
	}
	for i, v := range series.Values {
		err := writer.Write([]string{
			series.Periods[i].String(),
			strconv.FormatFloat(v, 'f', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
